package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"shuttle-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"go.uber.org/zap"
)

var tripCols = []string{
	"id", "schedule_id", "driver_id", "status", "current_lat", "current_lng",
	"location_updated_at", "start_time", "end_time",
}

func TestTripCreateRejectsSecondActiveTrip(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTripRepository(mock, zap.NewNop())

	trip := &entity.Trip{
		ID:         uuid.New(),
		ScheduleID: uuid.New(),
		DriverID:   uuid.New(),
		Status:     entity.TripStatusInProgress,
		StartTime:  time.Now(),
	}

	mock.ExpectExec("INSERT INTO trips").
		WithArgs(trip.ID, trip.ScheduleID, trip.DriverID, trip.Status, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO trips").
		WithArgs(pgxmock.AnyArg(), trip.ScheduleID, trip.DriverID, trip.Status, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "trips_active_schedule_key"})

	if err := repo.Create(context.Background(), trip); err != nil {
		t.Fatalf("first create: %v", err)
	}

	second := *trip
	second.ID = uuid.New()
	if err := repo.Create(context.Background(), &second); !errors.Is(err, ErrActiveTripExists) {
		t.Fatalf("expected ErrActiveTripExists, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTripUpdateLocationRowsAffected(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTripRepository(mock, zap.NewNop())

	id, driverID := uuid.New(), uuid.New()
	update := regexp.QuoteMeta("WHERE id = $1 AND driver_id = $2 AND status = 'in_progress'")

	mock.ExpectExec(update).
		WithArgs(id, driverID, 1.3521, 103.8198, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(update).
		WithArgs(id, driverID, 1.3522, 103.8199, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.UpdateLocation(context.Background(), id, driverID, 1.3521, 103.8198, time.Now()); err != nil {
		t.Fatalf("update location: %v", err)
	}
	err := repo.UpdateLocation(context.Background(), id, driverID, 1.3522, 103.8199, time.Now())
	if !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTripComplete(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTripRepository(mock, zap.NewNop())

	id, scheduleID, driverID := uuid.New(), uuid.New(), uuid.New()
	start := time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC)
	end := start.Add(40 * time.Minute)
	lat, lng := 1.3, 103.8

	update := regexp.QuoteMeta("SET status = 'completed', end_time = $3")
	mock.ExpectQuery(update).
		WithArgs(id, driverID, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(tripCols).AddRow(
			id, scheduleID, driverID, entity.TripStatusCompleted, &lat, &lng, &start, start, &end,
		))
	mock.ExpectQuery(update).
		WithArgs(id, driverID, pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	trip, err := repo.Complete(context.Background(), id, driverID, end)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if trip.Status != entity.TripStatusCompleted || trip.EndTime == nil || *trip.CurrentLat != lat {
		t.Fatalf("unexpected trip %+v", trip)
	}

	if _, err := repo.Complete(context.Background(), id, driverID, end); !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTripFindByIDMissing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTripRepository(mock, zap.NewNop())

	id := uuid.New()
	mock.ExpectQuery("FROM trips").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	trip, err := repo.FindByID(context.Background(), id)
	if err != nil || trip != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", trip, err)
	}
}
