package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shuttle-booking/internal/data/entity"
	"shuttle-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TripRepository interface {
	Create(ctx context.Context, trip *entity.Trip) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Trip, error)
	FindByDriverID(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]*entity.Trip, error)
	CountByDriverID(ctx context.Context, driverID uuid.UUID) (int64, error)

	// Guarded by status = 'in_progress' and the owning driver;
	// ErrConditionFailed when nothing matched.
	UpdateLocation(ctx context.Context, id, driverID uuid.UUID, lat, lng float64, at time.Time) error
	Complete(ctx context.Context, id, driverID uuid.UUID, at time.Time) (*entity.Trip, error)
}

const tripColumns = `id, schedule_id, driver_id, status, current_lat, current_lng,
		       location_updated_at, start_time, end_time`

type tripRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTripRepository(db database.PgxIface, log *zap.Logger) TripRepository {
	return &tripRepository{
		db:  db,
		log: log.With(zap.String("repository", "trip")),
	}
}

// Create inserts a started trip. The partial unique index on schedule_id
// rejects a second non-completed trip for the same schedule.
func (r *tripRepository) Create(ctx context.Context, trip *entity.Trip) error {
	query := `
		INSERT INTO trips (id, schedule_id, driver_id, status, start_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`

	_, err := r.db.Exec(ctx, query,
		trip.ID,
		trip.ScheduleID,
		trip.DriverID,
		trip.Status,
		trip.StartTime,
	)

	if database.IsUniqueViolation(err, tripActiveScheduleKey) {
		return ErrActiveTripExists
	}
	if err != nil {
		r.log.Error("Failed to create trip",
			zap.Error(err),
			zap.String("schedule_id", trip.ScheduleID.String()),
			zap.String("driver_id", trip.DriverID.String()),
		)
		return fmt.Errorf("create trip for schedule %s: %w", trip.ScheduleID.String(), err)
	}

	return nil
}

func (r *tripRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Trip, error) {
	query := `SELECT ` + tripColumns + `
		FROM trips
		WHERE id = $1
	`

	trip, err := scanTrip(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find trip by ID",
			zap.Error(err),
			zap.String("trip_id", id.String()),
		)
		return nil, fmt.Errorf("find trip by ID %s: %w", id.String(), err)
	}

	return trip, nil
}

func (r *tripRepository) FindByDriverID(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]*entity.Trip, error) {
	query := `SELECT ` + tripColumns + `
		FROM trips
		WHERE driver_id = $1
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, driverID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find trips by driver ID",
			zap.Error(err),
			zap.String("driver_id", driverID.String()),
		)
		return nil, fmt.Errorf("find trips by driver ID %s: %w", driverID.String(), err)
	}
	defer rows.Close()

	var trips []*entity.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			r.log.Error("Failed to scan trip row", zap.Error(err))
			return nil, fmt.Errorf("scan trip row: %w", err)
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trip rows: %w", err)
	}

	return trips, nil
}

func (r *tripRepository) CountByDriverID(ctx context.Context, driverID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM trips WHERE driver_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, driverID).Scan(&count); err != nil {
		r.log.Error("Failed to count trips by driver ID",
			zap.Error(err),
			zap.String("driver_id", driverID.String()),
		)
		return 0, fmt.Errorf("count trips by driver ID %s: %w", driverID.String(), err)
	}

	return count, nil
}

func (r *tripRepository) UpdateLocation(ctx context.Context, id, driverID uuid.UUID, lat, lng float64, at time.Time) error {
	query := `
		UPDATE trips
		SET current_lat = $3, current_lng = $4, location_updated_at = $5
		WHERE id = $1 AND driver_id = $2 AND status = 'in_progress'
	`

	result, err := r.db.Exec(ctx, query, id, driverID, lat, lng, at)
	if err != nil {
		r.log.Error("Failed to update trip location",
			zap.Error(err),
			zap.String("trip_id", id.String()),
		)
		return fmt.Errorf("update trip %s location: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return ErrConditionFailed
	}

	return nil
}

func (r *tripRepository) Complete(ctx context.Context, id, driverID uuid.UUID, at time.Time) (*entity.Trip, error) {
	query := `
		UPDATE trips
		SET status = 'completed', end_time = $3
		WHERE id = $1 AND driver_id = $2 AND status = 'in_progress'
		RETURNING ` + tripColumns

	trip, err := scanTrip(r.db.QueryRow(ctx, query, id, driverID, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConditionFailed
	}
	if err != nil {
		r.log.Error("Failed to complete trip",
			zap.Error(err),
			zap.String("trip_id", id.String()),
		)
		return nil, fmt.Errorf("complete trip %s: %w", id.String(), err)
	}

	return trip, nil
}

func scanTrip(row pgx.Row) (*entity.Trip, error) {
	var trip entity.Trip
	err := row.Scan(
		&trip.ID,
		&trip.ScheduleID,
		&trip.DriverID,
		&trip.Status,
		&trip.CurrentLat,
		&trip.CurrentLng,
		&trip.LocationUpdatedAt,
		&trip.StartTime,
		&trip.EndTime,
	)
	if err != nil {
		return nil, err
	}
	return &trip, nil
}
