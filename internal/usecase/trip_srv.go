package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"shuttle-booking/internal/data/entity"
	"shuttle-booking/internal/data/repository"
	"shuttle-booking/internal/dto/request"
	"shuttle-booking/internal/dto/response"
	"shuttle-booking/pkg/database"
	"shuttle-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TripService drives a trip from in_progress to completed. A trip row only
// exists once started, and completed trips accept no further writes.
type TripService interface {
	StartTrip(ctx context.Context, driverID string, req *request.StartTripRequest) (*response.TripResponse, error)
	UpdateLocation(ctx context.Context, driverID, tripID string, req *request.UpdateLocationRequest) error
	EndTrip(ctx context.Context, driverID, tripID string) (*response.TripResponse, error)

	GetTrip(ctx context.Context, tripID string) (*response.TripResponse, error)
	GetDriverTrips(ctx context.Context, driverID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.TripResponse], error)
}

type tripService struct {
	repo       repository.TripRepository
	schedules  ScheduleRegistry
	telemetry  Telemetry
	maxRetries int
	now        func() time.Time
	log        *zap.Logger
}

func NewTripService(
	repo repository.TripRepository,
	schedules ScheduleRegistry,
	telemetry Telemetry,
	maxRetries int,
	log *zap.Logger,
) TripService {
	return &tripService{
		repo:       repo,
		schedules:  schedules,
		telemetry:  telemetry,
		maxRetries: maxRetries,
		now:        time.Now,
		log:        log.With(zap.String("service", "trip")),
	}
}

func (s *tripService) StartTrip(ctx context.Context, driverID string, req *request.StartTripRequest) (*response.TripResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	driverUUID, err := uuid.Parse(driverID)
	if err != nil {
		return nil, fmt.Errorf("%w: driver ID %q", ErrValidation, driverID)
	}

	scheduleID, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("%w: schedule ID %q", ErrValidation, req.ScheduleID)
	}

	schedule, err := s.schedules.LookupSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	if schedule.DriverID != nil && *schedule.DriverID != driverUUID {
		s.log.Warn("Trip start by unassigned driver",
			zap.String("schedule_id", req.ScheduleID),
			zap.String("driver_id", driverID),
		)
		return nil, ErrNotScheduleDriver
	}

	trip := &entity.Trip{
		ID:         uuid.New(),
		ScheduleID: scheduleID,
		DriverID:   driverUUID,
		Status:     entity.TripStatusInProgress,
		StartTime:  s.now(),
	}

	err = s.retry(ctx, func() error {
		return s.repo.Create(ctx, trip)
	})
	if errors.Is(err, repository.ErrActiveTripExists) {
		s.log.Warn("Duplicate trip start rejected",
			zap.String("schedule_id", req.ScheduleID),
			zap.String("driver_id", driverID),
		)
		return nil, fmt.Errorf("%w: schedule %s", ErrTripAlreadyActive, req.ScheduleID)
	}
	if err != nil {
		return nil, fmt.Errorf("start trip: %w", err)
	}

	s.log.Info("Trip started",
		zap.String("trip_id", trip.ID.String()),
		zap.String("schedule_id", req.ScheduleID),
		zap.String("driver_id", driverID),
	)

	resp := response.TripToResponse(trip)
	return &resp, nil
}

func (s *tripService) UpdateLocation(ctx context.Context, driverID, tripID string, req *request.UpdateLocationRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidLocation, utils.FormatValidationErrors(errs))
	}
	lat, lng := *req.Lat, *req.Lng
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return ErrInvalidLocation
	}

	id, driverUUID, err := parseTripIDs(tripID, driverID)
	if err != nil {
		return err
	}

	at := s.now()
	err = s.retry(ctx, func() error {
		return s.repo.UpdateLocation(ctx, id, driverUUID, lat, lng, at)
	})
	if errors.Is(err, repository.ErrConditionFailed) {
		return s.classifyRejected(ctx, id, driverUUID)
	}
	if err != nil {
		return fmt.Errorf("update trip %s location: %w", tripID, err)
	}

	// Live feed is best effort; the row above is already written.
	loc := entity.TripLocation{TripID: id, Lat: lat, Lng: lng, RecordedAt: at}
	if err := s.telemetry.Publish(ctx, loc); err != nil {
		s.log.Warn("Failed to publish trip location", zap.Error(err), zap.String("trip_id", tripID))
	}

	s.log.Debug("Trip location updated",
		zap.String("trip_id", tripID),
		zap.Float64("lat", lat),
		zap.Float64("lng", lng),
	)
	return nil
}

func (s *tripService) EndTrip(ctx context.Context, driverID, tripID string) (*response.TripResponse, error) {
	id, driverUUID, err := parseTripIDs(tripID, driverID)
	if err != nil {
		return nil, err
	}

	var trip *entity.Trip
	err = s.retry(ctx, func() error {
		var err error
		trip, err = s.repo.Complete(ctx, id, driverUUID, s.now())
		return err
	})
	if errors.Is(err, repository.ErrConditionFailed) {
		return nil, s.classifyRejected(ctx, id, driverUUID)
	}
	if err != nil {
		return nil, fmt.Errorf("end trip %s: %w", tripID, err)
	}

	s.log.Info("Trip completed",
		zap.String("trip_id", tripID),
		zap.String("schedule_id", trip.ScheduleID.String()),
	)

	resp := response.TripToResponse(trip)
	return &resp, nil
}

func (s *tripService) GetTrip(ctx context.Context, tripID string) (*response.TripResponse, error) {
	id, err := uuid.Parse(tripID)
	if err != nil {
		return nil, fmt.Errorf("%w: trip ID %q", ErrValidation, tripID)
	}

	trip, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, fmt.Errorf("%w: %s", ErrTripNotFound, tripID)
	}

	resp := response.TripToResponse(trip)
	return &resp, nil
}

func (s *tripService) GetDriverTrips(ctx context.Context, driverID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.TripResponse], error) {
	driverUUID, err := uuid.Parse(driverID)
	if err != nil {
		return nil, fmt.Errorf("%w: driver ID %q", ErrValidation, driverID)
	}

	var (
		trips []*entity.Trip
		total int64
	)
	err = s.retry(ctx, func() error {
		var err error
		if trips, err = s.repo.FindByDriverID(ctx, driverUUID, req.Limit(), req.Offset()); err != nil {
			return err
		}
		total, err = s.repo.CountByDriverID(ctx, driverUUID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get driver trips: %w", err)
	}

	return response.NewPage(trips, response.TripToResponse, req.Page, req.Limit(), total), nil
}

// classifyRejected explains why a guarded trip update matched nothing.
// driver_id and a completed status never change, so the read is stable.
func (s *tripService) classifyRejected(ctx context.Context, id, driverID uuid.UUID) error {
	trip, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}

	switch {
	case trip == nil:
		return fmt.Errorf("%w: %s", ErrTripNotFound, id.String())
	case trip.DriverID != driverID:
		s.log.Warn("Trip write by another driver",
			zap.String("trip_id", id.String()),
			zap.String("driver_id", driverID.String()),
		)
		return fmt.Errorf("%w: trip %s belongs to another driver", ErrForbidden, id.String())
	default:
		s.log.Warn("Write to inactive trip rejected",
			zap.String("trip_id", id.String()),
			zap.String("status", string(trip.Status)),
		)
		return fmt.Errorf("%w: trip %s is %s", ErrTripNotActive, id.String(), trip.Status)
	}
}

func (s *tripService) findByID(ctx context.Context, id uuid.UUID) (*entity.Trip, error) {
	var trip *entity.Trip
	err := s.retry(ctx, func() error {
		var err error
		trip, err = s.repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find trip %s: %w", id.String(), err)
	}
	return trip, nil
}

func (s *tripService) retry(ctx context.Context, op func() error) error {
	return database.Retry(ctx, s.maxRetries, op)
}

func parseTripIDs(tripID, driverID string) (uuid.UUID, uuid.UUID, error) {
	id, err := uuid.Parse(tripID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: trip ID %q", ErrValidation, tripID)
	}
	driverUUID, err := uuid.Parse(driverID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: driver ID %q", ErrValidation, driverID)
	}
	return id, driverUUID, nil
}
