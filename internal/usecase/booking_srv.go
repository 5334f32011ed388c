package usecase

import (
	"context"
	"errors"
	"fmt"
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

// BookingService is the booking ledger. Every status change is a single
// conditional update in storage; nothing here reads a status and then writes.
type BookingService interface {
	CreateBooking(ctx context.Context, studentID string, req *request.CreateBookingRequest) (*response.CreateBookingResponse, error)
	CancelBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	MarkBoarded(ctx context.Context, ticketCode string) (*entity.Booking, error)

	GetBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	GetStudentBookings(ctx context.Context, studentID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
}

type bookingService struct {
	repo       repository.BookingRepository
	schedules  ScheduleRegistry
	issuer     TicketIssuer
	maxRetries int
	now        func() time.Time
	log        *zap.Logger
}

func NewBookingService(
	repo repository.BookingRepository,
	schedules ScheduleRegistry,
	issuer TicketIssuer,
	maxRetries int,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		repo:       repo,
		schedules:  schedules,
		issuer:     issuer,
		maxRetries: maxRetries,
		now:        time.Now,
		log:        log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, studentID string, req *request.CreateBookingRequest) (*response.CreateBookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	studentUUID, err := uuid.Parse(studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: student ID %q", ErrValidation, studentID)
	}

	scheduleID, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("%w: schedule ID %q", ErrValidation, req.ScheduleID)
	}

	schedule, err := s.schedules.LookupSchedule(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, ErrScheduleNotFound) {
			s.log.Warn("Booking against unknown schedule", zap.String("schedule_id", req.ScheduleID))
		}
		return nil, err
	}

	pickup, dropoff := *req.PickupStopIndex, *req.DropoffStopIndex
	if !schedule.ValidStop(pickup) || !schedule.ValidStop(dropoff) {
		s.log.Warn("Booking with invalid stops",
			zap.String("schedule_id", req.ScheduleID),
			zap.Int("pickup", pickup),
			zap.Int("dropoff", dropoff),
			zap.Int("stop_count", schedule.StopCount),
		)
		return nil, fmt.Errorf("%w: pickup %d, dropoff %d on a route with %d stops",
			ErrInvalidStop, pickup, dropoff, schedule.StopCount)
	}

	now := s.now()
	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		StudentID:        studentUUID,
		ScheduleID:       scheduleID,
		PickupStopIndex:  pickup,
		DropoffStopIndex: dropoff,
		Status:           entity.BookingStatusConfirmed,
	}

	_, err = s.issuer.Issue(ctx, booking.ID, func(code string) error {
		booking.TicketCode = code
		return s.retry(ctx, func() error {
			return s.repo.Create(ctx, booking)
		})
	})
	if err != nil {
		s.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("student_id", studentID),
			zap.String("schedule_id", req.ScheduleID),
		)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("student_id", studentID),
		zap.String("schedule_id", req.ScheduleID),
	)

	ticket := booking.Ticket()
	return &response.CreateBookingResponse{
		BookingID:  ticket.BookingID.String(),
		TicketCode: ticket.TicketCode,
		IssuedAt:   ticket.IssuedAt,
		Booking:    response.BookingToResponse(booking),
	}, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: booking ID %q", ErrValidation, bookingID)
	}

	var booking *entity.Booking
	err = s.retry(ctx, func() error {
		var err error
		booking, err = s.repo.Cancel(ctx, id, s.now())
		return err
	})

	if errors.Is(err, repository.ErrConditionFailed) {
		current, findErr := s.findByID(ctx, id)
		if findErr != nil {
			return nil, findErr
		}
		if current == nil {
			return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
		}
		s.log.Warn("Cancel rejected",
			zap.String("booking_id", bookingID),
			zap.String("status", string(current.Status)),
		)
		return nil, fmt.Errorf("%w: booking %s is %s", ErrInvalidTransition, bookingID, current.Status)
	}
	if err != nil {
		return nil, fmt.Errorf("cancel booking %s: %w", bookingID, err)
	}

	s.log.Info("Booking cancelled", zap.String("booking_id", bookingID))

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// MarkBoarded consumes a ticket. Of any number of concurrent calls for the
// same code, exactly one wins the conditional update; the rest are told why.
func (s *bookingService) MarkBoarded(ctx context.Context, ticketCode string) (*entity.Booking, error) {
	var booking *entity.Booking
	err := s.retry(ctx, func() error {
		var err error
		booking, err = s.repo.MarkBoarded(ctx, ticketCode, s.now())
		return err
	})
	if err == nil {
		s.log.Info("Booking boarded",
			zap.String("booking_id", booking.ID.String()),
			zap.String("schedule_id", booking.ScheduleID.String()),
		)
		return booking, nil
	}
	if !errors.Is(err, repository.ErrConditionFailed) {
		return nil, fmt.Errorf("mark boarded: %w", err)
	}

	// Both non-confirmed states are terminal, so this read cannot race back
	// to confirmed.
	var current *entity.Booking
	err = s.retry(ctx, func() error {
		var err error
		current, err = s.repo.FindByTicketCode(ctx, ticketCode)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("classify boarding rejection: %w", err)
	}

	switch {
	case current == nil:
		return nil, ErrTicketNotFound
	case current.Status == entity.BookingStatusCancelled:
		return current, ErrBookingCancelled
	case current.Status == entity.BookingStatusBoarded:
		return current, ErrAlreadyBoarded
	default:
		// Row became visible after the update ran; the ticket did not exist
		// when it was presented.
		return nil, ErrTicketNotFound
	}
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: booking ID %q", ErrValidation, bookingID)
	}

	booking, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetStudentBookings(ctx context.Context, studentID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	studentUUID, err := uuid.Parse(studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: student ID %q", ErrValidation, studentID)
	}

	var (
		bookings []*entity.Booking
		total    int64
	)
	err = s.retry(ctx, func() error {
		var err error
		if bookings, err = s.repo.FindByStudentID(ctx, studentUUID, req.Limit(), req.Offset()); err != nil {
			return err
		}
		total, err = s.repo.CountByStudentID(ctx, studentUUID)
		return err
	})
	if err != nil {
		s.log.Error("Failed to get student bookings",
			zap.Error(err),
			zap.String("student_id", studentID),
		)
		return nil, fmt.Errorf("get student bookings: %w", err)
	}

	return response.NewPage(bookings, response.BookingToResponse, req.Page, req.Limit(), total), nil
}

func (s *bookingService) findByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	var booking *entity.Booking
	err := s.retry(ctx, func() error {
		var err error
		booking, err = s.repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find booking %s: %w", id.String(), err)
	}
	return booking, nil
}

func (s *bookingService) retry(ctx context.Context, op func() error) error {
	return database.Retry(ctx, s.maxRetries, op)
}
