package usecase

import (
	"context"
	"errors"
	"strings"

	"shuttle-booking/internal/dto/response"

	"go.uber.org/zap"
)

// BoardingService checks a scanned ticket and consumes it in one step.
type BoardingService interface {
	Verify(ctx context.Context, ticketCode string) (*response.BoardingResponse, error)
}

type boardingService struct {
	ledger BookingService
	log    *zap.Logger
}

func NewBoardingService(ledger BookingService, log *zap.Logger) BoardingService {
	return &boardingService{
		ledger: ledger,
		log:    log.With(zap.String("service", "boarding")),
	}
}

// Verify returns a rejection reason as a normal result. The error is reserved
// for storage failures the scanner may retry.
func (s *boardingService) Verify(ctx context.Context, ticketCode string) (*response.BoardingResponse, error) {
	ticketCode = strings.TrimSpace(ticketCode)
	if ticketCode == "" {
		return response.RejectBoarding(response.ReasonNotFound), nil
	}

	booking, err := s.ledger.MarkBoarded(ctx, ticketCode)

	var reason response.BoardingReason
	switch {
	case err == nil:
		return response.AcceptBoarding(booking), nil
	case errors.Is(err, ErrTicketNotFound):
		reason = response.ReasonNotFound
	case errors.Is(err, ErrBookingCancelled):
		reason = response.ReasonCancelled
	case errors.Is(err, ErrAlreadyBoarded):
		reason = response.ReasonAlreadyBoarded
	default:
		s.log.Error("Boarding verification failed", zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{zap.String("reason", string(reason))}
	if booking != nil {
		fields = append(fields, zap.String("booking_id", booking.ID.String()))
	}
	s.log.Info("Boarding rejected", fields...)

	return response.RejectBoarding(reason), nil
}
