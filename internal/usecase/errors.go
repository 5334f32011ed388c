package usecase

import (
	"errors"

	"shuttle-booking/pkg/database"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrScheduleNotFound   = errors.New("schedule not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrTripNotFound       = errors.New("trip not found")
	ErrInvalidStop        = errors.New("invalid stop index")
	ErrInvalidLocation    = errors.New("invalid location")
	ErrInvalidTransition  = errors.New("invalid booking state transition")
	ErrAlreadyBoarded     = errors.New("ticket already boarded")
	ErrBookingCancelled   = errors.New("booking is cancelled")
	ErrTripAlreadyActive  = errors.New("trip already active for schedule")
	ErrTripNotActive      = errors.New("trip is not active")
	ErrNotScheduleDriver  = errors.New("driver is not assigned to schedule")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnauthorized       = errors.New("unauthorized")

	// ErrIssuanceExhausted means every generated ticket code collided. With
	// 122-bit codes this signals a broken generator, not bad luck.
	ErrIssuanceExhausted = errors.New("ticket issuance exhausted")

	// ErrStorageUnavailable wraps transient storage failures that outlasted
	// the retry budget.
	ErrStorageUnavailable = database.ErrUnavailable
)

// IsNotFound groups the lookup failures that map to a 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrTicketNotFound) ||
		errors.Is(err, ErrTripNotFound)
}
