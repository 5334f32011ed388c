package repository

import "errors"

var (
	// ErrDuplicateTicket means the ticket code unique index rejected an insert.
	ErrDuplicateTicket = errors.New("ticket code already issued")

	// ErrActiveTripExists means the schedule already has a non-completed trip.
	ErrActiveTripExists = errors.New("schedule already has an active trip")

	// ErrConditionFailed means a conditional update matched no row: either the
	// row is missing or it is not in the expected state.
	ErrConditionFailed = errors.New("conditional update matched no row")
)

const (
	bookingTicketCodeKey  = "bookings_ticket_code_key"
	tripActiveScheduleKey = "trips_active_schedule_key"
)
