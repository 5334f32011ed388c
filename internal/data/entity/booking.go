package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusBoarded   BookingStatus = "boarded"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking owns exactly one ticket code for its whole lifetime. Rows are never
// deleted; cancellation is a status change.
type Booking struct {
	Base
	StudentID        uuid.UUID     `db:"student_id"`
	ScheduleID       uuid.UUID     `db:"schedule_id"`
	TicketCode       string        `db:"ticket_code"`
	PickupStopIndex  int           `db:"pickup_stop_index"`
	DropoffStopIndex int           `db:"dropoff_stop_index"`
	Status           BookingStatus `db:"status"`
	BoardedAt        *time.Time    `db:"boarded_at"`
	CancelledAt      *time.Time    `db:"cancelled_at"`
}

// CanTransitionTo reports whether next is a legal edge from the current status.
func (b *Booking) CanTransitionTo(next BookingStatus) bool {
	return b.Status == BookingStatusConfirmed &&
		(next == BookingStatusBoarded || next == BookingStatusCancelled)
}

// Ticket is the boarding credential view of a booking.
type Ticket struct {
	TicketCode string
	BookingID  uuid.UUID
	IssuedAt   time.Time
}

func (b *Booking) Ticket() Ticket {
	return Ticket{
		TicketCode: b.TicketCode,
		BookingID:  b.ID,
		IssuedAt:   b.CreatedAt,
	}
}
