package response

import (
	"time"

	"shuttle-booking/internal/data/entity"
)

type BookingResponse struct {
	ID               string               `json:"id"`
	StudentID        string               `json:"student_id"`
	ScheduleID       string               `json:"schedule_id"`
	TicketCode       string               `json:"ticket_code"`
	PickupStopIndex  int                  `json:"pickup_stop_index"`
	DropoffStopIndex int                  `json:"dropoff_stop_index"`
	Status           entity.BookingStatus `json:"status"`
	BoardedAt        *time.Time           `json:"boarded_at,omitempty"`
	CancelledAt      *time.Time           `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

// CreateBookingResponse is what a rider gets back after reserving a seat.
type CreateBookingResponse struct {
	BookingID  string          `json:"booking_id"`
	TicketCode string          `json:"ticket_code"`
	IssuedAt   time.Time       `json:"issued_at"`
	Booking    BookingResponse `json:"booking"`
}

type BoardingReason string

const (
	ReasonNotFound       BoardingReason = "NotFound"
	ReasonCancelled      BoardingReason = "Cancelled"
	ReasonAlreadyBoarded BoardingReason = "AlreadyBoarded"
)

// BoardingResponse is a scan outcome. Rejections are results, not errors.
type BoardingResponse struct {
	Accepted bool             `json:"accepted"`
	Reason   BoardingReason   `json:"reason,omitempty"`
	Message  string           `json:"message"`
	Booking  *BookingResponse `json:"booking,omitempty"`
}

func BookingToResponse(booking *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:               booking.ID.String(),
		StudentID:        booking.StudentID.String(),
		ScheduleID:       booking.ScheduleID.String(),
		TicketCode:       booking.TicketCode,
		PickupStopIndex:  booking.PickupStopIndex,
		DropoffStopIndex: booking.DropoffStopIndex,
		Status:           booking.Status,
		BoardedAt:        booking.BoardedAt,
		CancelledAt:      booking.CancelledAt,
		CreatedAt:        booking.CreatedAt,
	}
}

func AcceptBoarding(booking *entity.Booking) *BoardingResponse {
	resp := BookingToResponse(booking)
	return &BoardingResponse{
		Accepted: true,
		Message:  "Boarding accepted",
		Booking:  &resp,
	}
}

func RejectBoarding(reason BoardingReason) *BoardingResponse {
	return &BoardingResponse{
		Accepted: false,
		Reason:   reason,
		Message:  reason.Message(),
	}
}

// Message is the text shown on the driver's scanner.
func (r BoardingReason) Message() string {
	switch r {
	case ReasonNotFound:
		return "Ticket not recognised"
	case ReasonCancelled:
		return "Booking was cancelled"
	case ReasonAlreadyBoarded:
		return "Ticket already used"
	default:
		return "Ticket rejected"
	}
}
