package request

// Stop indices are pointers so that a legitimate 0 passes "required".
type CreateBookingRequest struct {
	ScheduleID       string `json:"schedule_id" validate:"required,uuid"`
	PickupStopIndex  *int   `json:"pickup_stop_index" validate:"required,gte=0"`
	DropoffStopIndex *int   `json:"dropoff_stop_index" validate:"required,gte=0"`
}

type VerifyBoardingRequest struct {
	TicketCode string `json:"ticket_code" validate:"required,max=128"`
}
