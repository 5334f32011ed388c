package request

type StartTripRequest struct {
	ScheduleID string `json:"schedule_id" validate:"required,uuid"`
}

type UpdateLocationRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}
