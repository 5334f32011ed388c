package response

import (
	"time"

	"shuttle-booking/internal/data/entity"
)

type TripResponse struct {
	ID                string            `json:"id"`
	ScheduleID        string            `json:"schedule_id"`
	DriverID          string            `json:"driver_id"`
	Status            entity.TripStatus `json:"status"`
	CurrentLat        *float64          `json:"current_lat,omitempty"`
	CurrentLng        *float64          `json:"current_lng,omitempty"`
	LocationUpdatedAt *time.Time        `json:"location_updated_at,omitempty"`
	StartTime         time.Time         `json:"start_time"`
	EndTime           *time.Time        `json:"end_time,omitempty"`
}

func TripToResponse(trip *entity.Trip) TripResponse {
	return TripResponse{
		ID:                trip.ID.String(),
		ScheduleID:        trip.ScheduleID.String(),
		DriverID:          trip.DriverID.String(),
		Status:            trip.Status,
		CurrentLat:        trip.CurrentLat,
		CurrentLng:        trip.CurrentLng,
		LocationUpdatedAt: trip.LocationUpdatedAt,
		StartTime:         trip.StartTime,
		EndTime:           trip.EndTime,
	}
}
