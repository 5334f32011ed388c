package entity

import (
	"time"

	"github.com/google/uuid"
)

type TripStatus string

const (
	TripStatusNotStarted TripStatus = "not_started"
	TripStatusInProgress TripStatus = "in_progress"
	TripStatusCompleted  TripStatus = "completed"
)

// Trip is the live execution of one schedule. A row exists only once the
// driver has started it.
type Trip struct {
	ID                uuid.UUID  `db:"id"`
	ScheduleID        uuid.UUID  `db:"schedule_id"`
	DriverID          uuid.UUID  `db:"driver_id"`
	Status            TripStatus `db:"status"`
	CurrentLat        *float64   `db:"current_lat"`
	CurrentLng        *float64   `db:"current_lng"`
	LocationUpdatedAt *time.Time `db:"location_updated_at"`
	StartTime         time.Time  `db:"start_time"`
	EndTime           *time.Time `db:"end_time"`
}

// TripLocation is a single telemetry sample.
type TripLocation struct {
	TripID     uuid.UUID `json:"trip_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recorded_at"`
}
