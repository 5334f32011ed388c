package entity

import (
	"time"

	"github.com/google/uuid"
)

// Schedule is one planned departure. It is owned by the route catalog and is
// read-only here.
type Schedule struct {
	ID            uuid.UUID  `db:"id"`
	RouteID       uuid.UUID  `db:"route_id"`
	RouteName     string     `db:"route_name"`
	ShuttleID     *uuid.UUID `db:"shuttle_id"`
	DriverID      *uuid.UUID `db:"driver_id"`
	DepartureTime time.Time  `db:"departure_time"`
	StopCount     int        `db:"stop_count"`
}

// ValidStop reports whether index addresses a stop on the schedule's route.
func (s *Schedule) ValidStop(index int) bool {
	return index >= 0 && index < s.StopCount
}
