package repository

import (
	"shuttle-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User     UserRepository
	Session  SessionRepository
	Schedule ScheduleRepository
	Booking  BookingRepository
	Trip     TripRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:     NewUserRepository(db, log),
		Session:  NewSessionRepository(db, log),
		Schedule: NewScheduleRepository(db, log),
		Booking:  NewBookingRepository(db, log),
		Trip:     NewTripRepository(db, log),
	}
}
