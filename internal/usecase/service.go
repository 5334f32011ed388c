package usecase

import (
	"shuttle-booking/internal/data/repository"
	"shuttle-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Service struct {
	Auth      AuthService
	Schedule  ScheduleRegistry
	Booking   BookingService
	Boarding  BoardingService
	Trip      TripService
	Telemetry Telemetry
}

// NewService wires the core. cache may be nil, which disables the schedule
// cache and the live trip feed.
func NewService(repo *repository.Repository, cache *redis.Client, config *utils.Config, log *zap.Logger) *Service {
	retries := config.Database.MaxRetries

	schedules := NewScheduleRegistry(repo.Schedule, cache, retries, log)
	telemetry := NewTelemetry(cache, log)
	issuer := NewTicketIssuer(RandomCode, config.Booking.TicketMaxAttempts, log)
	booking := NewBookingService(repo.Booking, schedules, issuer, retries, log)

	return &Service{
		Auth:      NewAuthService(repo.User, repo.Session, config, log),
		Schedule:  schedules,
		Booking:   booking,
		Boarding:  NewBoardingService(booking, log),
		Trip:      NewTripService(repo.Trip, schedules, telemetry, retries, log),
		Telemetry: telemetry,
	}
}
