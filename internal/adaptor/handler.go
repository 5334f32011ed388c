package adaptor

import (
	"shuttle-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Auth     *AuthHandler
	Booking  *BookingHandler
	Boarding *BoardingHandler
	Trip     *TripHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(service.Auth, log),
		Booking:  NewBookingHandler(service.Booking, log),
		Boarding: NewBoardingHandler(service.Boarding, log),
		Trip:     NewTripHandler(service.Trip, service.Telemetry, log),
	}
}
