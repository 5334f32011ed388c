package wire

import (
	"shuttle-booking/internal/adaptor"
	"shuttle-booking/internal/data/entity"
	"shuttle-booking/internal/data/repository"
	"shuttle-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireTrip(
	r chi.Router,
	tripHandler *adaptor.TripHandler,
	boardingHandler *adaptor.BoardingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== DRIVER ROUTES ====================
	r.Route("/api/driver", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))
		r.Use(middleware.RequireRole(log, entity.RoleDriver))

		r.Post("/trips", tripHandler.StartTrip)
		r.Get("/trips", tripHandler.GetMyTrips)
		r.Put("/trips/{id}/location", tripHandler.UpdateLocation)
		r.Put("/trips/{id}/end", tripHandler.EndTrip)

		// POST /api/driver/scan - Verify a presented ticket at the door
		r.Post("/scan", boardingHandler.Scan)
	})

	// ==================== AUTHENTICATED ROUTES ====================
	r.With(middleware.AuthSession(repo.Session, log)).Get("/api/trips/{id}", tripHandler.GetTrip)
}

func wireLive(
	r chi.Router,
	tripHandler *adaptor.TripHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// GET /api/trips/{id}/live - websocket feed of driver locations
	r.With(middleware.AuthSession(repo.Session, log)).Get("/api/trips/{id}/live", tripHandler.Live)
}
