package wire

import (
	"shuttle-booking/internal/adaptor"
	"shuttle-booking/internal/data/entity"
	"shuttle-booking/internal/data/repository"
	"shuttle-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// ==================== STUDENT ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(log, entity.RoleStudent))

			// POST /api/bookings - Reserve a seat and receive a ticket code
			r.Post("/", bookingHandler.CreateBooking)

			// GET /api/bookings - Own booking history
			r.Get("/", bookingHandler.GetMyBookings)

			// PUT /api/bookings/{id}/cancel - Cancel an own confirmed booking
			r.Put("/{id}/cancel", bookingHandler.CancelBooking)
		})

		// ==================== SHARED ROUTES ====================
		// Students see their own bookings; staff see any.
		r.Get("/{id}", bookingHandler.GetBooking)
		r.Get("/{id}/qr", bookingHandler.GetTicketQR)
	})
}
