// internal/wire/wire.go
package wire

import (
	"context"
	"net/http"
	"time"

	"shuttle-booking/internal/adaptor"
	"shuttle-booking/internal/data/repository"
	"shuttle-booking/internal/usecase"
	"shuttle-booking/pkg/database"
	"shuttle-booking/pkg/middleware"
	"shuttle-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the wired router and the services behind it.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and routes. cache may be nil.
func Wiring(db database.PgxIface, repo *repository.Repository, cache *redis.Client, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, cache, config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, db, repo, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	db database.PgxIface,
	repo *repository.Repository,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.AllowedOrigins))

	// Long-lived sockets stay outside the request timeout.
	wireLive(r, handler.Trip, repo, logger)

	r.Group(func(r chi.Router) {
		if config.App.RequestTimeout > 0 {
			r.Use(chimw.Timeout(config.App.RequestTimeout))
		}

		wireAuth(r, handler.Auth, repo, logger)
		wireBooking(r, handler.Booking, repo, logger)
		wireTrip(r, handler.Trip, handler.Boarding, repo, logger)

		r.Get("/health", health(db, logger))
	})

	return r
}

func health(db database.PgxIface, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Warn("Health check failed", zap.Error(err))
			utils.ResponseServiceUnavailable(w, "database unreachable")
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}
