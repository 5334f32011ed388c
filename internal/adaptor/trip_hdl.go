package adaptor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"shuttle-booking/internal/data/entity"
	"shuttle-booking/internal/dto/request"
	"shuttle-booking/internal/usecase"
	"shuttle-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = (livePongWait * 9) / 10
)

// Origins are already enforced by the CORS middleware and every socket
// carries a session token.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type TripHandler struct {
	service   usecase.TripService
	telemetry usecase.Telemetry
	log       *zap.Logger
}

func NewTripHandler(service usecase.TripService, telemetry usecase.Telemetry, log *zap.Logger) *TripHandler {
	return &TripHandler{
		service:   service,
		telemetry: telemetry,
		log:       log.With(zap.String("handler", "trip")),
	}
}

// StartTrip handles POST /api/driver/trips
func (h *TripHandler) StartTrip(w http.ResponseWriter, r *http.Request) {
	driverID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.StartTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	trip, err := h.service.StartTrip(r.Context(), driverID.String(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "start trip")
		return
	}

	utils.ResponseCreated(w, "Trip started", trip)
}

// UpdateLocation handles PUT /api/driver/trips/{id}/location
func (h *TripHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	driverID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.UpdateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	if err := h.service.UpdateLocation(r.Context(), driverID.String(), chi.URLParam(r, "id"), &req); err != nil {
		handleServiceError(w, h.log, err, "update trip location")
		return
	}

	utils.ResponseSuccess(w, "Location updated", nil)
}

// EndTrip handles PUT /api/driver/trips/{id}/end
func (h *TripHandler) EndTrip(w http.ResponseWriter, r *http.Request) {
	driverID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	trip, err := h.service.EndTrip(r.Context(), driverID.String(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "end trip")
		return
	}

	utils.ResponseSuccess(w, "Trip completed", trip)
}

// GetMyTrips handles GET /api/driver/trips
func (h *TripHandler) GetMyTrips(w http.ResponseWriter, r *http.Request) {
	driverID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	req := request.PageFromQuery(r.URL.Query())

	trips, err := h.service.GetDriverTrips(r.Context(), driverID.String(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "get driver trips")
		return
	}

	utils.ResponseSuccess(w, "success", trips)
}

// GetTrip handles GET /api/trips/{id}
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := h.service.GetTrip(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get trip")
		return
	}

	utils.ResponseSuccess(w, "success", trip)
}

// Live handles GET /api/trips/{id}/live. It upgrades to a websocket and
// pushes every location the driver reports until either side goes away.
func (h *TripHandler) Live(w http.ResponseWriter, r *http.Request) {
	trip, err := h.service.GetTrip(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "watch trip")
		return
	}
	if trip.Status == entity.TripStatusCompleted {
		utils.ResponseConflict(w, "trip already completed")
		return
	}
	tripID := uuid.MustParse(trip.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	locations, err := h.telemetry.Subscribe(ctx, tripID)
	if errors.Is(err, usecase.ErrTelemetryDisabled) {
		utils.ResponseServiceUnavailable(w, "Live tracking is not enabled")
		return
	}
	if err != nil {
		h.log.Error("Failed to subscribe to trip feed", zap.Error(err), zap.String("trip_id", trip.ID))
		utils.ResponseServiceUnavailable(w, "Live tracking temporarily unavailable")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.log.Warn("Websocket upgrade failed", zap.Error(err), zap.String("trip_id", trip.ID))
		return
	}
	defer conn.Close()

	h.log.Debug("Live feed opened", zap.String("trip_id", trip.ID))

	go readUntilClosed(conn, cancel)

	if latest, err := h.telemetry.Latest(ctx, tripID); err != nil {
		h.log.Warn("Failed to read last trip location", zap.Error(err), zap.String("trip_id", trip.ID))
	} else if latest != nil {
		if err := writeLocation(conn, *latest); err != nil {
			return
		}
	}

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug("Live feed closed", zap.String("trip_id", trip.ID))
			return
		case loc, ok := <-locations:
			if !ok {
				return
			}
			if err := writeLocation(conn, loc); err != nil {
				h.log.Debug("Live feed write failed", zap.Error(err), zap.String("trip_id", trip.ID))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeLocation(conn *websocket.Conn, loc entity.TripLocation) error {
	conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return conn.WriteJSON(loc)
}

// readUntilClosed drains client frames so pongs and close frames are
// processed, and cancels the feed once the peer disconnects.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
