package adaptor

import (
	"encoding/json"
	"net/http"

	"shuttle-booking/internal/data/entity"
	"shuttle-booking/internal/dto/request"
	"shuttle-booking/internal/dto/response"
	"shuttle-booking/internal/usecase"
	"shuttle-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrImageSize = 256

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/bookings (student)
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), userID.String(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking confirmed", booking)
}

// GetMyBookings handles GET /api/bookings (student)
func (h *BookingHandler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	req := request.PageFromQuery(r.URL.Query())

	bookings, err := h.service.GetStudentBookings(r.Context(), userID.String(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "get student bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetBooking handles GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, ok := h.visibleBooking(w, r)
	if !ok {
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// GetTicketQR handles GET /api/bookings/{id}/qr and returns a PNG of the ticket code.
func (h *BookingHandler) GetTicketQR(w http.ResponseWriter, r *http.Request) {
	booking, ok := h.visibleBooking(w, r)
	if !ok {
		return
	}

	png, err := qrcode.Encode(booking.TicketCode, qrcode.Medium, qrImageSize)
	if err != nil {
		h.log.Error("Failed to render ticket QR", zap.Error(err), zap.String("booking_id", booking.ID))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// CancelBooking handles PUT /api/bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.visibleBooking(w, r); !ok {
		return
	}

	booking, err := h.service.CancelBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "Booking cancelled", booking)
}

// visibleBooking loads the {id} booking and enforces that students only
// reach their own. Staff roles see every booking.
func (h *BookingHandler) visibleBooking(w http.ResponseWriter, r *http.Request) (*response.BookingResponse, bool) {
	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		utils.ResponseBadRequest(w, "Booking ID is required", nil)
		return nil, false
	}

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return nil, false
	}

	booking, err := h.service.GetBooking(r.Context(), bookingID)
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return nil, false
	}

	role, _ := utils.GetRoleFromContext(r.Context())
	if role == string(entity.RoleStudent) && booking.StudentID != userID.String() {
		// same answer as a missing booking so ids cannot be probed
		utils.ResponseNotFound(w, "booking not found")
		return nil, false
	}

	return booking, true
}
