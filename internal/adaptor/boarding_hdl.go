package adaptor

import (
	"encoding/json"
	"net/http"

	"shuttle-booking/internal/dto/request"
	"shuttle-booking/internal/usecase"
	"shuttle-booking/pkg/utils"

	"go.uber.org/zap"
)

type BoardingHandler struct {
	service usecase.BoardingService
	log     *zap.Logger
}

func NewBoardingHandler(service usecase.BoardingService, log *zap.Logger) *BoardingHandler {
	return &BoardingHandler{
		service: service,
		log:     log.With(zap.String("handler", "boarding")),
	}
}

// Scan handles POST /api/driver/scan. Accepted and rejected tickets are both
// 200 responses; the scanner reads "accepted" and "reason".
func (h *BoardingHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyBoardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	result, err := h.service.Verify(r.Context(), req.TicketCode)
	if err != nil {
		handleServiceError(w, h.log, err, "verify boarding")
		return
	}

	utils.ResponseSuccess(w, result.Message, result)
}
