package adaptor

import (
	"context"
	"net/http"

	"shuttle-booking/internal/data/entity"
	"shuttle-booking/internal/dto/request"
	"shuttle-booking/internal/dto/response"
	"shuttle-booking/pkg/utils"

	"github.com/google/uuid"
)

type stubBookingService struct {
	booking *response.BookingResponse
	err     error
}

func (s *stubBookingService) CreateBooking(context.Context, string, *request.CreateBookingRequest) (*response.CreateBookingResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &response.CreateBookingResponse{BookingID: s.booking.ID, TicketCode: s.booking.TicketCode, Booking: *s.booking}, nil
}

func (s *stubBookingService) CancelBooking(context.Context, string) (*response.BookingResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	cancelled := *s.booking
	cancelled.Status = entity.BookingStatusCancelled
	return &cancelled, nil
}

func (s *stubBookingService) MarkBoarded(context.Context, string) (*entity.Booking, error) {
	return nil, s.err
}

func (s *stubBookingService) GetBooking(context.Context, string) (*response.BookingResponse, error) {
	return s.booking, s.err
}

func (s *stubBookingService) GetStudentBookings(_ context.Context, _ string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	return response.NewPaginatedResponse([]response.BookingResponse{*s.booking}, req.Page, req.Limit(), 1), s.err
}

type stubBoardingService struct {
	result *response.BoardingResponse
	err    error
	codes  []string
}

func (s *stubBoardingService) Verify(_ context.Context, code string) (*response.BoardingResponse, error) {
	s.codes = append(s.codes, code)
	return s.result, s.err
}

// asUser attaches a session to req the way AuthSession does.
func asUser(req *http.Request, userID uuid.UUID, role entity.UserRole) *http.Request {
	return req.WithContext(utils.SetUserContext(req.Context(), userID, string(role)))
}
