package adaptor

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"shuttle-booking/internal/usecase"

	"go.uber.org/zap"
)

func TestHandleServiceErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: abc", usecase.ErrBookingNotFound), http.StatusNotFound},
		{usecase.ErrTicketNotFound, http.StatusNotFound},
		{usecase.ErrScheduleNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: pickup 9", usecase.ErrInvalidStop), http.StatusBadRequest},
		{usecase.ErrInvalidLocation, http.StatusBadRequest},
		{usecase.ErrValidation, http.StatusBadRequest},
		{usecase.ErrInvalidTransition, http.StatusConflict},
		{usecase.ErrTripAlreadyActive, http.StatusConflict},
		{usecase.ErrTripNotActive, http.StatusConflict},
		{usecase.ErrNotScheduleDriver, http.StatusForbidden},
		{usecase.ErrForbidden, http.StatusForbidden},
		{usecase.ErrInvalidCredentials, http.StatusUnauthorized},
		{errors.Join(usecase.ErrStorageUnavailable, errors.New("conn reset")), http.StatusServiceUnavailable},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, zap.NewNop(), tc.err, "test")
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
