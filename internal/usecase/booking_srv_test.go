package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"shuttle-booking/internal/data/entity"
	"shuttle-booking/internal/dto/request"
	"shuttle-booking/internal/dto/response"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type bookingFixture struct {
	repo     *memBookings
	schedule entity.Schedule
	booking  BookingService
	boarding BoardingService
}

func newBookingFixture(t *testing.T, generate CodeGenerator) *bookingFixture {
	t.Helper()
	log := zap.NewNop()

	schedule := entity.Schedule{ID: uuid.New(), RouteID: uuid.New(), RouteName: "North Loop", StopCount: 4}
	repo := newMemBookings()
	registry := NewScheduleRegistry(newMemSchedules(schedule), nil, 2, log)
	booking := NewBookingService(repo, registry, NewTicketIssuer(generate, 5, log), 2, log)

	return &bookingFixture{
		repo:     repo,
		schedule: schedule,
		booking:  booking,
		boarding: NewBoardingService(booking, log),
	}
}

func (f *bookingFixture) book(t *testing.T, pickup, dropoff int) *response.CreateBookingResponse {
	t.Helper()
	resp, err := f.booking.CreateBooking(context.Background(), uuid.NewString(), &request.CreateBookingRequest{
		ScheduleID:       f.schedule.ID.String(),
		PickupStopIndex:  ptr(pickup),
		DropoffStopIndex: ptr(dropoff),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return resp
}

func TestCreateBookingIssuesTicket(t *testing.T) {
	f := newBookingFixture(t, nil)

	resp := f.book(t, 0, 3)

	if resp.TicketCode == "" || resp.BookingID == "" {
		t.Fatalf("missing ticket or booking id: %+v", resp)
	}
	if _, err := uuid.Parse(resp.TicketCode); err != nil {
		t.Fatalf("ticket code %q is not a uuid: %v", resp.TicketCode, err)
	}
	if resp.Booking.Status != entity.BookingStatusConfirmed {
		t.Fatalf("status = %s, want confirmed", resp.Booking.Status)
	}

	stored, _ := f.repo.FindByTicketCode(context.Background(), resp.TicketCode)
	if stored == nil || stored.ID.String() != resp.BookingID {
		t.Fatalf("ticket not bound to booking: %+v", stored)
	}
}

func TestCreateBookingRejectsInvalidStops(t *testing.T) {
	f := newBookingFixture(t, nil)

	cases := []struct {
		name            string
		pickup, dropoff int
		want            error
	}{
		{"dropoff past last stop", 0, 4, ErrInvalidStop},
		{"pickup past last stop", 7, 1, ErrInvalidStop},
		{"negative pickup", -1, 2, ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.booking.CreateBooking(context.Background(), uuid.NewString(), &request.CreateBookingRequest{
				ScheduleID:       f.schedule.ID.String(),
				PickupStopIndex:  ptr(tc.pickup),
				DropoffStopIndex: ptr(tc.dropoff),
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if n := len(f.repo.byID); n != 0 {
		t.Fatalf("rejected bookings were stored: %d", n)
	}
}

func TestCreateBookingAllowsSameStop(t *testing.T) {
	f := newBookingFixture(t, nil)

	for _, stop := range []int{0, 1} {
		resp, err := f.booking.CreateBooking(context.Background(), uuid.NewString(), &request.CreateBookingRequest{
			ScheduleID:       f.schedule.ID.String(),
			PickupStopIndex:  ptr(stop),
			DropoffStopIndex: ptr(stop),
		})
		if err != nil {
			t.Fatalf("pickup and dropoff %d: %v", stop, err)
		}
		if resp.TicketCode == "" {
			t.Fatalf("no ticket issued for stop %d", stop)
		}
	}
}

func TestCreateBookingUnknownSchedule(t *testing.T) {
	f := newBookingFixture(t, nil)

	_, err := f.booking.CreateBooking(context.Background(), uuid.NewString(), &request.CreateBookingRequest{
		ScheduleID:       uuid.NewString(),
		PickupStopIndex:  ptr(0),
		DropoffStopIndex: ptr(1),
	})
	if !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("expected ErrScheduleNotFound, got %v", err)
	}
}

func TestCreateBookingRetriesTicketCollision(t *testing.T) {
	codes := []string{"taken", "taken", "fresh"}
	var mu sync.Mutex
	generate := func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}
	f := newBookingFixture(t, generate)
	f.repo.byCode["taken"] = uuid.New()

	resp := f.book(t, 0, 1)
	if resp.TicketCode != "fresh" {
		t.Fatalf("ticket = %q, want fresh", resp.TicketCode)
	}
}

func TestCreateBookingIssuanceExhausted(t *testing.T) {
	f := newBookingFixture(t, func() (string, error) { return "taken", nil })
	f.repo.byCode["taken"] = uuid.New()

	_, err := f.booking.CreateBooking(context.Background(), uuid.NewString(), &request.CreateBookingRequest{
		ScheduleID:       f.schedule.ID.String(),
		PickupStopIndex:  ptr(0),
		DropoffStopIndex: ptr(1),
	})
	if !errors.Is(err, ErrIssuanceExhausted) {
		t.Fatalf("expected ErrIssuanceExhausted, got %v", err)
	}
}

func TestCreateBookingRetriesTransientStorage(t *testing.T) {
	f := newBookingFixture(t, nil)
	f.repo.failures = []error{&pgconn.PgError{Code: "40001"}}

	resp := f.book(t, 1, 2)
	if resp.Booking.Status != entity.BookingStatusConfirmed {
		t.Fatalf("status = %s", resp.Booking.Status)
	}
}

func TestCreateBookingStorageUnavailable(t *testing.T) {
	f := newBookingFixture(t, nil)
	for i := 0; i < 10; i++ {
		f.repo.failures = append(f.repo.failures, &pgconn.PgError{Code: "08006"})
	}

	_, err := f.booking.CreateBooking(context.Background(), uuid.NewString(), &request.CreateBookingRequest{
		ScheduleID:       f.schedule.ID.String(),
		PickupStopIndex:  ptr(0),
		DropoffStopIndex: ptr(1),
	})
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if f.repo.calls != 3 {
		t.Fatalf("storage calls = %d, want 3 (1 + 2 retries)", f.repo.calls)
	}
	if len(f.repo.byID) != 0 {
		t.Fatal("booking stored despite failure")
	}
}

func TestBoardingAcceptsOnceThenRejects(t *testing.T) {
	f := newBookingFixture(t, nil)
	resp := f.book(t, 0, 2)
	ctx := context.Background()

	first, err := f.boarding.Verify(ctx, resp.TicketCode)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !first.Accepted || first.Booking == nil || first.Booking.BoardedAt == nil {
		t.Fatalf("first scan not accepted: %+v", first)
	}

	second, err := f.boarding.Verify(ctx, resp.TicketCode)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if second.Accepted || second.Reason != response.ReasonAlreadyBoarded {
		t.Fatalf("second scan = %+v, want AlreadyBoarded", second)
	}
}

func TestBoardingUnknownAndBlankCodes(t *testing.T) {
	f := newBookingFixture(t, nil)

	for _, code := range []string{"no-such-ticket", "   ", ""} {
		result, err := f.boarding.Verify(context.Background(), code)
		if err != nil {
			t.Fatalf("verify %q: %v", code, err)
		}
		if result.Accepted || result.Reason != response.ReasonNotFound {
			t.Fatalf("verify %q = %+v, want NotFound", code, result)
		}
	}
}

func TestCancelThenBoardIsRejected(t *testing.T) {
	f := newBookingFixture(t, nil)
	resp := f.book(t, 0, 2)
	ctx := context.Background()

	cancelled, err := f.booking.CancelBooking(ctx, resp.BookingID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != entity.BookingStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancel result %+v", cancelled)
	}

	result, err := f.boarding.Verify(ctx, resp.TicketCode)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Accepted || result.Reason != response.ReasonCancelled {
		t.Fatalf("verify after cancel = %+v, want Cancelled", result)
	}

	if _, err := f.booking.CancelBooking(ctx, resp.BookingID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second cancel: expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancelBoardedBookingFails(t *testing.T) {
	f := newBookingFixture(t, nil)
	resp := f.book(t, 1, 3)
	ctx := context.Background()

	if _, err := f.boarding.Verify(ctx, resp.TicketCode); err != nil {
		t.Fatalf("verify: %v", err)
	}

	_, err := f.booking.CancelBooking(ctx, resp.BookingID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if st := f.repo.status(uuid.MustParse(resp.BookingID)); st != entity.BookingStatusBoarded {
		t.Fatalf("status = %s, want boarded", st)
	}
}

func TestCancelUnknownBooking(t *testing.T) {
	f := newBookingFixture(t, nil)

	if _, err := f.booking.CancelBooking(context.Background(), uuid.NewString()); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
	if _, err := f.booking.CancelBooking(context.Background(), "not-a-uuid"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestConcurrentScansAcceptExactlyOnce(t *testing.T) {
	f := newBookingFixture(t, nil)
	resp := f.book(t, 0, 3)

	const scanners = 32
	results := make([]*response.BoardingResponse, scanners)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			result, err := f.boarding.Verify(context.Background(), resp.TicketCode)
			if err != nil {
				t.Errorf("scanner %d: %v", i, err)
				return
			}
			results[i] = result
		}(i)
	}
	close(start)
	wg.Wait()

	accepted := 0
	for i, result := range results {
		if result == nil {
			continue
		}
		if result.Accepted {
			accepted++
			continue
		}
		if result.Reason != response.ReasonAlreadyBoarded {
			t.Errorf("scanner %d: reason = %s, want AlreadyBoarded", i, result.Reason)
		}
	}
	if accepted != 1 {
		t.Fatalf("accepted = %d, want exactly 1", accepted)
	}
}

func TestConcurrentCancelAndScanHaveOneWinner(t *testing.T) {
	f := newBookingFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		t.Run(fmt.Sprintf("round-%d", i), func(t *testing.T) {
			resp := f.book(t, 0, 1)

			var (
				wg        sync.WaitGroup
				cancelErr error
				scan      *response.BoardingResponse
				scanErr   error
			)
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, cancelErr = f.booking.CancelBooking(ctx, resp.BookingID)
			}()
			go func() {
				defer wg.Done()
				scan, scanErr = f.boarding.Verify(ctx, resp.TicketCode)
			}()
			wg.Wait()

			if scanErr != nil {
				t.Fatalf("verify: %v", scanErr)
			}

			final := f.repo.status(uuid.MustParse(resp.BookingID))
			switch {
			case cancelErr == nil:
				if scan.Accepted || scan.Reason != response.ReasonCancelled || final != entity.BookingStatusCancelled {
					t.Fatalf("cancel won but scan = %+v, status = %s", scan, final)
				}
			case errors.Is(cancelErr, ErrInvalidTransition):
				if !scan.Accepted || final != entity.BookingStatusBoarded {
					t.Fatalf("scan won but scan = %+v, status = %s", scan, final)
				}
			default:
				t.Fatalf("unexpected cancel error: %v", cancelErr)
			}
		})
	}
}

func TestGetStudentBookingsPaginates(t *testing.T) {
	f := newBookingFixture(t, nil)
	ctx := context.Background()
	studentID := uuid.NewString()

	for i := 0; i < 3; i++ {
		_, err := f.booking.CreateBooking(ctx, studentID, &request.CreateBookingRequest{
			ScheduleID:       f.schedule.ID.String(),
			PickupStopIndex:  ptr(0),
			DropoffStopIndex: ptr(i + 1),
		})
		if err != nil {
			t.Fatalf("create booking %d: %v", i, err)
		}
	}
	f.book(t, 0, 1) // someone else

	page, err := f.booking.GetStudentBookings(ctx, studentID, &request.PaginatedRequest{Page: 1, PerPage: 2})
	if err != nil {
		t.Fatalf("get student bookings: %v", err)
	}
	if len(page.Data) != 2 || page.Pagination.Total != 3 {
		t.Fatalf("unexpected page %+v", page)
	}
}
