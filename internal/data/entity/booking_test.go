package entity

import "testing"

func TestBookingTransitions(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingStatusConfirmed, BookingStatusBoarded, true},
		{BookingStatusConfirmed, BookingStatusCancelled, true},
		{BookingStatusConfirmed, BookingStatusConfirmed, false},
		{BookingStatusBoarded, BookingStatusCancelled, false},
		{BookingStatusBoarded, BookingStatusConfirmed, false},
		{BookingStatusCancelled, BookingStatusBoarded, false},
		{BookingStatusCancelled, BookingStatusConfirmed, false},
	}

	for _, tc := range cases {
		b := &Booking{Status: tc.from}
		if got := b.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestScheduleValidStop(t *testing.T) {
	s := &Schedule{StopCount: 3}
	for index, want := range map[int]bool{-1: false, 0: true, 2: true, 3: false} {
		if got := s.ValidStop(index); got != want {
			t.Errorf("ValidStop(%d) = %v, want %v", index, got, want)
		}
	}
}
