package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"shuttle-booking/internal/data/entity"
	"shuttle-booking/internal/data/repository"

	"github.com/google/uuid"
)

// memBookings is an in-memory BookingRepository. The mutex plays the role of
// the row lock a conditional UPDATE takes in Postgres.
type memBookings struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]entity.Booking
	byCode map[string]uuid.UUID

	// failures are returned, in order, before any call reaches the map.
	failures []error
	calls    int
}

func newMemBookings() *memBookings {
	return &memBookings{
		byID:   make(map[uuid.UUID]entity.Booking),
		byCode: make(map[string]uuid.UUID),
	}
}

func (m *memBookings) fail() error {
	m.calls++
	if len(m.failures) == 0 {
		return nil
	}
	err := m.failures[0]
	m.failures = m.failures[1:]
	return err
}

func (m *memBookings) Create(_ context.Context, booking *entity.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	if _, taken := m.byCode[booking.TicketCode]; taken {
		return repository.ErrDuplicateTicket
	}
	m.byID[booking.ID] = *booking
	m.byCode[booking.TicketCode] = booking.ID
	return nil
}

func (m *memBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	booking, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &booking, nil
}

func (m *memBookings) FindByTicketCode(_ context.Context, code string) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	id, ok := m.byCode[code]
	if !ok {
		return nil, nil
	}
	booking := m.byID[id]
	return &booking, nil
}

func (m *memBookings) FindByStudentID(_ context.Context, studentID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Booking
	for _, b := range m.byID {
		if b.StudentID == studentID {
			booking := b
			out = append(out, &booking)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memBookings) CountByStudentID(_ context.Context, studentID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.byID {
		if b.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

func (m *memBookings) Cancel(_ context.Context, id uuid.UUID, at time.Time) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	booking, ok := m.byID[id]
	if !ok || !booking.CanTransitionTo(entity.BookingStatusCancelled) {
		return nil, repository.ErrConditionFailed
	}
	booking.Status = entity.BookingStatusCancelled
	booking.CancelledAt = &at
	booking.UpdatedAt = at
	m.byID[id] = booking
	return &booking, nil
}

func (m *memBookings) MarkBoarded(_ context.Context, code string, at time.Time) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	id, ok := m.byCode[code]
	if !ok {
		return nil, repository.ErrConditionFailed
	}
	booking := m.byID[id]
	if !booking.CanTransitionTo(entity.BookingStatusBoarded) {
		return nil, repository.ErrConditionFailed
	}
	booking.Status = entity.BookingStatusBoarded
	booking.BoardedAt = &at
	booking.UpdatedAt = at
	m.byID[id] = booking
	return &booking, nil
}

func (m *memBookings) status(id uuid.UUID) entity.BookingStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id].Status
}

type memTrips struct {
	mu    sync.Mutex
	trips map[uuid.UUID]entity.Trip
}

func newMemTrips() *memTrips {
	return &memTrips{trips: make(map[uuid.UUID]entity.Trip)}
}

func (m *memTrips) Create(_ context.Context, trip *entity.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trips {
		if t.ScheduleID == trip.ScheduleID && t.Status != entity.TripStatusCompleted {
			return repository.ErrActiveTripExists
		}
	}
	m.trips[trip.ID] = *trip
	return nil
}

func (m *memTrips) FindByID(_ context.Context, id uuid.UUID) (*entity.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, nil
	}
	return &trip, nil
}

func (m *memTrips) FindByDriverID(_ context.Context, driverID uuid.UUID, limit, offset int) ([]*entity.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Trip
	for _, t := range m.trips {
		if t.DriverID == driverID {
			trip := t
			out = append(out, &trip)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memTrips) CountByDriverID(_ context.Context, driverID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.trips {
		if t.DriverID == driverID {
			n++
		}
	}
	return n, nil
}

func (m *memTrips) UpdateLocation(_ context.Context, id, driverID uuid.UUID, lat, lng float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok || trip.DriverID != driverID || trip.Status != entity.TripStatusInProgress {
		return repository.ErrConditionFailed
	}
	trip.CurrentLat, trip.CurrentLng, trip.LocationUpdatedAt = &lat, &lng, &at
	m.trips[id] = trip
	return nil
}

func (m *memTrips) Complete(_ context.Context, id, driverID uuid.UUID, at time.Time) (*entity.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok || trip.DriverID != driverID || trip.Status != entity.TripStatusInProgress {
		return nil, repository.ErrConditionFailed
	}
	trip.Status = entity.TripStatusCompleted
	trip.EndTime = &at
	m.trips[id] = trip
	return &trip, nil
}

type memSchedules struct {
	mu        sync.Mutex
	schedules map[uuid.UUID]entity.Schedule
	lookups   int
}

func newMemSchedules(schedules ...entity.Schedule) *memSchedules {
	m := &memSchedules{schedules: make(map[uuid.UUID]entity.Schedule)}
	for _, s := range schedules {
		m.schedules[s.ID] = s
	}
	return m
}

func (m *memSchedules) FindByID(_ context.Context, id uuid.UUID) (*entity.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	schedule, ok := m.schedules[id]
	if !ok {
		return nil, nil
	}
	return &schedule, nil
}

// recordingTelemetry keeps every published location.
type recordingTelemetry struct {
	mu        sync.Mutex
	published []entity.TripLocation
}

func (r *recordingTelemetry) Publish(_ context.Context, loc entity.TripLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, loc)
	return nil
}

func (r *recordingTelemetry) Latest(_ context.Context, tripID uuid.UUID) (*entity.TripLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.published) - 1; i >= 0; i-- {
		if r.published[i].TripID == tripID {
			loc := r.published[i]
			return &loc, nil
		}
	}
	return nil, nil
}

func (r *recordingTelemetry) Subscribe(context.Context, uuid.UUID) (<-chan entity.TripLocation, error) {
	return nil, ErrTelemetryDisabled
}

func ptr[T any](v T) *T { return &v }
