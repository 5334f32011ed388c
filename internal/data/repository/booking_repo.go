package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shuttle-booking/internal/data/entity"
	"shuttle-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByTicketCode(ctx context.Context, ticketCode string) (*entity.Booking, error)
	FindByStudentID(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByStudentID(ctx context.Context, studentID uuid.UUID) (int64, error)

	// State transitions. Each is one conditional UPDATE guarded by
	// status = 'confirmed' and returns ErrConditionFailed when nothing matched.
	Cancel(ctx context.Context, id uuid.UUID, at time.Time) (*entity.Booking, error)
	MarkBoarded(ctx context.Context, ticketCode string, at time.Time) (*entity.Booking, error)
}

const bookingColumns = `id, student_id, schedule_id, ticket_code, pickup_stop_index, dropoff_stop_index,
		       status, boarded_at, cancelled_at, created_at, updated_at`

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, student_id, schedule_id, ticket_code, pickup_stop_index,
		                      dropoff_stop_index, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.StudentID,
		booking.ScheduleID,
		booking.TicketCode,
		booking.PickupStopIndex,
		booking.DropoffStopIndex,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if database.IsUniqueViolation(err, bookingTicketCodeKey) {
		r.log.Warn("Ticket code collision",
			zap.String("booking_id", booking.ID.String()),
		)
		return ErrDuplicateTicket
	}
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("student_id", booking.StudentID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.ID.String(), err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
	`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByTicketCode(ctx context.Context, ticketCode string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE ticket_code = $1
	`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, ticketCode))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ticket code", zap.Error(err))
		return nil, fmt.Errorf("find booking by ticket code: %w", err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByStudentID(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, studentID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by student ID",
			zap.Error(err),
			zap.String("student_id", studentID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by student ID %s: %w", studentID.String(), err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) CountByStudentID(ctx context.Context, studentID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE student_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, studentID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by student ID",
			zap.Error(err),
			zap.String("student_id", studentID.String()),
		)
		return 0, fmt.Errorf("count bookings by student ID %s: %w", studentID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) Cancel(ctx context.Context, id uuid.UUID, at time.Time) (*entity.Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'confirmed'
		RETURNING ` + bookingColumns

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConditionFailed
	}
	if err != nil {
		r.log.Error("Failed to cancel booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("cancel booking %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) MarkBoarded(ctx context.Context, ticketCode string, at time.Time) (*entity.Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'boarded', boarded_at = $2, updated_at = $2
		WHERE ticket_code = $1 AND status = 'confirmed'
		RETURNING ` + bookingColumns

	booking, err := scanBooking(r.db.QueryRow(ctx, query, ticketCode, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConditionFailed
	}
	if err != nil {
		r.log.Error("Failed to mark booking boarded", zap.Error(err))
		return nil, fmt.Errorf("mark booking boarded: %w", err)
	}

	return booking, nil
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.StudentID,
		&booking.ScheduleID,
		&booking.TicketCode,
		&booking.PickupStopIndex,
		&booking.DropoffStopIndex,
		&booking.Status,
		&booking.BoardedAt,
		&booking.CancelledAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
