package usecase

import (
	"context"
	"errors"

	"shuttle-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultTicketAttempts = 5

// TicketIssuer mints boarding credentials. Uniqueness is enforced by the
// bookings unique index; persist reports a collision with
// repository.ErrDuplicateTicket and the issuer tries a fresh code.
type TicketIssuer interface {
	Issue(ctx context.Context, bookingID uuid.UUID, persist func(ticketCode string) error) (string, error)
}

// CodeGenerator produces one candidate ticket code.
type CodeGenerator func() (string, error)

// RandomCode returns a random UUIDv4 string: 122 bits of entropy.
func RandomCode() (string, error) {
	code, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return code.String(), nil
}

type ticketIssuer struct {
	generate    CodeGenerator
	maxAttempts int
	log         *zap.Logger
}

func NewTicketIssuer(generate CodeGenerator, maxAttempts int, log *zap.Logger) TicketIssuer {
	if generate == nil {
		generate = RandomCode
	}
	if maxAttempts < 1 {
		maxAttempts = defaultTicketAttempts
	}
	return &ticketIssuer{
		generate:    generate,
		maxAttempts: maxAttempts,
		log:         log.With(zap.String("service", "ticket")),
	}
}

func (t *ticketIssuer) Issue(ctx context.Context, bookingID uuid.UUID, persist func(ticketCode string) error) (string, error) {
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code, err := t.generate()
		if err != nil {
			t.log.Error("Failed to generate ticket code", zap.Error(err))
			return "", err
		}

		err = persist(code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, repository.ErrDuplicateTicket) {
			return "", err
		}

		t.log.Warn("Ticket code collision, regenerating",
			zap.String("booking_id", bookingID.String()),
			zap.Int("attempt", attempt),
		)
	}

	t.log.Error("Ticket issuance exhausted",
		zap.String("booking_id", bookingID.String()),
		zap.Int("attempts", t.maxAttempts),
	)
	return "", ErrIssuanceExhausted
}
