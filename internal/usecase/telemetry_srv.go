package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shuttle-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lastLocationTTL = 2 * time.Hour

// ErrTelemetryDisabled is returned by Subscribe when no Redis is configured.
var ErrTelemetryDisabled = errors.New("live telemetry disabled")

// Telemetry fans trip locations out to live subscribers. It is advisory:
// the trip row in Postgres stays the record of truth.
type Telemetry interface {
	Publish(ctx context.Context, loc entity.TripLocation) error
	Latest(ctx context.Context, tripID uuid.UUID) (*entity.TripLocation, error)
	Subscribe(ctx context.Context, tripID uuid.UUID) (<-chan entity.TripLocation, error)
}

func tripChannel(tripID uuid.UUID) string {
	return "trip:location:" + tripID.String()
}

func tripLastKey(tripID uuid.UUID) string {
	return "trip:location:last:" + tripID.String()
}

type redisTelemetry struct {
	client *redis.Client
	log    *zap.Logger
}

// NewTelemetry returns a Redis-backed feed, or a no-op one when client is nil.
func NewTelemetry(client *redis.Client, log *zap.Logger) Telemetry {
	if client == nil {
		return noopTelemetry{}
	}
	return &redisTelemetry{
		client: client,
		log:    log.With(zap.String("service", "telemetry")),
	}
}

func (t *redisTelemetry) Publish(ctx context.Context, loc entity.TripLocation) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}

	pipe := t.client.Pipeline()
	pipe.Set(ctx, tripLastKey(loc.TripID), data, lastLocationTTL)
	pipe.Publish(ctx, tripChannel(loc.TripID), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish location: %w", err)
	}
	return nil
}

func (t *redisTelemetry) Latest(ctx context.Context, tripID uuid.UUID) (*entity.TripLocation, error) {
	data, err := t.client.Get(ctx, tripLastKey(tripID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read last location: %w", err)
	}

	var loc entity.TripLocation
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, fmt.Errorf("decode last location: %w", err)
	}
	return &loc, nil
}

// Subscribe streams locations until ctx is done; the channel is then closed.
func (t *redisTelemetry) Subscribe(ctx context.Context, tripID uuid.UUID) (<-chan entity.TripLocation, error) {
	sub := t.client.Subscribe(ctx, tripChannel(tripID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe trip %s: %w", tripID.String(), err)
	}

	out := make(chan entity.TripLocation, 16)
	go func() {
		defer close(out)
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var loc entity.TripLocation
				if err := json.Unmarshal([]byte(msg.Payload), &loc); err != nil {
					t.log.Warn("Dropping malformed location message", zap.Error(err))
					continue
				}
				select {
				case out <- loc:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

type noopTelemetry struct{}

func (noopTelemetry) Publish(context.Context, entity.TripLocation) error { return nil }

func (noopTelemetry) Latest(context.Context, uuid.UUID) (*entity.TripLocation, error) {
	return nil, nil
}

func (noopTelemetry) Subscribe(context.Context, uuid.UUID) (<-chan entity.TripLocation, error) {
	return nil, ErrTelemetryDisabled
}
