package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shuttle-booking/internal/data/entity"
	"shuttle-booking/internal/data/repository"
	"shuttle-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const scheduleCacheTTL = 10 * time.Minute

// ScheduleRegistry resolves the departures a booking or trip refers to.
type ScheduleRegistry interface {
	LookupSchedule(ctx context.Context, id uuid.UUID) (*entity.Schedule, error)
}

type scheduleRegistry struct {
	repo       repository.ScheduleRepository
	cache      *redis.Client
	maxRetries int
	log        *zap.Logger
}

// NewScheduleRegistry reads through a Redis cache when cache is non-nil.
func NewScheduleRegistry(repo repository.ScheduleRepository, cache *redis.Client, maxRetries int, log *zap.Logger) ScheduleRegistry {
	return &scheduleRegistry{
		repo:       repo,
		cache:      cache,
		maxRetries: maxRetries,
		log:        log.With(zap.String("service", "schedule")),
	}
}

func (s *scheduleRegistry) LookupSchedule(ctx context.Context, id uuid.UUID) (*entity.Schedule, error) {
	if schedule := s.fromCache(ctx, id); schedule != nil {
		return schedule, nil
	}

	var schedule *entity.Schedule
	err := database.Retry(ctx, s.maxRetries, func() error {
		var err error
		schedule, err = s.repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("lookup schedule %s: %w", id.String(), err)
	}
	if schedule == nil {
		return nil, ErrScheduleNotFound
	}

	s.toCache(ctx, schedule)
	return schedule, nil
}

func scheduleCacheKey(id uuid.UUID) string {
	return "schedule:" + id.String()
}

// Cache failures only cost a database round trip, so they are logged and ignored.
func (s *scheduleRegistry) fromCache(ctx context.Context, id uuid.UUID) *entity.Schedule {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, scheduleCacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("Schedule cache read failed", zap.Error(err))
		}
		return nil
	}

	var schedule entity.Schedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		s.log.Warn("Schedule cache entry corrupt", zap.Error(err), zap.String("schedule_id", id.String()))
		return nil
	}
	return &schedule
}

func (s *scheduleRegistry) toCache(ctx context.Context, schedule *entity.Schedule) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(schedule)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, scheduleCacheKey(schedule.ID), data, scheduleCacheTTL).Err(); err != nil {
		s.log.Warn("Schedule cache write failed", zap.Error(err))
	}
}
