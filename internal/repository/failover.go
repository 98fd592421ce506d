package repository

import (
	"context"
	"sync/atomic"
	"time"

	"innkeeper/internal/domain"
	"innkeeper/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverCalendarCache serves from primary (redis) and switches to fallback
// (memory) when primary errors. Primary is retried once recoveryInterval has
// passed since the last failure.
type FailoverCalendarCache struct {
	primary   domain.CalendarCache
	fallback  domain.CalendarCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverCalendarCache(primary, fallback domain.CalendarCache, logger *zerolog.Logger) *FailoverCalendarCache {
	return &FailoverCalendarCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverCalendarCache) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("primary calendar cache failed, falling back to memory")
	}
	r.lastCheck.Store(time.Now().UnixNano())
}

// usePrimary reports whether the primary should be tried for this call.
func (r *FailoverCalendarCache) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	// Try to recover after recoveryInterval
	return time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

func (r *FailoverCalendarCache) recovered() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("primary calendar cache recovered")
	}
}

func (r *FailoverCalendarCache) GetCalendar(ctx context.Context, roomID string) (*models.BookedDates, error) {
	if r.usePrimary() {
		cal, err := r.primary.GetCalendar(ctx, roomID)
		if err == nil {
			r.recovered()
			return cal, nil
		}
		r.markDown(err)
	}

	return r.fallback.GetCalendar(ctx, roomID)
}

func (r *FailoverCalendarCache) SetCalendar(ctx context.Context, roomID string, cal *models.BookedDates) error {
	if r.usePrimary() {
		err := r.primary.SetCalendar(ctx, roomID, cal)
		if err == nil {
			r.recovered()
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetCalendar(ctx, roomID, cal)
}

// DeleteCalendar clears the fallback, then the primary when it is reachable.
func (r *FailoverCalendarCache) DeleteCalendar(ctx context.Context, roomID string) error {
	_ = r.fallback.DeleteCalendar(ctx, roomID)

	if r.usePrimary() {
		err := r.primary.DeleteCalendar(ctx, roomID)
		if err == nil {
			r.recovered()
			return nil
		}
		r.markDown(err)
	}
	return nil
}
