package repository

import (
	"context"
	"sync"
	"time"

	"innkeeper/internal/models"
)

type memoryEntry struct {
	calendar  *models.BookedDates
	expiresAt time.Time
}

// MemoryCalendarCache is the in-process fallback cache. A zero TTL keeps
// entries until they are deleted.
type MemoryCalendarCache struct {
	calendars sync.Map // map[string]*memoryEntry
	ttl       time.Duration
	now       func() time.Time
}

func NewMemoryCalendarCache(ttl time.Duration) *MemoryCalendarCache {
	return &MemoryCalendarCache{
		ttl: ttl,
		now: time.Now,
	}
}

func (r *MemoryCalendarCache) GetCalendar(ctx context.Context, roomID string) (*models.BookedDates, error) {
	val, ok := r.calendars.Load(roomID)
	if !ok {
		return nil, nil
	}
	entry := val.(*memoryEntry)
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		r.calendars.CompareAndDelete(roomID, entry)
		return nil, nil
	}
	return entry.calendar, nil
}

func (r *MemoryCalendarCache) SetCalendar(ctx context.Context, roomID string, cal *models.BookedDates) error {
	entry := &memoryEntry{calendar: cal}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.calendars.Store(roomID, entry)
	return nil
}

func (r *MemoryCalendarCache) DeleteCalendar(ctx context.Context, roomID string) error {
	r.calendars.Delete(roomID)
	return nil
}
