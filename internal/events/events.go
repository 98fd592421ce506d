package events

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	EventStayEvaluated       = "stay_evaluated"
	EventHourlyEvaluated     = "hourly_evaluated"
	EventExtensionEvaluated  = "extension_evaluated"
	EventCalendarRefreshed   = "calendar_refreshed"
	EventCalendarInvalidated = "calendar_invalidated"
)

// AllTypes lists every event type published by the service.
var AllTypes = []string{
	EventStayEvaluated,
	EventHourlyEvaluated,
	EventExtensionEvaluated,
	EventCalendarRefreshed,
	EventCalendarInvalidated,
}

// EvaluationPayload describes one decision. Outcome is "valid" or the
// rejection kind.
type EvaluationPayload struct {
	RoomID    string `json:"room_id"`
	HotelID   string `json:"hotel_id"`
	BookingID string `json:"booking_id,omitempty"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
	CheckIn   string `json:"check_in,omitempty"`
	CheckOut  string `json:"check_out,omitempty"`
	Nights    int    `json:"nights,omitempty"`
	Hours     int    `json:"hours,omitempty"`
}

// CalendarPayload describes a calendar cache change.
type CalendarPayload struct {
	RoomID     string `json:"room_id"`
	CheckIns   int    `json:"check_ins"`
	TimeRanges int    `json:"time_ranges"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	seq         atomic.Int64
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type synchronously and returns the
// handlers' errors joined. Every handler runs even when an earlier one fails.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.ID == 0 {
		event.ID = b.seq.Add(1)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes an event. A nil bus is a no-op.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(&event)
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}

// LogSink returns a handler writing each event to logger at debug level.
func LogSink(logger *zerolog.Logger) EventHandler {
	return func(event *Event) error {
		logger.Debug().
			Int64("event_id", event.ID).
			Str("event", event.Type).
			RawJSON("payload", event.Payload).
			Msg("domain event")
		return nil
	}
}
