package domain

import (
	"context"
	"time"

	"innkeeper/internal/availability"
	"innkeeper/internal/models"
)

// CalendarSource loads a room's raw booking calendar from the booking-data service.
type CalendarSource interface {
	GetBookedDates(ctx context.Context, roomID string) (*models.BookedDates, error)
}

// CalendarCache stores raw calendars between requests. GetCalendar returns
// nil, nil on a miss.
type CalendarCache interface {
	GetCalendar(ctx context.Context, roomID string) (*models.BookedDates, error)
	SetCalendar(ctx context.Context, roomID string, cal *models.BookedDates) error
	DeleteCalendar(ctx context.Context, roomID string) error
}

type RoomCatalog interface {
	Room(id string) (models.Room, bool)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// StayResult is a date-based decision plus the payload to submit when valid.
type StayResult struct {
	Room       models.Room
	Decision   availability.StayDecision
	Submission *models.BookingSubmission
}

type HourlyResult struct {
	Room       models.Room
	Decision   availability.HourlyDecision
	Submission *models.BookingSubmission
}

type ExtensionResult struct {
	Room       models.Room
	Decision   availability.ExtensionDecision
	Submission *models.ExtensionSubmission
}

// AvailabilityService answers the UI's availability questions for one room.
type AvailabilityService interface {
	Today() time.Time
	BlockedDates(ctx context.Context, roomID, bookingType string) ([]time.Time, error)
	EvaluateStay(ctx context.Context, roomID string, q availability.StayQuery) (*StayResult, error)
	EvaluateHourly(ctx context.Context, roomID string, q availability.HourlyQuery) (*HourlyResult, error)
	EvaluateExtension(ctx context.Context, roomID string, a availability.ExtensionAttempt) (*ExtensionResult, error)
	DailyAvailability(ctx context.Context, roomID string, from, to time.Time) ([]availability.DayStatus, error)
	InvalidateCalendar(ctx context.Context, roomID string) error
}
