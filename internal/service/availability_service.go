package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"innkeeper/internal/availability"
	"innkeeper/internal/domain"
	"innkeeper/internal/events"
	"innkeeper/internal/metrics"
	"innkeeper/internal/models"

	"github.com/rs/zerolog"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrInvalidRange       = errors.New("invalid date range")
	ErrInvalidBookingType = errors.New("invalid booking type")
	ErrHourlyUnsupported  = errors.New("hourly bookings are not offered for this room")
)

const outcomeValid = "valid"

// AvailabilityService loads room calendars (cache first, then the booking-data
// service) and runs the availability evaluator over them.
type AvailabilityService struct {
	rooms     domain.RoomCatalog
	source    domain.CalendarSource
	cache     domain.CalendarCache
	evaluator *availability.Evaluator
	eventBus  domain.EventPublisher
	logger    *zerolog.Logger

	loc *time.Location
	now func() time.Time
}

func NewAvailabilityService(
	rooms domain.RoomCatalog,
	source domain.CalendarSource,
	cache domain.CalendarCache,
	evaluator *availability.Evaluator,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *AvailabilityService {
	if evaluator == nil {
		evaluator = availability.NewEvaluator(availability.DefaultRules())
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AvailabilityService{
		rooms:     rooms,
		source:    source,
		cache:     cache,
		evaluator: evaluator,
		eventBus:  eventBus,
		logger:    logger,
		loc:       time.UTC,
		now:       time.Now,
	}
}

// SetClock sets the timezone "today" is computed in and, optionally, the time source.
func (s *AvailabilityService) SetClock(loc *time.Location, now func() time.Time) {
	if loc != nil {
		s.loc = loc
	}
	if now != nil {
		s.now = now
	}
}

// Today is the current calendar date in the hotel timezone.
func (s *AvailabilityService) Today() time.Time {
	return availability.Day(s.now().In(s.loc))
}

func (s *AvailabilityService) room(roomID string) (models.Room, error) {
	room, ok := s.rooms.Room(roomID)
	if !ok {
		return models.Room{}, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	return room, nil
}

// Calendar returns the parsed calendar of a catalog room.
func (s *AvailabilityService) Calendar(ctx context.Context, roomID string) (*availability.Calendar, error) {
	if _, err := s.room(roomID); err != nil {
		return nil, err
	}
	return s.loadCalendar(ctx, roomID)
}

func (s *AvailabilityService) loadCalendar(ctx context.Context, roomID string) (*availability.Calendar, error) {
	raw, fromCache := s.cachedCalendar(ctx, roomID)

	if raw == nil {
		fetched, err := s.source.GetBookedDates(ctx, roomID)
		if err != nil {
			metrics.IncCalendarLoad("upstream", "error")
			s.logger.Error().Err(err).Str("room_id", roomID).Msg("load booked dates")
			return nil, fmt.Errorf("load calendar for room %s: %w", roomID, err)
		}
		metrics.IncCalendarLoad("upstream", "ok")
		raw = fetched
	}

	cal, err := availability.ParseCalendar(raw)
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID).Bool("from_cache", fromCache).Msg("malformed calendar")
		if fromCache {
			if derr := s.cache.DeleteCalendar(ctx, roomID); derr != nil {
				s.logger.Warn().Err(derr).Str("room_id", roomID).Msg("calendar cache evict failed")
			}
		}
		return nil, fmt.Errorf("room %s calendar: %w", roomID, err)
	}

	if !fromCache {
		s.storeCalendar(ctx, roomID, raw, cal)
	}
	return cal, nil
}

func (s *AvailabilityService) cachedCalendar(ctx context.Context, roomID string) (*models.BookedDates, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.GetCalendar(ctx, roomID)
	if err != nil {
		metrics.IncCalendarLoad("cache", "error")
		s.logger.Warn().Err(err).Str("room_id", roomID).Msg("calendar cache read failed")
		return nil, false
	}
	if raw == nil {
		metrics.IncCalendarLoad("cache", "miss")
		return nil, false
	}
	metrics.IncCalendarLoad("cache", "hit")
	return raw, true
}

func (s *AvailabilityService) storeCalendar(ctx context.Context, roomID string, raw *models.BookedDates, cal *availability.Calendar) {
	if s.cache != nil {
		if err := s.cache.SetCalendar(ctx, roomID, raw); err != nil {
			s.logger.Warn().Err(err).Str("room_id", roomID).Msg("calendar cache write failed")
		}
	}
	s.publish(events.EventCalendarRefreshed, events.CalendarPayload{
		RoomID:     roomID,
		CheckIns:   len(cal.CheckIns()),
		TimeRanges: len(cal.TimeRanges()),
	})
}

// BlockedDates returns the picker's blocked dates for bookingType
// ("regular" when empty, or "hourly").
func (s *AvailabilityService) BlockedDates(ctx context.Context, roomID, bookingType string) ([]time.Time, error) {
	room, err := s.room(roomID)
	if err != nil {
		return nil, err
	}

	switch bookingType {
	case "", models.BookingTypeRegular:
		cal, err := s.loadCalendar(ctx, roomID)
		if err != nil {
			return nil, err
		}
		return s.evaluator.BlockedDatesRegular(cal), nil
	case models.BookingTypeHourly:
		if !room.HourlyEnabled {
			return nil, ErrHourlyUnsupported
		}
		cal, err := s.loadCalendar(ctx, roomID)
		if err != nil {
			return nil, err
		}
		return availability.BlockedDatesHourly(cal), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidBookingType, bookingType)
	}
}

// EvaluateStay decides a regular booking and builds its submission when valid.
func (s *AvailabilityService) EvaluateStay(ctx context.Context, roomID string, q availability.StayQuery) (*domain.StayResult, error) {
	room, err := s.room(roomID)
	if err != nil {
		return nil, err
	}
	cal, err := s.loadCalendar(ctx, roomID)
	if err != nil {
		return nil, err
	}

	d := s.evaluator.EvaluateStay(cal, q, s.Today())
	res := &domain.StayResult{Room: room, Decision: d}
	if d.Valid() {
		res.Submission = &models.BookingSubmission{
			RoomID:       room.ID,
			HotelID:      room.HotelID,
			CheckInDate:  availability.FormatDate(d.CheckIn),
			CheckOutDate: availability.FormatDate(d.CheckOut),
			BookingType:  models.BookingTypeRegular,
		}
	}

	payload := events.EvaluationPayload{RoomID: room.ID, HotelID: room.HotelID, Nights: d.Nights}
	if !d.CheckIn.IsZero() {
		payload.CheckIn = availability.FormatDate(d.CheckIn)
	}
	if !d.CheckOut.IsZero() {
		payload.CheckOut = availability.FormatDate(d.CheckOut)
	}
	s.record("stay", events.EventStayEvaluated, d.Rejection, payload)
	return res, nil
}

// EvaluateHourly decides an hourly booking. Rooms without hourly support and
// dates in the past are rejected as policy violations.
func (s *AvailabilityService) EvaluateHourly(ctx context.Context, roomID string, q availability.HourlyQuery) (*domain.HourlyResult, error) {
	room, err := s.room(roomID)
	if err != nil {
		return nil, err
	}

	var d availability.HourlyDecision
	switch {
	case !room.HourlyEnabled:
		d = availability.HourlyDecision{
			Date:          availability.Day(q.Date),
			DurationHours: q.DurationHours,
			Rejection:     &availability.Rejection{Kind: availability.PolicyViolation, Message: ErrHourlyUnsupported.Error()},
		}
	case !q.Date.IsZero() && availability.Day(q.Date).Before(s.Today()):
		d = availability.HourlyDecision{
			Date:          availability.Day(q.Date),
			DurationHours: q.DurationHours,
			Rejection: &availability.Rejection{
				Kind:    availability.PolicyViolation,
				Message: "the selected date is in the past",
				Dates:   []time.Time{availability.Day(q.Date)},
			},
		}
	default:
		cal, err := s.loadCalendar(ctx, roomID)
		if err != nil {
			return nil, err
		}
		d = s.evaluator.EvaluateHourly(cal, q)
	}

	res := &domain.HourlyResult{Room: room, Decision: d}
	if d.Valid() {
		res.Submission = &models.BookingSubmission{
			RoomID:      room.ID,
			HotelID:     room.HotelID,
			CheckInDate: availability.FormatDate(d.Date),
			CheckInTime: d.Start.String(),
			BookHours:   d.DurationHours,
			BookingType: models.BookingTypeHourly,
		}
	}

	payload := events.EvaluationPayload{RoomID: room.ID, HotelID: room.HotelID, Hours: d.DurationHours}
	if !d.Date.IsZero() {
		payload.CheckIn = availability.FormatDate(d.Date)
	}
	s.record("hourly", events.EventHourlyEvaluated, d.Rejection, payload)
	return res, nil
}

// EvaluateExtension resolves an extension attempt and builds the extend
// request body when valid. The display cost is never part of the submission.
func (s *AvailabilityService) EvaluateExtension(ctx context.Context, roomID string, a availability.ExtensionAttempt) (*domain.ExtensionResult, error) {
	room, err := s.room(roomID)
	if err != nil {
		return nil, err
	}
	cal, err := s.loadCalendar(ctx, roomID)
	if err != nil {
		return nil, err
	}

	d := s.evaluator.Resolve(cal, a, s.Today())
	res := &domain.ExtensionResult{Room: room, Decision: d}
	if d.Valid() {
		sub := &models.ExtensionSubmission{BookingID: a.Booking.ID, Extension: true}
		if a.Booking.Hourly() {
			sub.NewCheckOutTime = d.NewCheckOutTime.String()
			sub.BookHour = d.Hours
		} else {
			sub.NewCheckOutDate = availability.FormatDate(d.NewCheckOut)
		}
		res.Submission = sub
	}

	payload := events.EvaluationPayload{
		RoomID:    room.ID,
		HotelID:   room.HotelID,
		BookingID: a.Booking.ID,
		Nights:    d.Nights,
		Hours:     d.Hours,
	}
	if !d.NewCheckOut.IsZero() {
		payload.CheckOut = availability.FormatDate(d.NewCheckOut)
	}
	s.record("extension", events.EventExtensionEvaluated, d.Rejection, payload)
	return res, nil
}

// DailyAvailability reports each day of [from, to]; the window is capped at
// models.MaxReportDays days.
func (s *AvailabilityService) DailyAvailability(ctx context.Context, roomID string, from, to time.Time) ([]availability.DayStatus, error) {
	if from.IsZero() || to.IsZero() || availability.Day(to).Before(availability.Day(from)) {
		return nil, fmt.Errorf("%w: from must not be after to", ErrInvalidRange)
	}
	if days := availability.NightsBetween(from, to) + 1; days > models.MaxReportDays {
		return nil, fmt.Errorf("%w: %d days requested, at most %d allowed", ErrInvalidRange, days, models.MaxReportDays)
	}

	if _, err := s.room(roomID); err != nil {
		return nil, err
	}
	cal, err := s.loadCalendar(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return s.evaluator.DayStatuses(cal, from, to), nil
}

// InvalidateCalendar drops the cached calendar so the next request refetches it.
func (s *AvailabilityService) InvalidateCalendar(ctx context.Context, roomID string) error {
	if _, err := s.room(roomID); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.DeleteCalendar(ctx, roomID); err != nil {
			return fmt.Errorf("invalidate calendar for room %s: %w", roomID, err)
		}
	}
	s.publish(events.EventCalendarInvalidated, events.CalendarPayload{RoomID: roomID})
	s.logger.Info().Str("room_id", roomID).Msg("calendar invalidated")
	return nil
}

func (s *AvailabilityService) record(kind, eventType string, rej *availability.Rejection, payload events.EvaluationPayload) {
	payload.Outcome = outcomeValid
	if rej != nil {
		payload.Outcome = string(rej.Kind)
		payload.Reason = rej.Message
	}
	metrics.IncEvaluation(kind, payload.Outcome)
	s.logger.Debug().
		Str("kind", kind).
		Str("room_id", payload.RoomID).
		Str("outcome", payload.Outcome).
		Msg("availability evaluated")
	s.publish(eventType, payload)
}

func (s *AvailabilityService) publish(eventType string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}
