package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innkeeper/internal/models"
)

var zeroDate time.Time

func regularBooking(t *testing.T, in, out string) ExistingBooking {
	t.Helper()
	return ExistingBooking{
		ID:          "bk-1",
		Type:        models.BookingTypeRegular,
		CheckIn:     mustDate(t, in),
		CheckOut:    mustDate(t, out),
		NightlyRate: 120,
	}
}

func TestResolveDateExtensionSameDay(t *testing.T) {
	e := NewEvaluator(DefaultRules())
	today := mustDate(t, "2025-03-10")
	b := regularBooking(t, "2025-03-08", "2025-03-10")

	d := e.ResolveDateExtension(BuildCalendar(nil, nil), b, mustDate(t, "2025-03-10"), today)

	require.True(t, d.Valid(), "%v", d.Rejection)
	assert.True(t, d.SameDay)
	assert.Equal(t, mustDate(t, "2025-03-11"), d.NewCheckOut)
	assert.Equal(t, 1, d.Nights)
	assert.Equal(t, mustDate(t, "2025-03-10"), d.MinCheckOut)
	assert.InDelta(t, 120.0, d.Cost, 0.001)
}

func TestResolveDateExtensionSameDayNotAllowed(t *testing.T) {
	e := NewEvaluator(DefaultRules())
	b := regularBooking(t, "2025-03-08", "2025-03-10")

	t.Run("check-in lands today", func(t *testing.T) {
		cal := calendarOf(t, []string{"2025-03-10"})
		d := e.ResolveDateExtension(cal, b, mustDate(t, "2025-03-10"), mustDate(t, "2025-03-10"))

		assert.Equal(t, ExtensionRejected, d.State)
		assert.Equal(t, PolicyViolation, d.Rejection.Kind)
		assert.Equal(t, mustDate(t, "2025-03-11"), d.MinCheckOut)
	})

	t.Run("checkout is not today", func(t *testing.T) {
		d := e.ResolveDateExtension(BuildCalendar(nil, nil), b, mustDate(t, "2025-03-10"), mustDate(t, "2025-03-09"))

		assert.Equal(t, ExtensionRejected, d.State)
		assert.Equal(t, PolicyViolation, d.Rejection.Kind)
	})

	t.Run("earlier than current checkout", func(t *testing.T) {
		d := e.ResolveDateExtension(BuildCalendar(nil, nil), b, mustDate(t, "2025-03-09"), mustDate(t, "2025-03-09"))

		assert.Equal(t, PolicyViolation, d.Rejection.Kind)
	})
}

func TestResolveDateExtensionConflict(t *testing.T) {
	e := NewEvaluator(DefaultRules())
	cal := calendarOf(t, []string{"2025-03-11"})
	b := regularBooking(t, "2025-03-08", "2025-03-10")

	d := e.ResolveDateExtension(cal, b, mustDate(t, "2025-03-12"), mustDate(t, "2025-03-10"))

	require.NotNil(t, d.Rejection)
	assert.Equal(t, ExtensionRejected, d.State)
	assert.Equal(t, DateConflict, d.Rejection.Kind)
	require.Len(t, d.Rejection.Dates, 1)
	assert.Equal(t, "2025-03-11", FormatDate(d.Rejection.Dates[0]))
	assert.Contains(t, d.Rejection.Message, "2025-03-11")
	assert.True(t, d.CheckOutLocked)
	assert.Equal(t, mustDate(t, "2025-03-11"), d.SuggestedCheckOut)
}

func TestResolveDateExtensionAutoFill(t *testing.T) {
	e := NewEvaluator(DefaultRules())
	cal := calendarOf(t, []string{"2025-03-16"})
	b := regularBooking(t, "2025-03-12", "2025-03-15")

	d := e.ResolveDateExtension(cal, b, zeroDate, mustDate(t, "2025-03-13"))

	require.True(t, d.Valid())
	assert.True(t, d.CheckOutLocked)
	assert.Equal(t, mustDate(t, "2025-03-16"), d.NewCheckOut)
	assert.Equal(t, 1, d.Nights)

	// Boundary check-ins do not conflict.
	d = e.ResolveDateExtension(cal, b, mustDate(t, "2025-03-16"), mustDate(t, "2025-03-13"))
	assert.True(t, d.Valid())
}

func TestResolveDateExtensionNextDayHourly(t *testing.T) {
	e := NewEvaluator(DefaultRules())
	cal := calendarOf(t, nil, slot(t, "2025-03-16", "09:00", "10:00", "pending"))
	b := regularBooking(t, "2025-03-12", "2025-03-15")

	d := e.ResolveDateExtension(cal, b, mustDate(t, "2025-03-18"), mustDate(t, "2025-03-13"))

	assert.Equal(t, ExtensionRejected, d.State)
	assert.Equal(t, PolicyViolation, d.Rejection.Kind)
}

func TestResolveDateExtensionIdle(t *testing.T) {
	e := NewEvaluator(DefaultRules())
	b := regularBooking(t, "2025-03-12", "2025-03-15")

	d := e.ResolveDateExtension(BuildCalendar(nil, nil), b, zeroDate, mustDate(t, "2025-03-13"))

	assert.Equal(t, ExtensionIdle, d.State)
	assert.Equal(t, InputIncomplete, d.Rejection.Kind)
}

func TestResolveDateExtensionNights(t *testing.T) {
	e := NewEvaluator(DefaultRules())
	cal := calendarOf(t, []string{"2025-03-25"})
	b := regularBooking(t, "2025-03-12", "2025-03-15")

	d := e.ResolveDateExtension(cal, b, mustDate(t, "2025-03-18"), mustDate(t, "2025-03-13"))

	require.True(t, d.Valid())
	assert.Equal(t, 3, d.Nights)
	assert.InDelta(t, 360.0, d.Cost, 0.001)
	assert.False(t, d.SameDay)
}

func hourlyBooking(t *testing.T, start, end string) ExistingBooking {
	t.Helper()
	return ExistingBooking{
		ID:           "bk-2",
		Type:         models.BookingTypeHourly,
		CheckIn:      mustDate(t, "2025-03-10"),
		CheckOut:     mustDate(t, "2025-03-10"),
		CheckInTime:  mustClock(t, start),
		CheckOutTime: mustClock(t, end),
		RoomPrice:    90,
		BookedHours:  3,
	}
}

func TestResolveHourlyExtension(t *testing.T) {
	e := NewEvaluator(DefaultRules())
	cal := calendarOf(t, nil,
		slot(t, "2025-03-10", "10:00", "12:00", "confirmed"),
		slot(t, "2025-03-10", "15:00", "17:00", "confirmed"),
	)
	b := hourlyBooking(t, "10:00", "12:00")
	b.BookedHours = 2

	tests := []struct {
		name  string
		hours int
		state ExtensionState
		kind  RejectionKind
	}{
		{"fits before next slot", 3, ExtensionValid, ""},
		{"overlaps next slot", 4, ExtensionRejected, TimeConflict},
		{"no hours", 0, ExtensionIdle, InputIncomplete},
		{"negative hours", -1, ExtensionRejected, PolicyViolation},
		{"past midnight", 13, ExtensionRejected, PolicyViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.ResolveHourlyExtension(cal, b, tt.hours)
			assert.Equal(t, tt.state, d.State)
			if tt.kind == "" {
				assert.Nil(t, d.Rejection)
				return
			}
			require.NotNil(t, d.Rejection)
			assert.Equal(t, tt.kind, d.Rejection.Kind)
		})
	}

	d := e.ResolveHourlyExtension(cal, b, 3)
	assert.Equal(t, mustClock(t, "15:00"), d.NewCheckOutTime)
	assert.InDelta(t, 135.0, d.Cost, 0.001)
}

func TestResolveHourlyExtensionCostFromSlotLength(t *testing.T) {
	cal := calendarOf(t, nil, slot(t, "2025-03-10", "10:00", "12:00", "confirmed"))
	b := hourlyBooking(t, "10:00", "12:00")
	b.BookedHours = 0

	d := NewEvaluator(DefaultRules()).ResolveHourlyExtension(cal, b, 1)
	require.True(t, d.Valid(), "%v", d.Rejection)
	assert.InDelta(t, 45.0, d.Cost, 0.001)
}

func TestResolveHourlyExtensionSkipsOwnSlot(t *testing.T) {
	cal := calendarOf(t, nil, slot(t, "2025-03-10", "14:00", "16:00", "confirmed"))

	d := NewEvaluator(DefaultRules()).ResolveHourlyExtension(cal, hourlyBooking(t, "14:00", "16:00"), 1)
	require.True(t, d.Valid(), "%v", d.Rejection)
	assert.Equal(t, mustClock(t, "17:00"), d.NewCheckOutTime)
	assert.Empty(t, d.Conflicts)
}

func TestResolveHourlyExtensionBuffer(t *testing.T) {
	// An earlier slot still inside its turnover window blocks the extension.
	cal := calendarOf(t, nil,
		slot(t, "2025-03-10", "13:00", "14:00", "confirmed"),
		slot(t, "2025-03-10", "11:00", "13:30", "confirmed"),
	)
	b := hourlyBooking(t, "13:00", "14:00")

	d := NewEvaluator(DefaultRules()).ResolveHourlyExtension(cal, b, 1)
	require.NotNil(t, d.Rejection)
	assert.Equal(t, TimeConflict, d.Rejection.Kind)
	require.Len(t, d.Conflicts, 1)
	assert.Equal(t, mustClock(t, "11:00"), d.Conflicts[0].Start)

	noBuffer := NewEvaluator(Rules{ExtensionBuffer: 0})
	assert.True(t, noBuffer.ResolveHourlyExtension(cal, b, 1).Valid())
}

func TestExtensionAttemptStateMachine(t *testing.T) {
	e := NewEvaluator(DefaultRules())
	today := mustDate(t, "2025-03-10")
	cal := BuildCalendar(nil, nil)

	a := NewExtensionAttempt(regularBooking(t, "2025-03-08", "2025-03-10"))
	assert.Equal(t, ExtensionIdle, a.State)
	assert.Equal(t, ExtensionIdle, e.Resolve(cal, a, today).State)

	selected := a.WithCheckOut(mustDate(t, "2025-03-12"))
	assert.Equal(t, ExtensionDateSelected, selected.State)
	assert.Equal(t, ExtensionIdle, a.State, "original attempt must stay untouched")
	assert.Equal(t, ExtensionValid, e.Resolve(cal, selected, today).State)

	h := NewExtensionAttempt(hourlyBooking(t, "10:00", "12:00")).WithHours(2)
	assert.Equal(t, ExtensionHoursSelected, h.State)
	assert.Equal(t, ExtensionValid, e.Resolve(cal, h, today).State)
}
