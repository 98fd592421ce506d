package availability

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"innkeeper/internal/models"
)

// MinutesPerDay is the exclusive upper bound of a Clock.
const MinutesPerDay = 24 * 60

// Clock is a time of day expressed in minutes since midnight.
type Clock int

// Noon is the default afternoon cutoff.
const Noon Clock = 12 * 60

// NewClock builds a Clock from hour and minute.
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock accepts "HH:MM" and "HH:MM:SS". Seconds are truncated.
// "24:00" is accepted as end of day.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
		}
	}

	if minute < 0 || minute > 59 || hour < 0 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}

	return NewClock(hour, minute), nil
}

// Add returns the clock shifted by the given number of minutes. The result may
// leave the [0, MinutesPerDay] range; callers check it.
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Day truncates t to its calendar date, expressed as UTC midnight.
// The calendar date is taken in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return Day(t).Format(models.DateLayout)
}

// AddDays returns the calendar date n days after t.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// NightsBetween is ceil((checkOut - checkIn) / 1 day), floored at zero.
func NightsBetween(checkIn, checkOut time.Time) int {
	days := Day(checkOut).Sub(Day(checkIn)).Hours() / 24
	n := int(math.Ceil(days))
	if n < 0 {
		return 0
	}
	return n
}

func dateKey(t time.Time) string {
	return FormatDate(t)
}
