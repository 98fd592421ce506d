package availability

import (
	"sort"
	"time"

	"innkeeper/internal/models"
)

// Rules holds the tunable booking policies.
type Rules struct {
	// AfternoonCutoff: an hourly booking starting at or after it blocks the date
	// for whole-day bookings.
	AfternoonCutoff Clock
	// ExtensionBuffer is the turnover padding, in minutes, added to the end of an
	// existing hourly booking when an extension is checked against it.
	ExtensionBuffer int
	// DurationOptions are the hourly durations offered in the hour picker.
	DurationOptions []int
}

// DefaultRules returns noon cutoff, a 60 minute buffer and 1..4 hour durations.
func DefaultRules() Rules {
	return Rules{
		AfternoonCutoff: Noon,
		ExtensionBuffer: models.DefaultExtensionBufferMinutes,
		DurationOptions: append([]int(nil), models.DefaultDurationOptions...),
	}
}

// Evaluator answers availability questions under a fixed set of rules.
// It holds no mutable state and may be shared between goroutines.
type Evaluator struct {
	rules Rules
}

func NewEvaluator(rules Rules) *Evaluator {
	if rules.ExtensionBuffer < 0 {
		rules.ExtensionBuffer = 0
	}
	if len(rules.DurationOptions) == 0 {
		rules.DurationOptions = models.DefaultDurationOptions
	}
	opts := make([]int, 0, len(rules.DurationOptions))
	seen := make(map[int]bool, len(rules.DurationOptions))
	for _, h := range rules.DurationOptions {
		if h > 0 && !seen[h] {
			seen[h] = true
			opts = append(opts, h)
		}
	}
	sort.Ints(opts)
	rules.DurationOptions = opts
	return &Evaluator{rules: rules}
}

// Rules returns a copy of the evaluator's rules.
func (e *Evaluator) Rules() Rules {
	r := e.rules
	r.DurationOptions = append([]int(nil), e.rules.DurationOptions...)
	return r
}

// IsBetweenTwoBookings reports whether day is a single free night bracketed by
// check-ins on the day before and the day after. Check-ins on the next two
// days are caught by IsNextDayBooked, which forces the same single night.
func IsBetweenTwoBookings(cal *Calendar, day time.Time) bool {
	return cal.HasCheckIn(AddDays(day, -1)) && cal.HasCheckIn(AddDays(day, 1))
}

// IsNextDayBooked reports whether a check-in lands on the day after day.
func IsNextDayBooked(cal *Calendar, day time.Time) bool {
	return cal.HasCheckIn(AddDays(day, 1))
}

// MinCheckOut is check-in+1 when a check-in is chosen, otherwise today+1.
func MinCheckOut(checkIn, today time.Time) time.Time {
	if checkIn.IsZero() {
		return AddDays(today, 1)
	}
	return AddDays(checkIn, 1)
}
