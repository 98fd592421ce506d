package availability

import (
	"fmt"
	"time"
)

// HourlyQuery is a candidate hourly booking. A nil Start or zero Date means
// "not selected yet".
type HourlyQuery struct {
	Date          time.Time
	Start         *Clock
	DurationHours int
}

// DurationOption reports whether one hour-picker option fits the day.
type DurationOption struct {
	Hours     int
	End       Clock
	Available bool
	Conflicts []TimeRange
}

// HourlyDecision describes a candidate hourly booking.
type HourlyDecision struct {
	Date          time.Time
	Start         Clock
	End           Clock
	DurationHours int
	Options       []DurationOption
	Conflicts     []TimeRange
	Rejection     *Rejection
}

func (d HourlyDecision) Valid() bool {
	return d.Rejection == nil
}

// BlockedDatesHourly lists dates holding a regular check-in and no hourly
// booking yet.
func BlockedDatesHourly(cal *Calendar) []time.Time {
	var out []time.Time
	for _, d := range cal.CheckIns() {
		if !cal.HasHourly(d) {
			out = append(out, d)
		}
	}
	return out
}

// HourlyConflicts returns the active reservations of day overlapping
// [start, end). New bookings are checked without a buffer.
func HourlyConflicts(cal *Calendar, day time.Time, start, end Clock) []TimeRange {
	var out []TimeRange
	for _, r := range cal.ActiveRangesOn(day) {
		if TimeRangesOverlap(start, end, r.Start, r.End, 0) {
			out = append(out, r)
		}
	}
	return out
}

// EvaluateHourly decides an hourly booking and flags every configured duration
// for the chosen start.
func (e *Evaluator) EvaluateHourly(cal *Calendar, q HourlyQuery) HourlyDecision {
	d := HourlyDecision{DurationHours: q.DurationHours}
	if q.Date.IsZero() {
		d.Rejection = incomplete("select a date")
		return d
	}
	d.Date = Day(q.Date)

	for _, b := range BlockedDatesHourly(cal) {
		if b.Equal(d.Date) {
			d.Rejection = dateConflict([]time.Time{b})
			return d
		}
	}

	if q.Start == nil {
		d.Rejection = incomplete("select a start time")
		return d
	}
	d.Start = *q.Start
	if d.Start < 0 || d.Start >= MinutesPerDay {
		d.Rejection = policy(fmt.Sprintf("start time %s is outside the day", d.Start))
		return d
	}

	d.Options = make([]DurationOption, 0, len(e.rules.DurationOptions))
	for _, h := range e.rules.DurationOptions {
		opt := DurationOption{Hours: h, End: d.Start.Add(h * 60)}
		if opt.End <= MinutesPerDay {
			opt.Conflicts = HourlyConflicts(cal, d.Date, d.Start, opt.End)
			opt.Available = len(opt.Conflicts) == 0
		}
		d.Options = append(d.Options, opt)
	}

	if q.DurationHours <= 0 {
		d.Rejection = incomplete("select a duration")
		return d
	}

	d.End = d.Start.Add(q.DurationHours * 60)
	if d.End > MinutesPerDay {
		d.Rejection = policy("an hourly booking cannot run past midnight", d.Date)
		return d
	}

	d.Conflicts = HourlyConflicts(cal, d.Date, d.Start, d.End)
	if len(d.Conflicts) > 0 {
		d.Rejection = timeConflict(d.Conflicts)
	}

	return d
}

// DayStatus summarizes one calendar date.
type DayStatus struct {
	Date           time.Time
	RegularBlocked bool
	HourlyBlocked  bool
	Ranges         []TimeRange
}

// DayStatuses reports every date of [from, to] inclusive. An empty slice is
// returned when to precedes from.
func (e *Evaluator) DayStatuses(cal *Calendar, from, to time.Time) []DayStatus {
	from, to = Day(from), Day(to)
	if to.Before(from) {
		return nil
	}

	regular := e.blockedRegular(cal)
	hourly := make(map[string]bool)
	for _, d := range BlockedDatesHourly(cal) {
		hourly[dateKey(d)] = true
	}

	var out []DayStatus
	for day := from; !day.After(to); day = AddDays(day, 1) {
		key := dateKey(day)
		_, blocked := regular[key]
		out = append(out, DayStatus{
			Date:           day,
			RegularBlocked: blocked,
			HourlyBlocked:  hourly[key],
			Ranges:         cal.ActiveRangesOn(day),
		})
	}
	return out
}
