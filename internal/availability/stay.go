package availability

import "time"

// StayQuery is a candidate whole-day (regular) booking. Zero dates mean "not
// selected yet".
type StayQuery struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// StayDecision describes a candidate regular booking and the UI state it implies.
type StayDecision struct {
	CheckIn     time.Time
	CheckOut    time.Time
	MinCheckOut time.Time

	BetweenTwoBookings bool
	NextDayBooked      bool
	// SingleNight forces CheckOut to CheckIn+1.
	SingleNight        bool
	HideCheckOutPicker bool

	Nights    int
	Rejection *Rejection
}

// Valid reports whether the stay may be submitted.
func (d StayDecision) Valid() bool {
	return d.Rejection == nil
}

// BlockedDatesRegular lists the dates a regular check-in cannot be placed on:
// every check-in plus every date with an active hourly booking starting at or
// after the afternoon cutoff.
func (e *Evaluator) BlockedDatesRegular(cal *Calendar) []time.Time {
	set := e.blockedRegular(cal)
	out := make([]time.Time, 0, len(set))
	for _, d := range set {
		out = append(out, d)
	}
	sortDates(out)
	return out
}

func (e *Evaluator) blockedRegular(cal *Calendar) map[string]time.Time {
	set := make(map[string]time.Time)
	for _, d := range cal.CheckIns() {
		set[dateKey(d)] = d
	}
	for _, r := range cal.TimeRanges() {
		if r.Active() && r.Start >= e.rules.AfternoonCutoff {
			set[dateKey(r.Date)] = r.Date
		}
	}
	return set
}

// EvaluateStay decides a date-based booking. today anchors the minimum
// check-out when no check-in is chosen and rejects check-ins in the past.
func (e *Evaluator) EvaluateStay(cal *Calendar, q StayQuery, today time.Time) StayDecision {
	d := StayDecision{MinCheckOut: MinCheckOut(q.CheckIn, today)}
	if q.CheckIn.IsZero() {
		d.Rejection = incomplete("select a check-in date")
		return d
	}

	in := Day(q.CheckIn)
	d.CheckIn = in
	d.BetweenTwoBookings = IsBetweenTwoBookings(cal, in)
	d.NextDayBooked = IsNextDayBooked(cal, in)

	if in.Before(Day(today)) {
		d.Rejection = policy("check-in date is in the past", in)
		return d
	}

	if d.BetweenTwoBookings || d.NextDayBooked {
		d.SingleNight = true
		d.HideCheckOutPicker = true
		d.CheckOut = AddDays(in, 1)
		d.Nights = 1
	} else {
		if q.CheckOut.IsZero() {
			d.Rejection = incomplete("select a check-out date")
			return d
		}
		d.CheckOut = Day(q.CheckOut)
		if !d.CheckOut.After(in) {
			d.Rejection = policy("check-out date must be after the check-in date", d.CheckOut)
			return d
		}
		d.Nights = NightsBetween(in, d.CheckOut)
	}

	var conflicts []time.Time
	for _, b := range e.blockedRegular(cal) {
		if DateRangesOverlap(in, d.CheckOut, b, AddDays(b, 1)) {
			conflicts = append(conflicts, b)
		}
	}
	if len(conflicts) > 0 {
		sortDates(conflicts)
		d.Rejection = dateConflict(conflicts)
	}

	return d
}
