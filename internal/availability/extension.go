package availability

import (
	"fmt"
	"time"

	"innkeeper/internal/models"
)

// ExistingBooking is the confirmed booking being extended. For hourly bookings
// CheckIn holds the booking date.
type ExistingBooking struct {
	ID           string
	Type         string
	CheckIn      time.Time
	CheckOut     time.Time
	CheckInTime  Clock
	CheckOutTime Clock
	NightlyRate  float64
	RoomPrice    float64
	BookedHours  int
}

// Hourly reports whether the booking is time-based.
func (b ExistingBooking) Hourly() bool {
	return b.Type == models.BookingTypeHourly
}

// ExtensionState is a step of an extension attempt.
type ExtensionState string

const (
	ExtensionIdle          ExtensionState = "idle"
	ExtensionDateSelected  ExtensionState = "date_selected"
	ExtensionHoursSelected ExtensionState = "hours_selected"
	ExtensionValid         ExtensionState = "valid"
	ExtensionRejected      ExtensionState = "rejected"
)

// ExtensionAttempt tracks the user's selection. Values are immutable: the With
// methods return updated copies.
type ExtensionAttempt struct {
	Booking     ExistingBooking
	State       ExtensionState
	NewCheckOut time.Time
	Hours       int
}

func NewExtensionAttempt(b ExistingBooking) ExtensionAttempt {
	return ExtensionAttempt{Booking: b, State: ExtensionIdle}
}

// WithCheckOut selects a new check-out date.
func (a ExtensionAttempt) WithCheckOut(date time.Time) ExtensionAttempt {
	a.NewCheckOut = Day(date)
	a.Hours = 0
	a.State = ExtensionDateSelected
	return a
}

// WithHours selects the number of extra hours.
func (a ExtensionAttempt) WithHours(hours int) ExtensionAttempt {
	a.Hours = hours
	a.NewCheckOut = time.Time{}
	a.State = ExtensionHoursSelected
	return a
}

// ExtensionDecision is the outcome of resolving an attempt. Cost is for display
// only and is never submitted.
type ExtensionDecision struct {
	State ExtensionState

	// Date-based.
	SameDay           bool
	NewCheckOut       time.Time
	MinCheckOut       time.Time
	SuggestedCheckOut time.Time
	CheckOutLocked    bool
	Nights            int

	// Hourly.
	NewCheckOutTime Clock
	Hours           int
	Conflicts       []TimeRange

	Cost      float64
	Rejection *Rejection
}

func (d ExtensionDecision) Valid() bool {
	return d.State == ExtensionValid
}

// Resolve evaluates an attempt against the room calendar.
func (e *Evaluator) Resolve(cal *Calendar, a ExtensionAttempt, today time.Time) ExtensionDecision {
	if a.Booking.Hourly() {
		return e.ResolveHourlyExtension(cal, a.Booking, a.Hours)
	}
	return e.ResolveDateExtension(cal, a.Booking, a.NewCheckOut, today)
}

// ResolveDateExtension moves a regular booking's check-out to selected. A zero
// selected date resolves to the locked suggestion when there is one.
func (e *Evaluator) ResolveDateExtension(cal *Calendar, b ExistingBooking, selected, today time.Time) ExtensionDecision {
	cur := Day(b.CheckOut)
	today = Day(today)
	next := AddDays(cur, 1)
	sameDayAllowed := cur.Equal(today) && !cal.HasCheckIn(today)

	d := ExtensionDecision{MinCheckOut: next}
	if sameDayAllowed {
		d.MinCheckOut = cur
	}

	reject := func(r *Rejection) ExtensionDecision {
		d.State = ExtensionRejected
		d.Rejection = r
		return d
	}

	if cal.HasHourly(next) {
		return reject(policy("the day after the current check-out has hourly bookings, extend with a new booking instead", next))
	}

	if cal.HasCheckIn(next) {
		d.SuggestedCheckOut = next
		d.CheckOutLocked = true
	}

	if selected.IsZero() {
		if !d.CheckOutLocked {
			d.State = ExtensionIdle
			d.Rejection = incomplete("select a new check-out date")
			return d
		}
		selected = next
	}
	sel := Day(selected)

	effective := sel
	switch {
	case sel.Equal(cur) && sameDayAllowed:
		d.SameDay = true
		effective = next
	case !sel.After(cur):
		return reject(policy(fmt.Sprintf("the new check-out date must be after %s", FormatDate(cur)), sel))
	}
	d.NewCheckOut = effective

	// Nights strictly after the current check-out; a check-in on either
	// boundary does not conflict.
	var conflicts []time.Time
	for _, in := range cal.CheckIns() {
		if DateRangesOverlap(next, effective, in, AddDays(in, 1)) {
			conflicts = append(conflicts, in)
		}
	}
	if len(conflicts) > 0 {
		return reject(dateConflict(conflicts))
	}

	if d.SameDay {
		d.Nights = 1
	} else {
		d.Nights = NightsBetween(cur, effective)
	}
	d.Cost = float64(d.Nights) * b.NightlyRate
	d.State = ExtensionValid
	return d
}

// ResolveHourlyExtension pushes an hourly booking's end by hours. Existing
// reservations of the same date are padded with the turnover buffer; the
// booking's own slot is ignored.
func (e *Evaluator) ResolveHourlyExtension(cal *Calendar, b ExistingBooking, hours int) ExtensionDecision {
	d := ExtensionDecision{Hours: hours}

	switch {
	case hours == 0:
		d.State = ExtensionIdle
		d.Rejection = incomplete("select the number of hours")
		return d
	case hours < 0:
		d.State = ExtensionRejected
		d.Rejection = policy("extension hours must be positive")
		return d
	}

	day := Day(b.CheckIn)
	d.NewCheckOutTime = b.CheckOutTime.Add(hours * 60)
	if d.NewCheckOutTime > MinutesPerDay {
		d.State = ExtensionRejected
		d.Rejection = policy("an hourly booking cannot be extended past midnight", day)
		return d
	}

	for _, r := range cal.ActiveRangesOn(day) {
		if r.Start == b.CheckInTime && r.End == b.CheckOutTime {
			continue
		}
		if TimeRangesOverlap(b.CheckOutTime, d.NewCheckOutTime, r.Start, r.End, e.rules.ExtensionBuffer) {
			d.Conflicts = append(d.Conflicts, r)
		}
	}
	if len(d.Conflicts) > 0 {
		d.State = ExtensionRejected
		d.Rejection = timeConflict(d.Conflicts)
		return d
	}

	// Without a recorded length the original slot gives the booked hours.
	booked := float64(b.BookedHours)
	if booked <= 0 {
		booked = float64(b.CheckOutTime-b.CheckInTime) / 60
	}
	if booked > 0 {
		d.Cost = float64(hours) * (b.RoomPrice / booked)
	}
	d.State = ExtensionValid
	return d
}
