package availability

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"innkeeper/internal/models"
)

// TimeRange is an hourly reservation confined to a single date.
type TimeRange struct {
	Date   time.Time
	Start  Clock
	End    Clock
	Status string
}

// Active reports whether the reservation blocks the room. Only cancelled
// reservations are ignored.
func (r TimeRange) Active() bool {
	status := strings.ToLower(strings.TrimSpace(r.Status))
	return status != models.StatusCancelled && status != models.StatusCanceled
}

func (r TimeRange) String() string {
	s := fmt.Sprintf("%s-%s", r.Start, r.End)
	if r.Status != "" {
		s += " (" + strings.ToLower(r.Status) + ")"
	}
	return s
}

// Calendar is the normalized booking calendar of one room. It is immutable once
// built and safe for concurrent reads.
type Calendar struct {
	checkIns map[string]time.Time
	ranges   []TimeRange
	active   map[string][]TimeRange
}

// BuildCalendar normalizes whole-day check-in dates and hourly reservations.
// Dates are truncated and deduplicated. An end of 00:00 means midnight. Ranges
// with a zero date or an end not after their start are dropped.
func BuildCalendar(dates []time.Time, ranges []TimeRange) *Calendar {
	c := &Calendar{
		checkIns: make(map[string]time.Time, len(dates)),
		ranges:   make([]TimeRange, 0, len(ranges)),
		active:   make(map[string][]TimeRange),
	}

	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		day := Day(d)
		c.checkIns[dateKey(day)] = day
	}

	for _, r := range ranges {
		if r.Date.IsZero() {
			continue
		}
		r.Date = Day(r.Date)
		if r.Start < 0 {
			r.Start = 0
		}
		if r.End == 0 || r.End > MinutesPerDay {
			r.End = MinutesPerDay
		}
		if r.End <= r.Start {
			continue
		}
		c.ranges = append(c.ranges, r)
		if r.Active() {
			key := dateKey(r.Date)
			c.active[key] = append(c.active[key], r)
		}
	}

	for key := range c.active {
		sort.SliceStable(c.active[key], func(i, j int) bool {
			return c.active[key][i].Start < c.active[key][j].Start
		})
	}

	return c
}

// ParseCalendar converts the booking-data payload into a Calendar. Malformed
// date or time strings fail the whole calendar.
func ParseCalendar(raw *models.BookedDates) (*Calendar, error) {
	if raw == nil {
		return BuildCalendar(nil, nil), nil
	}

	dates := make([]time.Time, 0, len(raw.BookedDates))
	for _, s := range raw.BookedDates {
		d, err := ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("booked date: %w", err)
		}
		dates = append(dates, d)
	}

	ranges := make([]TimeRange, 0, len(raw.TimeBasedBookings))
	for i, tb := range raw.TimeBasedBookings {
		d, err := ParseDate(tb.Date)
		if err != nil {
			return nil, fmt.Errorf("time-based booking %d: %w", i, err)
		}
		start, err := ParseClock(tb.CheckInTime)
		if err != nil {
			return nil, fmt.Errorf("time-based booking %d check-in: %w", i, err)
		}
		end, err := ParseClock(tb.CheckOutTime)
		if err != nil {
			return nil, fmt.Errorf("time-based booking %d check-out: %w", i, err)
		}
		ranges = append(ranges, TimeRange{Date: d, Start: start, End: end, Status: tb.Status})
	}

	return BuildCalendar(dates, ranges), nil
}

// HasCheckIn reports whether a whole-day reservation starts on day.
func (c *Calendar) HasCheckIn(day time.Time) bool {
	if c == nil {
		return false
	}
	_, ok := c.checkIns[dateKey(day)]
	return ok
}

// HasHourly reports whether day carries at least one active hourly reservation.
func (c *Calendar) HasHourly(day time.Time) bool {
	if c == nil {
		return false
	}
	return len(c.active[dateKey(day)]) > 0
}

// CheckIns returns the whole-day check-in dates in ascending order.
func (c *Calendar) CheckIns() []time.Time {
	if c == nil {
		return nil
	}
	out := make([]time.Time, 0, len(c.checkIns))
	for _, d := range c.checkIns {
		out = append(out, d)
	}
	sortDates(out)
	return out
}

// TimeRanges returns every hourly reservation, cancelled ones included, in input order.
func (c *Calendar) TimeRanges() []TimeRange {
	if c == nil {
		return nil
	}
	return append([]TimeRange(nil), c.ranges...)
}

// ActiveRangesOn returns the blocking hourly reservations of day ordered by start.
func (c *Calendar) ActiveRangesOn(day time.Time) []TimeRange {
	if c == nil {
		return nil
	}
	return append([]TimeRange(nil), c.active[dateKey(day)]...)
}

func sortDates(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}
