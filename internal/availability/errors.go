package availability

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMalformedDate = errors.New("malformed date")
	ErrMalformedTime = errors.New("malformed time")
)

// RejectionKind classifies why a proposed stay or extension cannot proceed.
type RejectionKind string

const (
	// InputIncomplete means a required selection is missing; the UI disables submit.
	InputIncomplete RejectionKind = "input_incomplete"
	// DateConflict means the stay collides with whole-day reservations.
	DateConflict RejectionKind = "date_conflict"
	// TimeConflict means the hourly stay collides with a time-range reservation.
	TimeConflict RejectionKind = "time_conflict"
	// PolicyViolation means a booking rule forbids the selection.
	PolicyViolation RejectionKind = "policy_violation"
)

// Rejection is returned as data, never raised. Dates and Slots list what blocked
// the request, when applicable.
type Rejection struct {
	Kind    RejectionKind
	Message string
	Dates   []time.Time
	Slots   []TimeRange
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

func incomplete(msg string) *Rejection {
	return &Rejection{Kind: InputIncomplete, Message: msg}
}

func policy(msg string, dates ...time.Time) *Rejection {
	return &Rejection{Kind: PolicyViolation, Message: msg, Dates: dates}
}

func dateConflict(dates []time.Time) *Rejection {
	labels := make([]string, len(dates))
	for i, d := range dates {
		labels[i] = FormatDate(d)
	}
	return &Rejection{
		Kind:    DateConflict,
		Message: "the room is already booked on " + strings.Join(labels, ", "),
		Dates:   dates,
	}
}

func timeConflict(slots []TimeRange) *Rejection {
	labels := make([]string, len(slots))
	for i, s := range slots {
		labels[i] = s.String()
	}
	return &Rejection{
		Kind:    TimeConflict,
		Message: "the selected time overlaps " + strings.Join(labels, ", "),
		Slots:   slots,
	}
}
