package api

import (
	"fmt"
	"strings"
	"time"

	"innkeeper/internal/availability"
	"innkeeper/internal/models"
)

// Dates travel as YYYY-MM-DD and clock times as HH:MM.

type stayRequest struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

type hourlyRequest struct {
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	DurationHours int    `json:"duration_hours"`
}

type bookingRequest struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	CheckIn      string  `json:"check_in"`
	CheckOut     string  `json:"check_out"`
	CheckInTime  string  `json:"check_in_time"`
	CheckOutTime string  `json:"check_out_time"`
	NightlyRate  float64 `json:"nightly_rate"`
	RoomPrice    float64 `json:"room_price"`
	BookedHours  int     `json:"booked_hours"`
}

type extensionRequest struct {
	Booking     bookingRequest `json:"booking"`
	NewCheckOut string         `json:"new_check_out"`
	Hours       int            `json:"hours"`
}

type slotResponse struct {
	Date   string `json:"date"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Status string `json:"status,omitempty"`
}

type rejectionResponse struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Dates   []string       `json:"dates,omitempty"`
	Slots   []slotResponse `json:"slots,omitempty"`
}

type stayResponse struct {
	RoomID             string                    `json:"room_id"`
	Valid              bool                      `json:"valid"`
	CheckIn            string                    `json:"check_in,omitempty"`
	CheckOut           string                    `json:"check_out,omitempty"`
	MinCheckOut        string                    `json:"min_check_out,omitempty"`
	BetweenTwoBookings bool                      `json:"between_two_bookings"`
	NextDayBooked      bool                      `json:"next_day_booked"`
	SingleNight        bool                      `json:"single_night"`
	HideCheckOutPicker bool                      `json:"hide_check_out_picker"`
	Nights             int                       `json:"nights"`
	Rejection          *rejectionResponse        `json:"rejection,omitempty"`
	Submission         *models.BookingSubmission `json:"submission,omitempty"`
}

type durationOptionResponse struct {
	Hours     int            `json:"hours"`
	End       string         `json:"end"`
	Available bool           `json:"available"`
	Conflicts []slotResponse `json:"conflicts,omitempty"`
}

type hourlyResponse struct {
	RoomID        string                    `json:"room_id"`
	Valid         bool                      `json:"valid"`
	Date          string                    `json:"date,omitempty"`
	Start         string                    `json:"start,omitempty"`
	End           string                    `json:"end,omitempty"`
	DurationHours int                       `json:"duration_hours"`
	Options       []durationOptionResponse  `json:"options"`
	Conflicts     []slotResponse            `json:"conflicts,omitempty"`
	Rejection     *rejectionResponse        `json:"rejection,omitempty"`
	Submission    *models.BookingSubmission `json:"submission,omitempty"`
}

type extensionResponse struct {
	RoomID            string                      `json:"room_id"`
	BookingID         string                      `json:"booking_id"`
	State             string                      `json:"state"`
	Valid             bool                        `json:"valid"`
	SameDay           bool                        `json:"same_day"`
	NewCheckOut       string                      `json:"new_check_out,omitempty"`
	MinCheckOut       string                      `json:"min_check_out,omitempty"`
	SuggestedCheckOut string                      `json:"suggested_check_out,omitempty"`
	CheckOutLocked    bool                        `json:"check_out_locked"`
	Nights            int                         `json:"nights,omitempty"`
	NewCheckOutTime   string                      `json:"new_check_out_time,omitempty"`
	Hours             int                         `json:"hours,omitempty"`
	Cost              float64                     `json:"cost"`
	Conflicts         []slotResponse              `json:"conflicts,omitempty"`
	Rejection         *rejectionResponse          `json:"rejection,omitempty"`
	Submission        *models.ExtensionSubmission `json:"submission,omitempty"`
}

type dayResponse struct {
	Date           string         `json:"date"`
	RegularBlocked bool           `json:"regular_blocked"`
	HourlyBlocked  bool           `json:"hourly_blocked"`
	Slots          []slotResponse `json:"slots"`
}

// optionalDate parses s, treating blank input as "not selected".
func optionalDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	d, err := availability.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

func optionalClock(field, s string) (*availability.Clock, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	c, err := availability.ParseClock(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &c, nil
}

func (r stayRequest) query() (availability.StayQuery, error) {
	in, err := optionalDate("check_in", r.CheckIn)
	if err != nil {
		return availability.StayQuery{}, err
	}
	out, err := optionalDate("check_out", r.CheckOut)
	if err != nil {
		return availability.StayQuery{}, err
	}
	return availability.StayQuery{CheckIn: in, CheckOut: out}, nil
}

func (r hourlyRequest) query() (availability.HourlyQuery, error) {
	date, err := optionalDate("date", r.Date)
	if err != nil {
		return availability.HourlyQuery{}, err
	}
	start, err := optionalClock("start_time", r.StartTime)
	if err != nil {
		return availability.HourlyQuery{}, err
	}
	return availability.HourlyQuery{Date: date, Start: start, DurationHours: r.DurationHours}, nil
}

func (r extensionRequest) attempt() (availability.ExtensionAttempt, error) {
	b := r.Booking
	if strings.TrimSpace(b.ID) == "" {
		return availability.ExtensionAttempt{}, fmt.Errorf("booking.id is required")
	}
	booking := availability.ExistingBooking{
		ID:          strings.TrimSpace(b.ID),
		Type:        strings.ToLower(strings.TrimSpace(b.Type)),
		NightlyRate: b.NightlyRate,
		RoomPrice:   b.RoomPrice,
		BookedHours: b.BookedHours,
	}
	if booking.Type == "" {
		booking.Type = models.BookingTypeRegular
	}
	if booking.Type != models.BookingTypeRegular && booking.Type != models.BookingTypeHourly {
		return availability.ExtensionAttempt{}, fmt.Errorf("booking.type must be %q or %q", models.BookingTypeRegular, models.BookingTypeHourly)
	}

	var err error
	if booking.CheckIn, err = optionalDate("booking.check_in", b.CheckIn); err != nil {
		return availability.ExtensionAttempt{}, err
	}
	if booking.CheckOut, err = optionalDate("booking.check_out", b.CheckOut); err != nil {
		return availability.ExtensionAttempt{}, err
	}
	if booking.CheckOut.IsZero() {
		return availability.ExtensionAttempt{}, fmt.Errorf("booking.check_out is required")
	}
	if booking.Hourly() {
		in, err := optionalClock("booking.check_in_time", b.CheckInTime)
		if err != nil {
			return availability.ExtensionAttempt{}, err
		}
		out, err := optionalClock("booking.check_out_time", b.CheckOutTime)
		if err != nil {
			return availability.ExtensionAttempt{}, err
		}
		if in == nil || out == nil {
			return availability.ExtensionAttempt{}, fmt.Errorf("booking.check_in_time and booking.check_out_time are required for hourly bookings")
		}
		booking.CheckInTime = *in
		booking.CheckOutTime = *out
	}

	a := availability.NewExtensionAttempt(booking)
	if booking.Hourly() {
		if r.Hours != 0 {
			a = a.WithHours(r.Hours)
		}
		return a, nil
	}
	selected, err := optionalDate("new_check_out", r.NewCheckOut)
	if err != nil {
		return availability.ExtensionAttempt{}, err
	}
	if !selected.IsZero() {
		a = a.WithCheckOut(selected)
	}
	return a, nil
}

func formatOptionalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return availability.FormatDate(t)
}

func toDateStrings(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = availability.FormatDate(d)
	}
	return out
}

func toSlots(ranges []availability.TimeRange) []slotResponse {
	if len(ranges) == 0 {
		return nil
	}
	out := make([]slotResponse, len(ranges))
	for i, r := range ranges {
		out[i] = slotResponse{
			Date:   availability.FormatDate(r.Date),
			Start:  r.Start.String(),
			End:    r.End.String(),
			Status: r.Status,
		}
	}
	return out
}

func toRejection(r *availability.Rejection) *rejectionResponse {
	if r == nil {
		return nil
	}
	resp := &rejectionResponse{
		Kind:    string(r.Kind),
		Message: r.Message,
		Slots:   toSlots(r.Slots),
	}
	if len(r.Dates) > 0 {
		resp.Dates = toDateStrings(r.Dates)
	}
	return resp
}

func toDays(days []availability.DayStatus) []dayResponse {
	out := make([]dayResponse, len(days))
	for i, d := range days {
		slots := toSlots(d.Ranges)
		if slots == nil {
			slots = []slotResponse{}
		}
		out[i] = dayResponse{
			Date:           availability.FormatDate(d.Date),
			RegularBlocked: d.RegularBlocked,
			HourlyBlocked:  d.HourlyBlocked,
			Slots:          slots,
		}
	}
	return out
}
