package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"innkeeper/internal/availability"
	"innkeeper/internal/calendarapi"
	"innkeeper/internal/catalog"
	"innkeeper/internal/config"
	"innkeeper/internal/models"
	"innkeeper/internal/repository"
	"innkeeper/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubSource struct {
	calendars map[string]*models.BookedDates
	err       error
	calls     int
}

func (s *stubSource) GetBookedDates(_ context.Context, roomID string) (*models.BookedDates, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if cal, ok := s.calendars[roomID]; ok {
		return cal, nil
	}
	return &models.BookedDates{}, nil
}

var testCalendar = &models.BookedDates{
	BookedDates: []string{"2025-03-09", "2025-03-11", "2025-03-20"},
	TimeBasedBookings: []models.TimeBasedBooking{
		{Date: "2025-03-15", CheckInTime: "14:00", CheckOutTime: "16:00", Status: "confirmed"},
		{Date: "2025-03-15", CheckInTime: "18:00", CheckOutTime: "19:00", Status: "cancelled"},
	},
}

const (
	testKey   = "key-1"
	testExtra = "extra-1"
)

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true, Port: 0},
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			HeaderExtra:  "x-api-extra",
			APIKeys: []config.APIClientKey{
				{Key: testKey, Extra: testExtra, Name: "frontend"},
				{Key: "key-ro", Extra: "extra-ro", Permissions: []string{permReadAvailability}},
			},
		},
	}
}

func newTestServer(t *testing.T, source *stubSource) *HTTPServer {
	t.Helper()
	if source == nil {
		source = &stubSource{calendars: map[string]*models.BookedDates{"101": testCalendar}}
	}
	rooms := catalog.NewStore([]models.Room{
		{ID: "101", HotelID: "h-1", Name: "Double", HourlyEnabled: true, IsActive: true},
		{ID: "102", HotelID: "h-1", Name: "Suite", IsActive: true},
	})
	logger := zerolog.Nop()
	svc := service.NewAvailabilityService(rooms, source, repository.NewMemoryCalendarCache(time.Minute), nil, nil, &logger)
	svc.SetClock(time.UTC, func() time.Time { return time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC) })
	return NewHTTPServer(testAPIConfig(), svc, rooms, nil, &logger)
}

func doRequest(t *testing.T, srv *HTTPServer, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("x-api-key", testKey)
	req.Header.Set("x-api-extra", testExtra)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}

func TestBlockedDates(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/rooms/101/blocked-dates", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "regular", body["type"])
	assert.Equal(t, "2025-03-05", body["today"])
	assert.Equal(t, []any{"2025-03-09", "2025-03-11", "2025-03-15", "2025-03-20"}, body["dates"])

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/rooms/101/blocked-dates?type=hourly", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[map[string]any](t, rec)
	assert.Equal(t, []any{"2025-03-09", "2025-03-11", "2025-03-20"}, body["dates"])
}

func TestBlockedDatesErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name string
		path string
		code int
	}{
		{"unknown room", "/api/v1/rooms/999/blocked-dates", http.StatusNotFound},
		{"bad type", "/api/v1/rooms/101/blocked-dates?type=weekly", http.StatusBadRequest},
		{"hourly unsupported", "/api/v1/rooms/102/blocked-dates?type=hourly", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestEvaluateStay(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/rooms/101/stays/evaluate", stayRequest{CheckIn: "2025-03-10"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[stayResponse](t, rec)

	assert.True(t, resp.Valid)
	assert.True(t, resp.BetweenTwoBookings)
	assert.True(t, resp.SingleNight)
	assert.True(t, resp.HideCheckOutPicker)
	assert.Equal(t, "2025-03-11", resp.CheckOut)
	assert.Equal(t, 1, resp.Nights)
	require.NotNil(t, resp.Submission)
	assert.Equal(t, "2025-03-10", resp.Submission.CheckInDate)
	assert.Equal(t, "2025-03-11", resp.Submission.CheckOutDate)
	assert.Equal(t, models.BookingTypeRegular, resp.Submission.BookingType)
}

func TestEvaluateStayRejection(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/rooms/101/stays/evaluate",
		stayRequest{CheckIn: "2025-03-18", CheckOut: "2025-03-22"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[stayResponse](t, rec)

	assert.False(t, resp.Valid)
	assert.Nil(t, resp.Submission)
	require.NotNil(t, resp.Rejection)
	assert.Equal(t, string(availability.DateConflict), resp.Rejection.Kind)
	assert.Equal(t, []string{"2025-03-20"}, resp.Rejection.Dates)
}

func TestEvaluateStayBadInput(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/rooms/101/stays/evaluate", stayRequest{CheckIn: "10.03.2025"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/rooms/101/stays/evaluate", map[string]string{"unknown": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluateHourly(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/rooms/101/hourly/evaluate",
		hourlyRequest{Date: "2025-03-15", StartTime: "12:00", DurationHours: 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[hourlyResponse](t, rec)

	assert.False(t, resp.Valid)
	require.NotNil(t, resp.Rejection)
	assert.Equal(t, string(availability.TimeConflict), resp.Rejection.Kind)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, "14:00", resp.Conflicts[0].Start)

	require.Len(t, resp.Options, 4)
	assert.True(t, resp.Options[0].Available)
	assert.True(t, resp.Options[1].Available)
	assert.False(t, resp.Options[2].Available)
	assert.False(t, resp.Options[3].Available)

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/rooms/101/hourly/evaluate",
		hourlyRequest{Date: "2025-03-15", StartTime: "16:00", DurationHours: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[hourlyResponse](t, rec)
	assert.True(t, resp.Valid)
	assert.Equal(t, "19:00", resp.End)
	require.NotNil(t, resp.Submission)
	assert.Equal(t, "16:00", resp.Submission.CheckInTime)
	assert.Equal(t, 3, resp.Submission.BookHours)
}

func TestEvaluateExtension(t *testing.T) {
	srv := newTestServer(t, nil)

	req := extensionRequest{
		Booking: bookingRequest{
			ID:          "b-1",
			Type:        "regular",
			CheckIn:     "2025-03-05",
			CheckOut:    "2025-03-07",
			NightlyRate: 100,
		},
		NewCheckOut: "2025-03-09",
	}
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/rooms/101/extensions/evaluate", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[extensionResponse](t, rec)

	assert.True(t, resp.Valid)
	assert.Equal(t, "b-1", resp.BookingID)
	assert.Equal(t, 2, resp.Nights)
	assert.InDelta(t, 200, resp.Cost, 0.001)
	require.NotNil(t, resp.Submission)
	assert.Equal(t, "2025-03-09", resp.Submission.NewCheckOutDate)
	assert.True(t, resp.Submission.Extension)
}

func TestEvaluateExtensionHourly(t *testing.T) {
	srv := newTestServer(t, nil)

	req := extensionRequest{
		Booking: bookingRequest{
			ID:           "b-2",
			Type:         "hourly",
			CheckIn:      "2025-03-15",
			CheckOut:     "2025-03-15",
			CheckInTime:  "10:00",
			CheckOutTime: "12:00",
			RoomPrice:    60,
			BookedHours:  2,
		},
		Hours: 3,
	}
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/rooms/101/extensions/evaluate", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[extensionResponse](t, rec)

	// 12:00 + 3h runs into the 14:00 booking.
	assert.False(t, resp.Valid)
	require.NotNil(t, resp.Rejection)
	assert.Equal(t, string(availability.TimeConflict), resp.Rejection.Kind)

	req.Hours = 1
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/rooms/101/extensions/evaluate", req)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[extensionResponse](t, rec)
	assert.True(t, resp.Valid)
	assert.Equal(t, "13:00", resp.NewCheckOutTime)
	require.NotNil(t, resp.Submission)
	assert.Equal(t, 1, resp.Submission.BookHour)
}

func TestEvaluateExtensionHourlyOwnSlot(t *testing.T) {
	srv := newTestServer(t, nil)

	// The booking being extended is the 14:00-16:00 slot on the calendar.
	req := extensionRequest{
		Booking: bookingRequest{
			ID:           "b-3",
			Type:         "hourly",
			CheckIn:      "2025-03-15",
			CheckOut:     "2025-03-15",
			CheckInTime:  "14:00",
			CheckOutTime: "16:00",
			RoomPrice:    100,
		},
		Hours: 1,
	}
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/rooms/101/extensions/evaluate", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[extensionResponse](t, rec)

	assert.True(t, resp.Valid, rec.Body.String())
	assert.Equal(t, "17:00", resp.NewCheckOutTime)
	assert.InDelta(t, 50, resp.Cost, 0.001)

	req.Booking.CheckInTime = ""
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/rooms/101/extensions/evaluate", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "check_in_time")
}

func TestEvaluateExtensionBadBooking(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/rooms/101/extensions/evaluate",
		extensionRequest{Booking: bookingRequest{CheckOut: "2025-03-07"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/rooms/101/extensions/evaluate",
		extensionRequest{Booking: bookingRequest{ID: "b-1", Type: "hourly", CheckOut: "2025-03-07"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpstreamFailure(t *testing.T) {
	source := &stubSource{err: fmt.Errorf("%w: room 101: connection refused", calendarapi.ErrUpstream)}
	srv := newTestServer(t, source)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/rooms/101/stays/evaluate", stayRequest{CheckIn: "2025-03-10"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestMalformedUpstreamCalendar(t *testing.T) {
	source := &stubSource{calendars: map[string]*models.BookedDates{
		"101": {BookedDates: []string{"not-a-date"}},
	}}
	srv := newTestServer(t, source)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/rooms/101/blocked-dates", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed date")
}

func TestReport(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/rooms/101/report.xlsx?from=2025-03-09&to=2025-03-15", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "availability_101_2025-03-09_to_2025-03-15.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Availability")
	require.NoError(t, err)
	// title, header and seven days
	assert.Len(t, rows, 9)
}

func TestReportErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/rooms/101/report.xlsx?from=2025-03-10&to=2025-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/rooms/101/report.xlsx?from=2025-01-01&to=2025-12-31", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/rooms/999/report.xlsx", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidateCalendar(t *testing.T) {
	source := &stubSource{calendars: map[string]*models.BookedDates{"101": testCalendar}}
	srv := newTestServer(t, source)

	doRequest(t, srv, http.MethodGet, "/api/v1/rooms/101/blocked-dates", nil)
	doRequest(t, srv, http.MethodGet, "/api/v1/rooms/101/blocked-dates", nil)
	assert.Equal(t, 1, source.calls)

	rec := doRequest(t, srv, http.MethodDelete, "/api/v1/rooms/101/calendar", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	doRequest(t, srv, http.MethodGet, "/api/v1/rooms/101/blocked-dates", nil)
	assert.Equal(t, 2, source.calls)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("x: %w", service.ErrRoomNotFound), http.StatusNotFound},
		{calendarapi.ErrNotFound, http.StatusNotFound},
		{service.ErrInvalidRange, http.StatusBadRequest},
		{service.ErrHourlyUnsupported, http.StatusUnprocessableEntity},
		{fmt.Errorf("cal: %w", availability.ErrMalformedTime), http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, statusForError(tt.err), tt.err.Error())
	}
}
