package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"innkeeper/internal/availability"
	"innkeeper/internal/calendarapi"
	"innkeeper/internal/config"
	"innkeeper/internal/domain"
	"innkeeper/internal/logging"
	"innkeeper/internal/models"
	"innkeeper/internal/report"
	"innkeeper/internal/service"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// HTTPServer exposes the availability decisions as a JSON API.
type HTTPServer struct {
	cfg     config.APIConfig
	svc     domain.AvailabilityService
	rooms   domain.RoomCatalog
	server  *http.Server
	auth    *HTTPAuth
	log     *zerolog.Logger
	handler http.Handler
}

func NewHTTPServer(
	cfg config.APIConfig,
	svc domain.AvailabilityService,
	rooms domain.RoomCatalog,
	limiter *RateLimiter,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:   cfg,
		svc:   svc,
		rooms: rooms,
		auth:  NewHTTPAuth(cfg, limiter),
		log:   logging.Component(logger, "http"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", srv.handleHealth)
	mux.Handle("GET /api/v1/rooms/{roomID}/blocked-dates", srv.auth.Require(permReadAvailability, srv.handleBlockedDates))
	mux.Handle("POST /api/v1/rooms/{roomID}/stays/evaluate", srv.auth.Require(permReadAvailability, srv.handleEvaluateStay))
	mux.Handle("POST /api/v1/rooms/{roomID}/hourly/evaluate", srv.auth.Require(permReadAvailability, srv.handleEvaluateHourly))
	mux.Handle("POST /api/v1/rooms/{roomID}/extensions/evaluate", srv.auth.Require(permReadAvailability, srv.handleEvaluateExtension))
	mux.Handle("GET /api/v1/rooms/{roomID}/report.xlsx", srv.auth.Require(permReadReports, srv.handleReport))
	mux.Handle("DELETE /api/v1/rooms/{roomID}/calendar", srv.auth.Require(permWriteCalendar, srv.handleInvalidateCalendar))

	srv.handler = requestMiddleware(srv.log, mux)
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the fully wrapped router.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleBlockedDates(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomID")
	bookingType := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("type")))
	if bookingType == "" {
		bookingType = models.BookingTypeRegular
	}

	dates, err := s.svc.BlockedDates(r.Context(), roomID, bookingType)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"room_id": roomID,
		"type":    bookingType,
		"today":   availability.FormatDate(s.svc.Today()),
		"dates":   toDateStrings(dates),
	})
}

func (s *HTTPServer) handleEvaluateStay(w http.ResponseWriter, r *http.Request) {
	var body stayRequest
	if !decodeBody(w, r, &body) {
		return
	}
	q, err := body.query()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.svc.EvaluateStay(r.Context(), r.PathValue("roomID"), q)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	d := res.Decision
	writeJSON(w, http.StatusOK, stayResponse{
		RoomID:             res.Room.ID,
		Valid:              d.Valid(),
		CheckIn:            formatOptionalDate(d.CheckIn),
		CheckOut:           formatOptionalDate(d.CheckOut),
		MinCheckOut:        formatOptionalDate(d.MinCheckOut),
		BetweenTwoBookings: d.BetweenTwoBookings,
		NextDayBooked:      d.NextDayBooked,
		SingleNight:        d.SingleNight,
		HideCheckOutPicker: d.HideCheckOutPicker,
		Nights:             d.Nights,
		Rejection:          toRejection(d.Rejection),
		Submission:         res.Submission,
	})
}

func (s *HTTPServer) handleEvaluateHourly(w http.ResponseWriter, r *http.Request) {
	var body hourlyRequest
	if !decodeBody(w, r, &body) {
		return
	}
	q, err := body.query()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.svc.EvaluateHourly(r.Context(), r.PathValue("roomID"), q)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	d := res.Decision
	resp := hourlyResponse{
		RoomID:        res.Room.ID,
		Valid:         d.Valid(),
		Date:          formatOptionalDate(d.Date),
		DurationHours: d.DurationHours,
		Options:       make([]durationOptionResponse, 0, len(d.Options)),
		Conflicts:     toSlots(d.Conflicts),
		Rejection:     toRejection(d.Rejection),
		Submission:    res.Submission,
	}
	if q.Start != nil {
		resp.Start = d.Start.String()
	}
	if d.End > d.Start {
		resp.End = d.End.String()
	}
	for _, opt := range d.Options {
		resp.Options = append(resp.Options, durationOptionResponse{
			Hours:     opt.Hours,
			End:       opt.End.String(),
			Available: opt.Available,
			Conflicts: toSlots(opt.Conflicts),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleEvaluateExtension(w http.ResponseWriter, r *http.Request) {
	var body extensionRequest
	if !decodeBody(w, r, &body) {
		return
	}
	attempt, err := body.attempt()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.svc.EvaluateExtension(r.Context(), r.PathValue("roomID"), attempt)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	d := res.Decision
	resp := extensionResponse{
		RoomID:            res.Room.ID,
		BookingID:         attempt.Booking.ID,
		State:             string(d.State),
		Valid:             d.Valid(),
		SameDay:           d.SameDay,
		NewCheckOut:       formatOptionalDate(d.NewCheckOut),
		MinCheckOut:       formatOptionalDate(d.MinCheckOut),
		SuggestedCheckOut: formatOptionalDate(d.SuggestedCheckOut),
		CheckOutLocked:    d.CheckOutLocked,
		Nights:            d.Nights,
		Hours:             d.Hours,
		Cost:              d.Cost,
		Conflicts:         toSlots(d.Conflicts),
		Rejection:         toRejection(d.Rejection),
		Submission:        res.Submission,
	}
	if attempt.Booking.Hourly() && d.Hours > 0 {
		resp.NewCheckOutTime = d.NewCheckOutTime.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleReport(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomID")
	room, ok := s.rooms.Room(roomID)
	if !ok {
		writeError(w, http.StatusNotFound, service.ErrRoomNotFound.Error())
		return
	}

	from, to, err := s.reportWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	days, err := s.svc.DailyAvailability(r.Context(), roomID, from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, room, from, to, days); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(roomID, from, to)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// reportWindow reads from/to; both default to a 30-day window starting today.
func (s *HTTPServer) reportWindow(r *http.Request) (time.Time, time.Time, error) {
	from, err := optionalDate("from", r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := optionalDate("to", r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.IsZero() {
		from = s.svc.Today()
	}
	if to.IsZero() {
		to = availability.AddDays(from, 29)
	}
	return from, to, nil
}

func (s *HTTPServer) handleInvalidateCalendar(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomID")
	if _, ok := s.rooms.Room(roomID); !ok {
		writeError(w, http.StatusNotFound, service.ErrRoomNotFound.Error())
		return
	}
	if err := s.svc.InvalidateCalendar(r.Context(), roomID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusForError(err)
	if code >= http.StatusInternalServerError {
		logging.FromContext(r.Context(), s.log).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, code, err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrRoomNotFound), errors.Is(err, calendarapi.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRange), errors.Is(err, service.ErrInvalidBookingType):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrHourlyUnsupported):
		return http.StatusUnprocessableEntity
	case errors.Is(err, calendarapi.ErrUpstream),
		errors.Is(err, availability.ErrMalformedDate),
		errors.Is(err, availability.ErrMalformedTime):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
