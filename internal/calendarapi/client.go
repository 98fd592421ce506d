package calendarapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"innkeeper/internal/config"
	"innkeeper/internal/metrics"
	"innkeeper/internal/models"
	"innkeeper/internal/worker"

	"github.com/rs/zerolog"
)

var (
	// ErrUpstream wraps every failure of the booking-data service that is not a 404.
	ErrUpstream = errors.New("booking-data service unavailable")
	// ErrNotFound means the service does not know the room.
	ErrNotFound = errors.New("room not found upstream")
)

// StatusError carries the HTTP status of a failed call.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d", e.Code)
}

// Client fetches room calendars from the booking-data service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      worker.RetryPolicy
	logger     *zerolog.Logger
}

// NewClient builds a client from the calendar config section.
func NewClient(cfg config.CalendarConfig, logger *zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := cfg.Retry.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		retry: worker.RetryPolicy{
			MaxRetries:    retries,
			InitialDelay:  cfg.Retry.BaseDelay,
			MaxDelay:      cfg.Retry.MaxDelay,
			BackoffFactor: 2,
		},
		logger: logger,
	}
}

// GetBookedDates calls GET /rooms/{roomID}/booked-dates. Transport errors and
// 5xx/429 answers are retried with backoff.
func (c *Client) GetBookedDates(ctx context.Context, roomID string) (*models.BookedDates, error) {
	endpoint := fmt.Sprintf("%s/rooms/%s/booked-dates", c.baseURL, url.PathEscape(roomID))
	var resp models.BookedDates

	attempt := 0
	err := c.retry.Do(ctx, retryable, func(ctx context.Context) error {
		attempt++
		err := c.doGet(ctx, endpoint, &resp)
		if err != nil && retryable(err) {
			c.logger.Warn().Err(err).Str("room_id", roomID).Int("attempt", attempt).Msg("booked dates request failed")
		}
		return err
	})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("room %s: %w", roomID, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: room %s: %v", ErrUpstream, roomID, err)
	}

	return &resp, nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	var de *decodeError
	return !errors.As(err, &de)
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	c.addHeaders(req)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream(resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Code: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

func (c *Client) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
}
