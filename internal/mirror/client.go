// Package mirror records confirmed bookings in the internal backend.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls POST {baseURL}/calendar/bookings/{profileId}.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// TimeRange is the booked interval.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BookingRequest is the mirrored booking.
type BookingRequest struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Time  TimeRange `json:"time"`
}

// APIError is returned when the backend rejects the booking, either with an
// error status or with an {"error": ...} body inside a 2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend http %d", e.StatusCode)
}

type responseBody struct {
	Error json.RawMessage `json:"error"`
}

// errorText returns the rejection carried in the body. null, false, 0 and ""
// are not rejections; a non-string value is reported as its JSON text.
func (b responseBody) errorText() (string, bool) {
	raw := bytes.TrimSpace(b.Error)
	switch string(raw) {
	case "", "null", "false", "0", `""`:
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}

// NewClient constructs a client. A zero timeout falls back to 10 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateBooking mirrors a booking made with the provider.
func (c *Client) CreateBooking(ctx context.Context, profileID string, req BookingRequest) error {
	endpoint := fmt.Sprintf("%s/calendar/bookings/%s", c.baseURL, url.PathEscape(profileID))

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var body responseBody
	hasBody := len(bytes.TrimSpace(raw)) > 0 && json.Unmarshal(raw, &body) == nil

	msg, rejected := "", false
	if hasBody {
		msg, rejected = body.errorText()
	}

	if resp.StatusCode >= 300 || rejected {
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}
