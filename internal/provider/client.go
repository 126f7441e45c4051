// Package provider is an HTTP client for the hosted scheduling provider's booking API.
package provider

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

	"github.com/redis/go-redis/v9"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/model"
)

// DefaultBaseURL is the public booking API root.
const DefaultBaseURL = "https://api.aurinko.io/v1/book"

// Client calls the provider's meeting endpoints for one client id.
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// TimeRange is the booked interval in a meeting request.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MeetingRequest is the body of POST /{clientId}/{profileId}/meeting.
type MeetingRequest struct {
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	Time             TimeRange      `json:"time"`
	SubstitutionData map[string]any `json:"substitutionData"`
	AccountIDs       []int64        `json:"accountIds"`
}

// ErrorBody is the provider's structured error payload.
type ErrorBody struct {
	Message string          `json:"message"`
	Code    json.RawMessage `json:"code,omitempty"`
}

// CodeString returns the error code whether it was sent as a string or a number.
func (b *ErrorBody) CodeString() string {
	if b == nil || len(b.Code) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b.Code, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(b.Code))
}

// APIError is returned for non-2xx provider responses.
type APIError struct {
	StatusCode int
	Body       *ErrorBody
}

func (e *APIError) Error() string {
	if e.Body != nil && (e.Body.Message != "" || e.Body.CodeString() != "") {
		return fmt.Sprintf("provider http %d: %s (%s)", e.StatusCode, e.Body.Message, e.Body.CodeString())
	}
	return fmt.Sprintf("provider http %d", e.StatusCode)
}

// NewClient constructs a client. A zero timeout falls back to 10 seconds.
func NewClient(baseURL, clientID string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   clientID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UseRedisCache configures optional Redis caching for the meeting GET.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

func (c *Client) meetingURL(profileID string) string {
	return fmt.Sprintf("%s/%s/%s/meeting", c.baseURL, url.PathEscape(c.clientID), url.PathEscape(profileID))
}

// GetMeeting fetches the meeting type and open slots for profileID.
func (c *Client) GetMeeting(ctx context.Context, profileID string) (*model.MeetingType, error) {
	cacheKey := fmt.Sprintf("meeting:%s:%s", c.clientID, profileID)
	var resp model.MeetingType

	if c.readCache(ctx, cacheKey, &resp) {
		return &resp, nil
	}

	if err := c.doGet(ctx, c.meetingURL(profileID), &resp); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, resp)
	return &resp, nil
}

// CreateMeeting books a meeting for profileID.
func (c *Client) CreateMeeting(ctx context.Context, profileID string, req MeetingRequest) error {
	if req.SubstitutionData == nil {
		req.SubstitutionData = map[string]any{}
	}
	if req.AccountIDs == nil {
		req.AccountIDs = []int64{}
	}
	if err := c.doPost(ctx, c.meetingURL(profileID), req, nil); err != nil {
		return err
	}
	// Availability changed; drop the cached meeting.
	c.dropCache(ctx, fmt.Sprintf("meeting:%s:%s", c.clientID, profileID))
	return nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) dropCache(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, key).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) doPost(ctx context.Context, endpoint string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var body ErrorBody
		if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
			apiErr.Body = &body
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
