package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/store"
)

// DefaultTimeout bounds each request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Client talks to the backend HTTP API. It implements store.EventAPI and
// store.SettingsAPI.
type Client struct {
	endpoint string
	http     *http.Client
}

var (
	_ store.EventAPI    = (*Client)(nil)
	_ store.SettingsAPI = (*Client)(nil)
)

// NewClient creates a client for the API rooted at endpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
	}
}

func (c *Client) ListEvents(ctx context.Context) ([]domain.Event, error) {
	var events []domain.Event
	if err := c.do(ctx, http.MethodGet, "/api/events", nil, &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = []domain.Event{}
	}
	return events, nil
}

func (c *Client) SaveEvent(ctx context.Context, in domain.EventInput) (domain.Event, error) {
	var e domain.Event
	if err := c.do(ctx, http.MethodPost, "/api/events", in, &e); err != nil {
		return domain.Event{}, err
	}
	return e, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/events/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ApplyPlan(ctx context.Context, diff domain.PlanDiff) ([]domain.Event, error) {
	var events []domain.Event
	if err := c.do(ctx, http.MethodPost, "/api/plan", diff, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) GetSettings(ctx context.Context) (domain.Settings, error) {
	var s domain.Settings
	err := c.do(ctx, http.MethodGet, "/api/settings", nil, &s)
	return s, err
}

func (c *Client) SaveSettings(ctx context.Context, s domain.Settings) (domain.Settings, error) {
	var saved domain.Settings
	err := c.do(ctx, http.MethodPut, "/api/settings", s, &saved)
	return saved, err
}

// Health checks whether the backend answers /health.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
