// Package progress talks to the external progress service that stores
// Pomodoro points and completed-session counters.
package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is where the progress service listens in development.
const DefaultBaseURL = "http://localhost:8000/api"

// ErrStatus is returned for non-2xx responses.
var ErrStatus = errors.New("unexpected status")

// Delta is an increment request.
type Delta struct {
	AddPoints   int `json:"add_points"`
	AddSessions int `json:"add_sessions"`
}

// Totals are the stored counters echoed back by the service.
type Totals struct {
	Points   int `json:"pomodoro_points"`
	Sessions int `json:"pomodoros_completed"`
}

// Client is a small JSON client for the /progress/ resource.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. A zero timeout means 10 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Increment adds d to the stored counters and returns the updated totals.
func (c *Client) Increment(ctx context.Context, d Delta) (Totals, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return Totals{}, fmt.Errorf("marshal delta: %w", err)
	}
	return c.do(ctx, http.MethodPatch, bytes.NewReader(body))
}

// Get fetches the current totals.
func (c *Client) Get(ctx context.Context) (Totals, error) {
	return c.do(ctx, http.MethodGet, nil)
}

func (c *Client) do(ctx context.Context, method string, body io.Reader) (Totals, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/progress/", body)
	if err != nil {
		return Totals{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Totals{}, fmt.Errorf("%s progress: %w", strings.ToLower(method), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return Totals{}, fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var totals Totals
	if err := json.NewDecoder(resp.Body).Decode(&totals); err != nil {
		return Totals{}, fmt.Errorf("decode progress: %w", err)
	}
	return totals, nil
}
