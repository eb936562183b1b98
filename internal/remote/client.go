// Package remote is the HTTP client for the seat reservation service. The
// service is treated as an opaque, possibly flaky RPC endpoint: every call can
// fail transiently and callers decide how to retry.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/seatq/seatq/internal/models"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Client is an HTTP client for the seat service.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// New creates a new seat service client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// OpResponse is the standard response for mutating seat calls.
type OpResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	SeatIDs []string `json:"seat_ids,omitempty"`
}

// SeatDataResponse is the response from a seat data fetch.
type SeatDataResponse struct {
	Success bool                          `json:"success"`
	Error   string                        `json:"error,omitempty"`
	SeatMap map[string]*models.SeatRecord `json:"seat_map"`
}

// HealthResponse is the response from GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

func chartPath(c models.Context, suffix string) string {
	return fmt.Sprintf("/v1/charts/%s/%s/%s%s",
		url.PathEscape(c.Group), url.PathEscape(c.Day), url.PathEscape(c.Timeslot), suffix)
}

// HealthCheck hits /healthz to verify server reachability.
func (c *Client) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, "GET", "/healthz", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReserveSeats reserves the given seats in the chart context.
func (c *Client) ReserveSeats(ctx context.Context, chart models.Context, seatIDs []string) (*OpResponse, error) {
	body := map[string]any{"seat_ids": seatIDs}
	var resp OpResponse
	if err := c.do(ctx, "POST", chartPath(chart, "/reserve"), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckInSeats checks in the given seats.
func (c *Client) CheckInSeats(ctx context.Context, chart models.Context, seatIDs []string) (*OpResponse, error) {
	body := map[string]any{"seat_ids": seatIDs}
	var resp OpResponse
	if err := c.do(ctx, "POST", chartPath(chart, "/checkin"), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateSeatData patches arbitrary fields on one seat record.
func (c *Client) UpdateSeatData(ctx context.Context, chart models.Context, seatID string, fields map[string]string) (*OpResponse, error) {
	body := map[string]any{"fields": fields}
	var resp OpResponse
	if err := c.do(ctx, "POST", chartPath(chart, "/seats/"+url.PathEscape(seatID)), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AssignWalkIn asks the server to assign numSeats walk-in seats. When
// consecutive is set the server must assign a contiguous block or fail.
func (c *Client) AssignWalkIn(ctx context.Context, chart models.Context, numSeats int, consecutive bool) (*OpResponse, error) {
	body := map[string]any{"count": numSeats, "consecutive": consecutive}
	var resp OpResponse
	if err := c.do(ctx, "POST", chartPath(chart, "/walkin"), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSeatData fetches the authoritative seat map for a chart context.
func (c *Client) GetSeatData(ctx context.Context, chart models.Context) (*SeatDataResponse, error) {
	var resp SeatDataResponse
	if err := c.do(ctx, "GET", chartPath(chart, "/seats"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// apiError is the standard error body from the server.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Code != "" {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
			case http.StatusForbidden:
				return fmt.Errorf("%w: %s", ErrForbidden, apiErr.Message)
			case http.StatusNotFound:
				return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
			default:
				return &apiErr
			}
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
