// Package payrollclient posts payroll payloads to the external payroll system
// through a circuit breaker.
package payrollclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/sony/gobreaker"
)

// maxBodyBytes caps how much of the remote response is kept.
const maxBodyBytes = 1 << 20

var errServerStatus = errors.New("payroll endpoint returned a server error")

type Config struct {
	URL       string
	AuthToken string
	Timeout   time.Duration
}

// Client implements payroll.Exporter over HTTP.
type Client struct {
	client    *http.Client
	url       string
	authToken string
	cb        *gobreaker.CircuitBreaker
}

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "Payroll-API",
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Client{
		client:    &http.Client{Timeout: cfg.Timeout},
		url:       cfg.URL,
		authToken: cfg.AuthToken,
		cb:        gobreaker.NewCircuitBreaker(settings),
	}
}

// Export implements payroll.Exporter. Any HTTP status is returned as a
// response; only transport failures and an open breaker are errors. Server
// errors still count against the breaker.
func (c *Client) Export(ctx context.Context, payload payroll.Payload) (payroll.ExportResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return payroll.ExportResponse{}, fmt.Errorf("failed to marshal payroll payload: %w", err)
	}

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.post(ctx, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return payroll.ExportResponse{}, fmt.Errorf("%w: %v", payroll.ErrExporterUnavailable, err)
	}

	resp, _ := result.(payroll.ExportResponse)
	if err != nil && !errors.Is(err, errServerStatus) {
		return payroll.ExportResponse{}, err
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, body []byte) (payroll.ExportResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return payroll.ExportResponse{}, fmt.Errorf("failed to create payroll request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return payroll.ExportResponse{}, fmt.Errorf("failed to call payroll endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return payroll.ExportResponse{}, fmt.Errorf("failed to read payroll response: %w", err)
	}

	out := payroll.ExportResponse{StatusCode: resp.StatusCode, Body: respBody}
	if resp.StatusCode >= 500 {
		return out, errServerStatus
	}
	return out, nil
}

var _ payroll.Exporter = (*Client)(nil)
