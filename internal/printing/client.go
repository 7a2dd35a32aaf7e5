// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/metrics"
	"github.com/tomtom215/liveshop/internal/models"
)

// maxErrorBodySize limits how much of an error response is kept.
const maxErrorBodySize = 4096

// ErrAgentUnreachable wraps transport failures and open-breaker rejections.
var ErrAgentUnreachable = errors.New("print agent unreachable")

// PrintFailedError means the agent answered but did not print.
type PrintFailedError struct {
	StatusCode int
	Response   *models.PrintResponse
	Body       string
}

func (e *PrintFailedError) Error() string {
	if e.Response != nil && e.Response.Message != "" {
		return fmt.Sprintf("print failed (status %d): %s", e.StatusCode, e.Response.Message)
	}
	if e.Body != "" {
		return fmt.Sprintf("print failed (status %d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("print failed (status %d)", e.StatusCode)
}

// ClientConfig configures the agent client.
type ClientConfig struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Client talks to the print agent over HTTP behind a circuit breaker.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[interface{}]
	name    string
}

// NewClient creates a print agent client.
//
// The breaker opens after BreakerFailures consecutive unreachable results.
// An agent that answers with success=false counts as reachable.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	cbName := "print-agent"
	metrics.SetBreakerState(cbName, "", "closed")

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		name:    cbName,
	}
	c.cb = gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			var pf *PrintFailedError
			return err == nil || errors.As(err, &pf)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state transition")
			metrics.SetBreakerState(name, from.String(), to.String())
		},
	})
	return c
}

// BaseURL returns the agent base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Print submits a label program to the agent.
func (c *Client) Print(ctx context.Context, req models.PrintRequest) (*models.PrintResponse, error) {
	return castResult[models.PrintResponse](c.execute(func() (interface{}, error) {
		var resp models.PrintResponse
		if err := c.do(ctx, http.MethodPost, "/print", req, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}))
}

// TestPrint asks the agent to print its built-in test label.
func (c *Client) TestPrint(ctx context.Context) (*models.PrintResponse, error) {
	return castResult[models.PrintResponse](c.execute(func() (interface{}, error) {
		var resp models.PrintResponse
		if err := c.do(ctx, http.MethodPost, "/test-print", nil, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}))
}

// Status returns the agent's printer discovery result.
func (c *Client) Status(ctx context.Context) (*models.PrinterStatus, error) {
	return castResult[models.PrinterStatus](c.execute(func() (interface{}, error) {
		var resp models.PrinterStatus
		if err := c.do(ctx, http.MethodGet, "/printer/status", nil, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}))
}

// Jobs returns the agent's recent job journal.
func (c *Client) Jobs(ctx context.Context, limit int) ([]models.PrintJobRecord, error) {
	var jobs []models.PrintJobRecord
	_, err := c.execute(func() (interface{}, error) {
		return nil, c.do(ctx, http.MethodGet, fmt.Sprintf("/jobs?limit=%d", limit), nil, &jobs)
	})
	return jobs, err
}

func (c *Client) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := c.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: circuit %s", ErrAgentUnreachable, err)
	}
	return result, err
}

// do sends one request. Any answer with a decodable body is returned to the
// caller; a non-2xx status or success=false becomes *PrintFailedError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	metrics.PrintAttempts.Inc()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrAgentUnreachable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrAgentUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		pf := &PrintFailedError{StatusCode: resp.StatusCode}
		var pr models.PrintResponse
		if json.Unmarshal(raw, &pr) == nil && pr.Message != "" {
			pf.Response = &pr
		} else {
			pf.Body = truncate(string(raw))
		}
		return pf
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	if pr, ok := out.(*models.PrintResponse); ok && !pr.Success {
		return &PrintFailedError{StatusCode: resp.StatusCode, Response: pr}
	}
	return nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBodySize {
		return s[:maxErrorBodySize] + "... (truncated)"
	}
	return s
}

// castResult type-asserts the breaker result.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		var pf *PrintFailedError
		if errors.As(err, &pf) && pf.Response != nil {
			if typed, ok := interface{}(pf.Response).(*T); ok {
				return typed, err
			}
		}
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}
