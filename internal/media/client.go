// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package media

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

	"github.com/tomtom215/liveshop/internal/metrics"
)

const maxVendorBody = 1 << 20

// StatusError is a non-2xx vendor answer.
type StatusError struct {
	StatusCode int
	Body       string
	kind       error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.kind, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return e.kind }

// vendorClient is the HTTP plumbing shared by the vendors.
type vendorClient struct {
	provider string
	baseURL  string
	http     *http.Client
	cb       *gobreaker.CircuitBreaker[interface{}]
	// authorize sets the credentials on each request.
	authorize func(req *http.Request) error
}

func newVendorClient(provider, baseURL string, timeout time.Duration, authorize func(*http.Request) error) *vendorClient {
	if timeout <= 0 || timeout > 30*time.Second {
		timeout = 15 * time.Second
	}
	name := "media-" + provider
	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Refusals are the caller's fault, not a vendor outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrRejected) || errors.Is(err, ErrRoomNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(name, from.String(), to.String())
		},
	})
	return &vendorClient{
		provider:  provider,
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: timeout},
		cb:        cb,
		authorize: authorize,
	}
}

// call runs one vendor request through the breaker and records it.
func (c *vendorClient) call(ctx context.Context, op, method, path string, body, out interface{}) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, method, path, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %s circuit %v", ErrVendor, c.provider, err)
	}
	metrics.RecordMediaRequest(c.provider, op, err)
	return err
}

func (c *vendorClient) do(ctx context.Context, method, path string, body, out interface{}) error {
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
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.authorize(req); err != nil {
		return fmt.Errorf("authorize %s request: %w", c.provider, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrVendor, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxVendorBody))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrVendor, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &StatusError{StatusCode: resp.StatusCode, Body: snippet(raw), kind: ErrRoomNotFound}
	case resp.StatusCode >= 500:
		return &StatusError{StatusCode: resp.StatusCode, Body: snippet(raw), kind: ErrVendor}
	case resp.StatusCode >= 400:
		return &StatusError{StatusCode: resp.StatusCode, Body: snippet(raw), kind: ErrRejected}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrVendor, path, err)
	}
	return nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 256 {
		return s[:256] + "..."
	}
	return s
}

func bearer(token string) func(*http.Request) error {
	return func(req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}
