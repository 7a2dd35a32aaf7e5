// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/liveshop/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

// Compile-time interface checks.
var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*WebSocketHubService)(nil)
	_ suture.Service = (*PrintDispatcherService)(nil)
	_ suture.Service = (*StoreGCService)(nil)
	_ suture.Service = (*CloserService)(nil)
)

type mockHTTPServer struct {
	listenErr     error
	shutdownCount atomic.Int32
	started       chan struct{}
	stopCh        chan struct{}
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{started: make(chan struct{}, 1), stopCh: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	m.started <- struct{}{}
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stopCh
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(ctx context.Context) error {
	m.shutdownCount.Add(1)
	close(m.stopCh)
	return nil
}

func TestHTTPServerService(t *testing.T) {
	t.Run("graceful shutdown on cancel", func(t *testing.T) {
		srv := newMockHTTPServer()
		svc := NewHTTPServerService(srv, time.Second)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()
		<-srv.started
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return")
		}
		if srv.shutdownCount.Load() != 1 {
			t.Errorf("Shutdown called %d times", srv.shutdownCount.Load())
		}
	})

	t.Run("listen failure is returned", func(t *testing.T) {
		srv := newMockHTTPServer()
		srv.listenErr = errors.New("address already in use")
		err := NewHTTPServerService(srv, 0).Serve(context.Background())
		if err == nil || !errors.Is(err, srv.listenErr) {
			t.Errorf("Serve() = %v", err)
		}
	})

	if got := NewHTTPServerService(newMockHTTPServer(), 0).String(); got != "http-server" {
		t.Errorf("String() = %q", got)
	}
}

type fakeHub struct{ runs atomic.Int32 }

func (h *fakeHub) RunWithContext(ctx context.Context) error {
	h.runs.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestWebSocketHubService(t *testing.T) {
	hub := &fakeHub{}
	svc := NewWebSocketHubService(hub)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v", err)
	}
	if hub.runs.Load() != 1 || svc.String() != "websocket-hub" {
		t.Errorf("runs = %d, name = %q", hub.runs.Load(), svc.String())
	}
}

type runnerFunc func(ctx context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }

func TestPrintDispatcherService(t *testing.T) {
	t.Run("early exit is a failure", func(t *testing.T) {
		svc := NewPrintDispatcherService(runnerFunc(func(context.Context) error { return nil }))
		if err := svc.Serve(context.Background()); err == nil {
			t.Error("a router that stops on its own should fail the service")
		}
	})

	t.Run("router error is wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		svc := NewPrintDispatcherService(runnerFunc(func(context.Context) error { return boom }))
		if err := svc.Serve(context.Background()); !errors.Is(err, boom) {
			t.Errorf("Serve() = %v", err)
		}
	})

	t.Run("cancel is a clean stop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		svc := NewPrintDispatcherService(runnerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}))
		cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v", err)
		}
	})
}

type fakeGC struct {
	calls atomic.Int32
	err   error
}

func (g *fakeGC) RunGC() error {
	g.calls.Add(1)
	return g.err
}

func TestStoreGCService(t *testing.T) {
	gc := &fakeGC{err: errors.New("disk busy")}
	svc := NewStoreGCService(gc, 10*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v", err)
	}
	if gc.calls.Load() < 2 {
		t.Errorf("GC ran %d times; errors must not stop the loop", gc.calls.Load())
	}
	if NewStoreGCService(gc, 0).interval != 10*time.Minute {
		t.Error("zero interval should default to ten minutes")
	}
}

type fakeCloser struct{ closed atomic.Int32 }

func (c *fakeCloser) Close() error {
	c.closed.Add(1)
	return nil
}

func TestCloserService(t *testing.T) {
	c := &fakeCloser{}
	svc := NewCloserService("event-publisher", c)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(10 * time.Millisecond)
	if c.closed.Load() != 0 {
		t.Fatal("closed before shutdown")
	}
	cancel()
	<-done
	if c.closed.Load() != 1 {
		t.Errorf("closed %d times", c.closed.Load())
	}
	if svc.String() != "event-publisher" {
		t.Errorf("String() = %q", svc.String())
	}
}
