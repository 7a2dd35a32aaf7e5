// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

var errFakeClosed = errors.New("fake connection closed")

type timeoutError struct{}

func (timeoutError) Error() string { return "i/o timeout" }
func (timeoutError) Timeout() bool { return true }
func (timeoutError) Temporary() bool { return true }

// fakeConn records text frames. A stalled fakeConn never accepts a frame and
// fails the write once the deadline passes.
type fakeConn struct {
	stalled bool

	mu       sync.Mutex
	deadline time.Time

	frames    chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 1024),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errFakeClosed
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-f.closed:
		return errFakeClosed
	default:
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	if f.stalled {
		f.mu.Lock()
		wait := time.Until(f.deadline)
		f.mu.Unlock()
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
			return timeoutError{}
		case <-f.closed:
			return errFakeClosed
		}
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	f.frames <- buf
	return nil
}

func (f *fakeConn) SetReadLimit(int64) {}
func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}
func (f *fakeConn) SetWriteDeadline(t time.Time) error {
	f.mu.Lock()
	f.deadline = t
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

// next waits for the next frame and decodes it.
func (f *fakeConn) next(t *testing.T, timeout time.Duration) map[string]interface{} {
	t.Helper()
	select {
	case frame := <-f.frames:
		var m map[string]interface{}
		if err := json.Unmarshal(frame, &m); err != nil {
			t.Fatalf("bad frame %s: %v", frame, err)
		}
		return m
	case <-time.After(timeout):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func waitFor(t *testing.T, cond func() bool, timeout time.Duration, what string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNewHubDefaults(t *testing.T) {
	hub := NewHub(Options{})
	if hub.opts != DefaultOptions() {
		t.Errorf("zero options should take defaults, got %+v", hub.opts)
	}
	if hub.ViewerCount() != 0 {
		t.Errorf("new hub has %d viewers", hub.ViewerCount())
	}
}

func TestSubscribeUnsubscribeIdempotent(t *testing.T) {
	hub := NewHub(DefaultOptions())

	conns := []*fakeConn{newFakeConn(), newFakeConn(), newFakeConn()}
	var clients []*Client
	for _, c := range conns {
		clients = append(clients, hub.Subscribe(c))
	}
	if got := hub.ViewerCount(); got != 3 {
		t.Fatalf("ViewerCount() = %d, want 3", got)
	}

	hub.Unsubscribe(clients[0])
	hub.Unsubscribe(clients[0])
	hub.Unsubscribe(clients[0])

	if got := hub.ViewerCount(); got != 2 {
		t.Errorf("ViewerCount() after repeated unsubscribe = %d, want 2", got)
	}
	select {
	case <-clients[0].Done():
	default:
		t.Error("removed client should be done")
	}
	select {
	case <-conns[0].closed:
	case <-time.After(time.Second):
		t.Error("removed client's connection should be closed")
	}
}

func TestPeerDisconnectRemovesSubscriber(t *testing.T) {
	hub := NewHub(DefaultOptions())
	conn := newFakeConn()
	hub.Subscribe(conn)
	hub.Subscribe(newFakeConn())

	_ = conn.Close() // peer goes away, readPump notices

	waitFor(t, func() bool { return hub.ViewerCount() == 1 }, time.Second, "viewer count 1")
}

func TestViewerCountUnderRandomChurn(t *testing.T) {
	hub := NewHub(DefaultOptions())
	rng := rand.New(rand.NewSource(42))

	type sub struct {
		conn   *fakeConn
		client *Client
	}
	var (
		mu   sync.Mutex
		live []sub
		wg   sync.WaitGroup
	)

	for i := 0; i < 200; i++ {
		action := rng.Intn(3)
		wg.Add(1)
		go func(action int) {
			defer wg.Done()
			switch action {
			case 0, 1:
				c := newFakeConn()
				cl := hub.Subscribe(c)
				mu.Lock()
				live = append(live, sub{c, cl})
				mu.Unlock()
			case 2:
				mu.Lock()
				if len(live) == 0 {
					mu.Unlock()
					return
				}
				s := live[len(live)-1]
				live = live[:len(live)-1]
				mu.Unlock()
				// Half leave via Unsubscribe, half by dropping the transport.
				if s.client.ID()%2 == 0 {
					hub.Unsubscribe(s.client)
				} else {
					_ = s.conn.Close()
				}
			}
		}(action)
	}
	wg.Wait()

	mu.Lock()
	want := len(live)
	mu.Unlock()
	waitFor(t, func() bool { return hub.ViewerCount() == want }, 2*time.Second,
		fmt.Sprintf("viewer count %d", want))
}

func TestBroadcastPerSubscriberFIFO(t *testing.T) {
	hub := NewHub(DefaultOptions())
	conns := []*fakeConn{newFakeConn(), newFakeConn(), newFakeConn()}
	for _, c := range conns {
		hub.Subscribe(c)
	}

	const n = 100
	for i := 0; i < n; i++ {
		hub.BroadcastJSON(MessageTypeChat, map[string]int{"seq": i})
	}

	for ci, c := range conns {
		for i := 0; i < n; i++ {
			m := c.next(t, time.Second)
			data := m["data"].(map[string]interface{})
			if got := int(data["seq"].(float64)); got != i {
				t.Fatalf("client %d frame %d has seq %d", ci, i, got)
			}
		}
	}
}

func TestConcurrentBroadcastSameOrderEverywhere(t *testing.T) {
	hub := NewHub(DefaultOptions())
	a, b := newFakeConn(), newFakeConn()
	hub.Subscribe(a)
	hub.Subscribe(b)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				hub.BroadcastJSON(MessageTypeChat, map[string]int{"g": g, "i": i})
			}
		}(g)
	}
	wg.Wait()

	for i := 0; i < 100; i++ {
		fa := <-a.frames
		fb := <-b.frames
		if string(fa) != string(fb) {
			t.Fatalf("frame %d differs: %s vs %s", i, fa, fb)
		}
	}
}

func TestSlowSubscriberDoesNotStallOthers(t *testing.T) {
	hub := NewHub(Options{SendBuffer: 64, WriteWait: 200 * time.Millisecond})

	slow := newFakeConn()
	slow.stalled = true
	hub.Subscribe(slow)
	fast := []*fakeConn{newFakeConn(), newFakeConn()}
	for _, c := range fast {
		hub.Subscribe(c)
	}

	const n = 50
	start := time.Now()
	for i := 0; i < n; i++ {
		hub.BroadcastJSON(MessageTypeChat, map[string]int{"seq": i})
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("broadcast blocked for %v", elapsed)
	}

	for _, c := range fast {
		for i := 0; i < n; i++ {
			c.next(t, time.Second)
		}
	}
	waitFor(t, func() bool { return hub.ViewerCount() == 2 }, time.Second, "slow subscriber removal")
}

func TestOverflowDisconnects(t *testing.T) {
	hub := NewHub(Options{SendBuffer: 2, WriteWait: 10 * time.Second})
	slow := newFakeConn()
	slow.stalled = true
	cl := hub.Subscribe(slow)

	for i := 0; i < 5; i++ {
		hub.BroadcastJSON(MessageTypeChat, i)
	}

	select {
	case <-cl.Done():
	case <-time.After(time.Second):
		t.Fatal("overflowing subscriber was not removed")
	}
	if cl.reason != reasonOverflow {
		t.Errorf("reason = %q, want %q", cl.reason, reasonOverflow)
	}
}

func TestStalledWriteHitsDeadline(t *testing.T) {
	hub := NewHub(Options{WriteWait: 50 * time.Millisecond})
	slow := newFakeConn()
	slow.stalled = true
	cl := hub.Subscribe(slow)

	hub.BroadcastJSON(MessageTypeChat, "x")

	select {
	case <-cl.Done():
	case <-time.After(time.Second):
		t.Fatal("subscriber with an expired write deadline was not removed")
	}
	if hub.ViewerCount() != 0 {
		t.Errorf("ViewerCount() = %d, want 0", hub.ViewerCount())
	}
}

func TestViewerCountFrame(t *testing.T) {
	hub := NewHub(DefaultOptions())
	a := newFakeConn()
	hub.Subscribe(a)
	hub.Subscribe(newFakeConn())

	hub.BroadcastViewerCount()

	raw := <-a.frames
	if string(raw) != `{"type":"viewer_count","count":2}` {
		t.Errorf("viewer_count frame = %s", raw)
	}
}

func TestFrameShapes(t *testing.T) {
	hub := NewHub(DefaultOptions())
	a := newFakeConn()
	hub.Subscribe(a)

	hub.BroadcastCounters(models.OrderCounters{SessionOrders: 3, TotalOrders: 10})
	hub.BroadcastTicker(models.Ticker{Text: "Hello", Enabled: true})

	if raw := string(<-a.frames); raw != `{"type":"order_counter_update","data":{"session_orders":3,"total_orders":10}}` {
		t.Errorf("counter frame = %s", raw)
	}
	if raw := string(<-a.frames); raw != `{"type":"ticker_update","data":{"text":"Hello","enabled":true}}` {
		t.Errorf("ticker frame = %s", raw)
	}
}

func TestRunWithContextPublishesCoalescedCount(t *testing.T) {
	hub := NewHub(Options{ViewerInterval: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	a := newFakeConn()
	cl := hub.Subscribe(a)
	hub.Subscribe(newFakeConn())

	var last map[string]interface{}
	waitFor(t, func() bool {
		select {
		case raw := <-a.frames:
			_ = json.Unmarshal(raw, &last)
		default:
		}
		return last != nil && last["type"] == MessageTypeViewerCount && last["count"] == float64(2)
	}, time.Second, "viewer_count 2")

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunWithContext did not stop")
	}
	if hub.ViewerCount() != 0 {
		t.Errorf("clients left after shutdown: %d", hub.ViewerCount())
	}
	select {
	case <-cl.Done():
	default:
		t.Error("client not removed on shutdown")
	}
}

// Real gorilla connections over httptest.

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Subscribe(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestTickerNotReplayedToLateSubscriber(t *testing.T) {
	hub := NewHub(DefaultOptions())
	srv := newTestServer(t, hub)

	early := dial(t, srv)
	waitFor(t, func() bool { return hub.ViewerCount() == 1 }, time.Second, "first subscriber")

	hub.BroadcastTicker(models.Ticker{Text: "Hello", Enabled: true})

	_ = early.SetReadDeadline(time.Now().Add(time.Second))
	var msg struct {
		Type string        `json:"type"`
		Data models.Ticker `json:"data"`
	}
	if err := early.ReadJSON(&msg); err != nil {
		t.Fatalf("read ticker: %v", err)
	}
	if msg.Type != MessageTypeTicker || msg.Data.Text != "Hello" || !msg.Data.Enabled {
		t.Errorf("unexpected frame %+v", msg)
	}

	late := dial(t, srv)
	waitFor(t, func() bool { return hub.ViewerCount() == 2 }, time.Second, "second subscriber")

	_ = late.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, data, err := late.ReadMessage(); err == nil {
		t.Errorf("late subscriber received %s, want nothing", data)
	}
}

func TestClientFramesAreIgnored(t *testing.T) {
	hub := NewHub(DefaultOptions())
	srv := newTestServer(t, hub)
	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.ViewerCount() == 1 }, time.Second, "subscriber")

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ack"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	hub.BroadcastChat(models.ChatMessage{ID: "m1", Username: "anna", Message: "hi"})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg struct {
		Type string             `json:"type"`
		Data models.ChatMessage `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != MessageTypeChat || msg.Data.Username != "anna" {
		t.Errorf("unexpected frame %+v", msg)
	}
	if hub.ViewerCount() != 1 {
		t.Error("client frame should not disconnect the subscriber")
	}
}

func TestBrowserCloseDecrementsCount(t *testing.T) {
	hub := NewHub(DefaultOptions())
	srv := newTestServer(t, hub)
	conn := dial(t, srv)
	dial(t, srv)
	waitFor(t, func() bool { return hub.ViewerCount() == 2 }, time.Second, "two subscribers")

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	waitFor(t, func() bool { return hub.ViewerCount() == 1 }, time.Second, "count back to 1")
}
