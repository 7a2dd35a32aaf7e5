// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/metrics"
	"github.com/tomtom215/liveshop/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful path (SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypeChat          = "chat_message"
	MessageTypeOrder         = "order_notification"
	MessageTypeOrderCounters = "order_counter_update"
	MessageTypeViewerCount   = "viewer_count"
	MessageTypeTicker        = "ticker_update"
)

// Message is a server-to-client frame: {type, data} or {type, count}.
type Message struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Count *int        `json:"count,omitempty"`
}

// Options tunes the hub. Zero fields take the DefaultOptions value.
type Options struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	ViewerInterval time.Duration
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		SendBuffer:     256,
		WriteWait:      5 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 4096,
		ViewerInterval: 500 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SendBuffer <= 0 {
		o.SendBuffer = d.SendBuffer
	}
	if o.WriteWait <= 0 {
		o.WriteWait = d.WriteWait
	}
	if o.PongWait <= 0 {
		o.PongWait = d.PongWait
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = d.MaxMessageSize
	}
	if o.ViewerInterval <= 0 {
		o.ViewerInterval = d.ViewerInterval
	}
	return o
}

// Hub maintains the set of live subscribers and broadcasts to them.
type Hub struct {
	opts Options

	// mu guards clients; it is held only for structural changes and the
	// broadcast snapshot.
	mu      sync.Mutex
	clients map[*Client]struct{}

	// order serialises Broadcast so every subscriber sees the same sequence.
	order sync.Mutex

	countChanged chan struct{}
}

// NewHub creates a new Hub
func NewHub(opts Options) *Hub {
	return &Hub{
		opts:         opts.withDefaults(),
		clients:      make(map[*Client]struct{}),
		countChanged: make(chan struct{}, 1),
	}
}

func (h *Hub) pingPeriod() time.Duration {
	return (h.opts.PongWait * 9) / 10
}

// Subscribe registers an established connection and starts its pumps.
// Call it only after the upgrade handshake has completed.
func (h *Hub) Subscribe(conn Conn) *Client {
	c := newClient(h, conn)

	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	h.signalCount()
	logging.Debug().Uint64("client_id", c.id).Int("total_clients", total).Msg("websocket client connected")

	c.start()
	return c
}

// Unsubscribe removes the client. Calling it more than once is harmless.
func (h *Hub) Unsubscribe(c *Client) {
	h.remove(c, reasonClosed)
}

func (h *Hub) remove(c *Client, reason string) {
	c.closeOnce.Do(func() {
		c.reason = reason

		h.mu.Lock()
		_, present := h.clients[c]
		delete(h.clients, c)
		total := len(h.clients)
		h.mu.Unlock()

		close(c.done)
		if reason != reasonShutdown {
			// Unblocks a writer stuck on a stalled peer.
			_ = c.conn.Close()
		}
		if !present {
			return
		}

		metrics.WSConnections.Dec()
		metrics.WSDisconnects.WithLabelValues(reason).Inc()
		h.signalCount()

		ev := logging.Debug()
		if reason == reasonOverflow || reason == reasonWriteError {
			ev = logging.Warn()
		}
		ev.Uint64("client_id", c.id).Str("reason", reason).Int("total_clients", total).Msg("websocket client disconnected")
	})
}

func (h *Hub) signalCount() {
	select {
	case h.countChanged <- struct{}{}:
	default:
	}
}

// ViewerCount returns the number of live subscribers.
func (h *Hub) ViewerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast delivers msg once to every subscriber registered when the call
// begins. Subscribers that cannot take the frame are disconnected.
func (h *Hub) Broadcast(msg Message) {
	frame, err := json.Marshal(msg)
	if err != nil {
		logging.Error().Err(err).Str("message_type", msg.Type).Msg("failed to marshal broadcast")
		return
	}

	h.order.Lock()
	defer h.order.Unlock()

	clients := h.snapshot()
	var overflowed []*Client
	for _, c := range clients {
		if !c.enqueue(frame) {
			overflowed = append(overflowed, c)
		}
	}
	metrics.WSBroadcasts.WithLabelValues(msg.Type).Inc()

	for _, c := range overflowed {
		h.remove(c, reasonOverflow)
	}
}

// snapshot copies the subscriber set in id order.
func (h *Hub) snapshot() []*Client {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// BroadcastJSON sends a {type, data} frame.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	h.Broadcast(Message{Type: messageType, Data: data})
}

// BroadcastChat sends a chat_message frame.
func (h *Hub) BroadcastChat(m models.ChatMessage) {
	h.BroadcastJSON(MessageTypeChat, m)
}

// BroadcastOrder sends an order_notification frame.
func (h *Hub) BroadcastOrder(n models.OrderNotification) {
	h.BroadcastJSON(MessageTypeOrder, n)
}

// BroadcastCounters sends an order_counter_update frame.
func (h *Hub) BroadcastCounters(c models.OrderCounters) {
	h.BroadcastJSON(MessageTypeOrderCounters, c)
}

// BroadcastTicker sends a ticker_update frame.
func (h *Hub) BroadcastTicker(t models.Ticker) {
	h.BroadcastJSON(MessageTypeTicker, t)
}

// BroadcastViewerCount sends the current count as {type, count}.
func (h *Hub) BroadcastViewerCount() {
	n := h.ViewerCount()
	h.Broadcast(Message{Type: MessageTypeViewerCount, Count: &n})
}

// RunWithContext publishes coalesced viewer count updates until ctx is
// done, then disconnects every subscriber. It is the hub's suture service
// body.
func (h *Hub) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(h.opts.ViewerInterval)
	defer ticker.Stop()

	pending := false
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case <-h.countChanged:
			pending = true
		case <-ticker.C:
			if pending {
				pending = false
				h.BroadcastViewerCount()
			}
		}
	}
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// closeAllClients removes every subscriber, in id order.
func (h *Hub) closeAllClients() int {
	clients := h.snapshot()
	for _, c := range clients {
		h.remove(c, reasonShutdown)
	}
	return len(clients)
}
