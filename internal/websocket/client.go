// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/metrics"
)

// Conn is the part of *websocket.Conn the hub uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Reasons a subscriber leaves the hub.
const (
	reasonClosed     = "closed"
	reasonOverflow   = "overflow"
	reasonWriteError = "write_error"
	reasonShutdown   = "shutdown"
)

// clientIDCounter hands out monotonically increasing subscriber ids.
var clientIDCounter atomic.Uint64

// Client is one live subscriber.
type Client struct {
	id   uint64
	hub  *Hub
	conn Conn

	// send is never closed; done signals removal instead so a late
	// enqueue from a broadcast snapshot cannot panic.
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	reason    string
}

func newClient(hub *Hub, conn Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.opts.SendBuffer),
		done: make(chan struct{}),
	}
}

// ID returns the subscriber id.
func (c *Client) ID() uint64 {
	return c.id
}

// Done is closed once the client has been removed from the hub.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// enqueue offers a frame without blocking. It reports false when the queue
// is full.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// readPump discards client frames. It exists to process control frames and
// to notice when the peer goes away.
func (c *Client) readPump() {
	defer c.hub.remove(c, reasonClosed)

	c.conn.SetReadLimit(c.hub.opts.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.hub.opts.PongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.opts.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("websocket read ended")
			}
			return
		}
		metrics.WSMessagesReceived.Inc()
	}
}

// writePump is the only writer on the connection, so frames leave in queue
// order.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // best-effort cleanup
	}()

	for {
		select {
		case <-c.done:
			if c.reason == reasonShutdown {
				_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			}
			return

		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteWait)); err != nil {
				c.hub.remove(c, reasonWriteError)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("websocket write failed")
				c.hub.remove(c, reasonWriteError)
				return
			}
			metrics.WSMessagesSent.Inc()

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteWait)); err != nil {
				c.hub.remove(c, reasonWriteError)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.remove(c, reasonWriteError)
				return
			}
		}
	}
}

// start begins reading and writing for the client
func (c *Client) start() {
	go c.writePump()
	go c.readPump()
}
