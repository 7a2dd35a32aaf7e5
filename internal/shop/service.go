// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package shop

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/models"
	"github.com/tomtom215/liveshop/internal/store"
	"github.com/tomtom215/liveshop/internal/websocket"
)

// Broadcaster is the part of the fan-out hub the services use.
type Broadcaster interface {
	BroadcastChat(models.ChatMessage)
	BroadcastOrder(models.OrderNotification)
	BroadcastCounters(models.OrderCounters)
	BroadcastTicker(models.Ticker)
	ViewerCount() int
}

// LabelDispatcher queues label jobs without blocking.
type LabelDispatcher interface {
	Dispatch(job models.LabelJob)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// Domain event topics.
const (
	TopicOrderCreated       = "order.created"
	TopicChatMessage        = "chat.message"
	TopicCustomerRegistered = "customer.registered"
)

const publishTimeout = 5 * time.Second

// DefaultMaxImageBytes caps profile image uploads.
const DefaultMaxImageBytes = 512 << 10

// Deps are the collaborators of a Service. Printer and Events may be nil.
type Deps struct {
	Store   *store.Store
	Hub     Broadcaster
	State   *websocket.State
	Printer LabelDispatcher
	Events  EventPublisher
	Now     func() time.Time

	MaxImageBytes int
}

// Service implements the order, chat, customer, calendar, catalogue and
// admin operations.
type Service struct {
	store   *store.Store
	hub     Broadcaster
	state   *websocket.State
	printer LabelDispatcher
	events  EventPublisher
	now     func() time.Time

	maxImageBytes int

	// clockMu keeps creation instants non-decreasing per collection.
	clockMu sync.Mutex
	last    map[string]time.Time
}

// New wires a Service.
func New(d Deps) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.State == nil {
		d.State = websocket.NewState("", "")
	}
	if d.MaxImageBytes <= 0 {
		d.MaxImageBytes = DefaultMaxImageBytes
	}
	return &Service{
		store:         d.Store,
		hub:           d.Hub,
		state:         d.State,
		printer:       d.Printer,
		events:        d.Events,
		now:           d.Now,
		maxImageBytes: d.MaxImageBytes,
		last:          make(map[string]time.Time),
	}
}

// State exposes the hub state shared with the admin handlers.
func (s *Service) State() *websocket.State { return s.state }

// instant returns the current time, never earlier than the previous
// instant handed out for the same collection.
func (s *Service) instant(collection string) time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	t := s.now().UTC()
	if prev := s.last[collection]; t.Before(prev) {
		t = prev
	}
	s.last[collection] = t
	return t
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// publish sends a domain event in the background. Failures are logged only.
func (s *Service) publish(ctx context.Context, topic string, payload interface{}) {
	if s.events == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		if err := s.events.Publish(ctx, topic, payload); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("failed to publish domain event")
		}
	}()
}
