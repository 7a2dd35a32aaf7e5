// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

// Package events publishes domain events (orders, chat, registrations).
//
// With events enabled the publisher writes to NATS JetStream through
// watermill-nats; the stream is created or updated on startup. Disabled,
// events go to an in-process watermill channel that tests and local
// consumers can subscribe to. Either way a publish never blocks on a
// missing consumer.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/liveshop/internal/config"
	"github.com/tomtom215/liveshop/internal/metrics"
)

// Metadata keys set on every message.
const (
	MetadataTopic       = "topic"
	MetadataPublishedAt = "published_at"
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("event publisher is closed")
	// ErrNoSubscriber is returned by Subscribe on the NATS backend.
	ErrNoSubscriber = errors.New("in-process subscriptions need events.enabled=false")
)

// Publisher sends domain events.
type Publisher struct {
	pub     message.Publisher
	local   *gochannel.GoChannel
	prefix  string
	cb      *gobreaker.CircuitBreaker[interface{}]
	mu      sync.RWMutex
	closed  bool
	backend string
}

// New builds the publisher for cfg. logger may be nil.
func New(ctx context.Context, cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	p := &Publisher{prefix: cfg.Subject}
	p.cb = gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "events",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(name, from.String(), to.String())
		},
	})

	if !cfg.Enabled {
		p.local = gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
		p.pub = p.local
		p.backend = "memory"
		return p, nil
	}

	if err := ensureStream(ctx, cfg); err != nil {
		return nil, err
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("liveshop-events"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	p.pub = pub
	p.backend = "nats"
	return p, nil
}

// ensureStream creates or updates the JetStream stream for the subject tree.
func ensureStream(ctx context.Context, cfg config.EventsConfig) error {
	nc, err := natsgo.Connect(cfg.NATSURL, natsgo.Timeout(5*time.Second))
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       cfg.Stream,
		Subjects:   []string{cfg.Subject + ".>"},
		Retention:  jetstream.LimitsPolicy,
		Storage:    jetstream.FileStorage,
		MaxAge:     30 * 24 * time.Hour,
		Duplicates: 2 * time.Minute,
		Discard:    jetstream.DiscardOld,
	})
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", cfg.Stream, err)
	}
	return nil
}

// Backend is "nats" or "memory".
func (p *Publisher) Backend() string { return p.backend }

// Subject maps a topic to its NATS subject.
func (p *Publisher) Subject(topic string) string {
	if p.prefix == "" {
		return topic
	}
	return p.prefix + "." + topic
}

// Publish encodes payload as JSON and sends it under topic.
func (p *Publisher) Publish(ctx context.Context, topic string, payload interface{}) (err error) {
	defer func() { metrics.RecordEventPublished(topic, err) }()

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}
	msg := message.NewMessage(uuid.Must(uuid.NewV7()).String(), data)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetadataTopic, topic)
	msg.Metadata.Set(MetadataPublishedAt, time.Now().UTC().Format(time.RFC3339Nano))
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.pub.Publish(p.Subject(topic), msg)
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns the in-process stream for topic.
func (p *Publisher) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if p.local == nil {
		return nil, ErrNoSubscriber
	}
	return p.local.Subscribe(ctx, p.Subject(topic))
}

// Close flushes and closes the backend.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.pub.Close()
}
