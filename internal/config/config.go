// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

// Package config loads configuration for the API server and the print agent.
//
// Both binaries use the same layering (see Load and LoadAgent):
//  1. Built-in defaults
//  2. Optional YAML file (CONFIG_PATH, or the first default path that exists)
//  3. Environment variables, through an explicit name table
//
// Config values are immutable after loading and safe to share between
// goroutines.
package config

import (
	"fmt"
	"time"
)

// Config is the API server configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Store      StoreConfig      `koanf:"store"`
	PrintAgent PrintAgentConfig `koanf:"printagent"`
	Hub        HubConfig        `koanf:"hub"`
	Stream     StreamConfig     `koanf:"stream"`
	Media      MediaConfig      `koanf:"media"`
	Events     EventsConfig     `koanf:"events"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StoreConfig selects where documents live. Path is the badger directory
// and Database a sub-directory under it, so several shows can share a host.
type StoreConfig struct {
	Path         string        `koanf:"path"`
	Database     string        `koanf:"database"`
	InMemory     bool          `koanf:"in_memory"`
	SeedProducts bool          `koanf:"seed_products"`
	GCInterval   time.Duration `koanf:"gc_interval"`
}

// PrintAgentConfig is the dispatcher's view of the print agent.
type PrintAgentConfig struct {
	URL            string        `koanf:"url"`
	Timeout        time.Duration `koanf:"timeout"`
	Attempts       int           `koanf:"attempts"`
	InitialBackoff time.Duration `koanf:"initial_backoff"`
	MaxBackoff     time.Duration `koanf:"max_backoff"`
	Budget         time.Duration `koanf:"budget"`
	// BreakerFailures consecutive failures open the circuit.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
	// Timezone is the IANA zone for label timestamps; empty means the host zone.
	Timezone string `koanf:"timezone"`
}

// Location resolves Timezone.
func (c PrintAgentConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("printagent.timezone: %w", err)
	}
	return loc, nil
}

// HubConfig tunes the WebSocket fan-out.
type HubConfig struct {
	SendBuffer     int           `koanf:"send_buffer"`
	WriteWait      time.Duration `koanf:"write_wait"`
	PongWait       time.Duration `koanf:"pong_wait"`
	MaxMessageSize int64         `koanf:"max_message_size"`
	ViewerInterval time.Duration `koanf:"viewer_interval"`
}

// StreamConfig holds the initial stream metadata shown by /stream/status.
type StreamConfig struct {
	Title       string `koanf:"title"`
	Description string `koanf:"description"`
}

// MediaConfig selects the video vendor. Provider is one of livekit, hms,
// daily or none.
type MediaConfig struct {
	Provider string        `koanf:"provider"`
	Timeout  time.Duration `koanf:"timeout"`
	TokenTTL time.Duration `koanf:"token_ttl"`
	LiveKit  VendorConfig  `koanf:"livekit"`
	HMS      VendorConfig  `koanf:"hms"`
	Daily    VendorConfig  `koanf:"daily"`
}

// VendorConfig holds one vendor's credentials. Not every vendor uses every
// field: Daily only needs URL and APIKey.
type VendorConfig struct {
	URL        string `koanf:"url"`
	APIKey     string `koanf:"api_key"`
	APISecret  string `koanf:"api_secret"`
	TemplateID string `koanf:"template_id"`
}

// EventsConfig enables publishing domain events to NATS JetStream. When
// disabled, events stay in process.
type EventsConfig struct {
	Enabled bool   `koanf:"enabled"`
	NATSURL string `koanf:"nats_url"`
	Stream  string `koanf:"stream"`
	Subject string `koanf:"subject"`
}

// SecurityConfig covers CORS, rate limiting and upload limits.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	MaxImageBytes     int64         `koanf:"max_image_bytes"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Path:         "/data/liveshop",
			Database:     "liveshop",
			SeedProducts: true,
			GCInterval:   10 * time.Minute,
		},
		PrintAgent: PrintAgentConfig{
			URL:             "http://127.0.0.1:8765",
			Timeout:         10 * time.Second,
			Attempts:        3,
			InitialBackoff:  250 * time.Millisecond,
			MaxBackoff:      2 * time.Second,
			Budget:          5 * time.Second,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Hub: HubConfig{
			SendBuffer:     256,
			WriteWait:      5 * time.Second,
			PongWait:       60 * time.Second,
			MaxMessageSize: 4096,
			ViewerInterval: 500 * time.Millisecond,
		},
		Stream: StreamConfig{
			Title:       "Live Shopping",
			Description: "",
		},
		Media: MediaConfig{
			Provider: "none",
			Timeout:  15 * time.Second,
			TokenTTL: 6 * time.Hour,
			LiveKit:  VendorConfig{URL: "https://livekit.example.invalid"},
			HMS:      VendorConfig{URL: "https://api.100ms.live/v2"},
			Daily:    VendorConfig{URL: "https://api.daily.co/v1"},
		},
		Events: EventsConfig{
			Enabled: false,
			NATSURL: "nats://127.0.0.1:4222",
			Stream:  "LIVESHOP",
			Subject: "liveshop.events",
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
			MaxImageBytes:     512 << 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
