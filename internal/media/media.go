// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

// Package media wraps the video vendors behind one Provider interface.
//
// The show streams through exactly one vendor, chosen by configuration:
//
//   - livekit: room service over Twirp, access tokens signed locally (HS256)
//   - hms: 100ms REST API with a management token; app tokens signed locally
//   - daily: Daily REST API with the API key; meeting tokens issued remotely
//   - none: every call fails with ErrNotConfigured
//
// Vendor HTTP calls go through a per-vendor circuit breaker so a vendor
// outage fails fast instead of tying up request handlers.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/liveshop/internal/config"
)

// Roles a token can be issued for.
const (
	RoleHost   = "host"
	RoleViewer = "viewer"
)

var (
	// ErrNotConfigured is returned by the none provider.
	ErrNotConfigured = errors.New("no media provider configured")
	// ErrVendor wraps failed vendor calls: transport errors, 5xx answers
	// and an open circuit breaker.
	ErrVendor = errors.New("media vendor unavailable")
	// ErrRoomNotFound is returned when the vendor does not know the room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRejected is returned when the vendor refuses a request (4xx).
	ErrRejected = errors.New("media vendor rejected the request")
)

// Room is a vendor room.
type Room struct {
	Name      string    `json:"name"`
	ID        string    `json:"id,omitempty"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	Provider  string    `json:"provider"`
}

// TokenRequest asks for a join token.
type TokenRequest struct {
	Room     string `json:"room" validate:"required,max=128"`
	Identity string `json:"identity" validate:"required,max=128"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=host viewer"`
}

// Token is a join token for one participant.
type Token struct {
	Token     string    `json:"token"`
	Room      string    `json:"room"`
	Identity  string    `json:"identity"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	Provider  string    `json:"provider"`
	URL       string    `json:"url,omitempty"`
}

// Provider is one video vendor.
type Provider interface {
	Name() string
	CreateRoom(ctx context.Context, name string) (*Room, error)
	IssueToken(ctx context.Context, req TokenRequest) (*Token, error)
	ListRooms(ctx context.Context) ([]Room, error)
	EndRoom(ctx context.Context, name string) error
}

// New builds the configured provider.
func New(cfg config.MediaConfig) (Provider, error) {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return None{}, nil
	case "livekit":
		return NewLiveKit(cfg.LiveKit, cfg.Timeout, ttl), nil
	case "hms", "100ms":
		return NewHMS(cfg.HMS, cfg.Timeout, ttl), nil
	case "daily":
		return NewDaily(cfg.Daily, cfg.Timeout, ttl), nil
	default:
		return nil, fmt.Errorf("unknown media provider %q", cfg.Provider)
	}
}

// None is the provider used when video is handled elsewhere.
type None struct{}

func (None) Name() string { return "none" }

func (None) CreateRoom(context.Context, string) (*Room, error) { return nil, ErrNotConfigured }

func (None) IssueToken(context.Context, TokenRequest) (*Token, error) { return nil, ErrNotConfigured }

func (None) ListRooms(context.Context) ([]Room, error) { return nil, ErrNotConfigured }

func (None) EndRoom(context.Context, string) error { return ErrNotConfigured }

func roleOrViewer(role string) string {
	if role == RoleHost {
		return RoleHost
	}
	return RoleViewer
}
