// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package media

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tomtom215/liveshop/internal/config"
)

// Daily talks to the Daily REST API. Unlike the other vendors it issues
// meeting tokens server side.
type Daily struct {
	cfg    config.VendorConfig
	ttl    time.Duration
	now    func() time.Time
	client *vendorClient
}

// NewDaily builds the Daily provider.
func NewDaily(cfg config.VendorConfig, timeout, tokenTTL time.Duration) *Daily {
	d := &Daily{cfg: cfg, ttl: tokenTTL, now: time.Now}
	d.client = newVendorClient("daily", cfg.URL, timeout, func(req *http.Request) error {
		if cfg.APIKey == "" {
			return fmt.Errorf("daily api key is required")
		}
		return bearer(cfg.APIKey)(req)
	})
	return d
}

func (d *Daily) Name() string { return "daily" }

type dailyRoom struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func (r dailyRoom) toRoom() Room {
	return Room{Name: r.Name, ID: r.ID, URL: r.URL, CreatedAt: r.CreatedAt, Provider: "daily"}
}

func (d *Daily) CreateRoom(ctx context.Context, name string) (*Room, error) {
	body := map[string]interface{}{
		"name":    name,
		"privacy": "private",
		"properties": map[string]interface{}{
			"exp": d.now().Add(d.ttl).Unix(),
		},
	}
	var out dailyRoom
	if err := d.client.call(ctx, "create_room", http.MethodPost, "/rooms", body, &out); err != nil {
		return nil, err
	}
	room := out.toRoom()
	return &room, nil
}

func (d *Daily) IssueToken(ctx context.Context, req TokenRequest) (*Token, error) {
	role := roleOrViewer(req.Role)
	exp := d.now().Add(d.ttl)
	body := map[string]interface{}{
		"properties": map[string]interface{}{
			"room_name": req.Room,
			"user_name": req.Identity,
			"user_id":   req.Identity,
			"is_owner":  role == RoleHost,
			"exp":       exp.Unix(),
		},
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := d.client.call(ctx, "issue_token", http.MethodPost, "/meeting-tokens", body, &out); err != nil {
		return nil, err
	}
	return &Token{
		Token:     out.Token,
		Room:      req.Room,
		Identity:  req.Identity,
		Role:      role,
		ExpiresAt: time.Unix(exp.Unix(), 0).UTC(),
		Provider:  "daily",
	}, nil
}

func (d *Daily) ListRooms(ctx context.Context) ([]Room, error) {
	var out struct {
		Data []dailyRoom `json:"data"`
	}
	if err := d.client.call(ctx, "list_rooms", http.MethodGet, "/rooms", nil, &out); err != nil {
		return nil, err
	}
	rooms := make([]Room, 0, len(out.Data))
	for _, r := range out.Data {
		rooms = append(rooms, r.toRoom())
	}
	return rooms, nil
}

func (d *Daily) EndRoom(ctx context.Context, name string) error {
	return d.client.call(ctx, "end_room", http.MethodDelete, "/rooms/"+url.PathEscape(name), nil, nil)
}
