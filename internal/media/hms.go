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

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/liveshop/internal/config"
)

const hmsManagementTTL = 10 * time.Minute

// HMSClaims are shared by 100ms management and app tokens.
type HMSClaims struct {
	jwt.RegisteredClaims
	AccessKey string `json:"access_key"`
	Type      string `json:"type"`
	Version   int    `json:"version"`
	RoomID    string `json:"room_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Role      string `json:"role,omitempty"`
}

// HMS talks to the 100ms REST API.
type HMS struct {
	cfg    config.VendorConfig
	ttl    time.Duration
	now    func() time.Time
	client *vendorClient
}

// NewHMS builds the 100ms provider.
func NewHMS(cfg config.VendorConfig, timeout, tokenTTL time.Duration) *HMS {
	h := &HMS{cfg: cfg, ttl: tokenTTL, now: time.Now}
	h.client = newVendorClient("hms", cfg.URL, timeout, h.authorize)
	return h
}

func (h *HMS) Name() string { return "hms" }

func (h *HMS) authorize(req *http.Request) error {
	token, err := h.sign(HMSClaims{Type: "management"}, hmsManagementTTL)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (h *HMS) sign(claims HMSClaims, ttl time.Duration) (string, error) {
	if h.cfg.APIKey == "" || h.cfg.APISecret == "" {
		return "", fmt.Errorf("100ms access key and secret are required")
	}
	now := h.now()
	claims.AccessKey = h.cfg.APIKey
	claims.Version = 2
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.APISecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

type hmsRoom struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (r hmsRoom) toRoom() Room {
	return Room{Name: r.Name, ID: r.ID, CreatedAt: r.CreatedAt, Provider: "hms"}
}

func (h *HMS) CreateRoom(ctx context.Context, name string) (*Room, error) {
	body := map[string]string{"name": name}
	if h.cfg.TemplateID != "" {
		body["template_id"] = h.cfg.TemplateID
	}
	var out hmsRoom
	if err := h.client.call(ctx, "create_room", http.MethodPost, "/rooms", body, &out); err != nil {
		return nil, err
	}
	room := out.toRoom()
	return &room, nil
}

// roomID resolves a room name to its 100ms id.
func (h *HMS) roomID(ctx context.Context, name string) (string, error) {
	var out struct {
		Data []hmsRoom `json:"data"`
	}
	if err := h.client.call(ctx, "find_room", http.MethodGet, "/rooms?name="+url.QueryEscape(name), nil, &out); err != nil {
		return "", err
	}
	for _, r := range out.Data {
		if r.Name == name {
			return r.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrRoomNotFound, name)
}

// IssueToken signs an app token locally after resolving the room id.
func (h *HMS) IssueToken(ctx context.Context, req TokenRequest) (*Token, error) {
	id, err := h.roomID(ctx, req.Room)
	if err != nil {
		return nil, err
	}
	role := roleOrViewer(req.Role)
	signed, err := h.sign(HMSClaims{Type: "app", RoomID: id, UserID: req.Identity, Role: role}, h.ttl)
	if err != nil {
		return nil, err
	}
	return &Token{
		Token:     signed,
		Room:      req.Room,
		Identity:  req.Identity,
		Role:      role,
		ExpiresAt: h.now().Add(h.ttl).UTC(),
		Provider:  "hms",
	}, nil
}

func (h *HMS) ListRooms(ctx context.Context) ([]Room, error) {
	var out struct {
		Data []hmsRoom `json:"data"`
	}
	if err := h.client.call(ctx, "list_rooms", http.MethodGet, "/rooms", nil, &out); err != nil {
		return nil, err
	}
	rooms := make([]Room, 0, len(out.Data))
	for _, r := range out.Data {
		rooms = append(rooms, r.toRoom())
	}
	return rooms, nil
}

// EndRoom ends the active session and locks the room against rejoin.
func (h *HMS) EndRoom(ctx context.Context, name string) error {
	id, err := h.roomID(ctx, name)
	if err != nil {
		return err
	}
	body := map[string]interface{}{"reason": "show ended", "lock": true}
	return h.client.call(ctx, "end_room", http.MethodPost, "/active-rooms/"+url.PathEscape(id)+"/end-room", body, nil)
}
