// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package media

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/liveshop/internal/config"
)

const (
	livekitTwirpPrefix = "/twirp/livekit.RoomService/"
	// livekitServiceTTL bounds the tokens the backend mints for itself.
	livekitServiceTTL = 10 * time.Minute
	// livekitEmptyTimeout closes a room nobody joined, in seconds.
	livekitEmptyTimeout = 600
)

// VideoGrant is the LiveKit permission block of an access token.
type VideoGrant struct {
	RoomCreate   bool   `json:"roomCreate,omitempty"`
	RoomList     bool   `json:"roomList,omitempty"`
	RoomAdmin    bool   `json:"roomAdmin,omitempty"`
	RoomJoin     bool   `json:"roomJoin,omitempty"`
	Room         string `json:"room,omitempty"`
	CanPublish   *bool  `json:"canPublish,omitempty"`
	CanSubscribe *bool  `json:"canSubscribe,omitempty"`
}

// LiveKitClaims are the claims of a LiveKit access token.
type LiveKitClaims struct {
	jwt.RegisteredClaims
	Name  string      `json:"name,omitempty"`
	Video *VideoGrant `json:"video,omitempty"`
}

// LiveKit talks to a LiveKit server.
type LiveKit struct {
	cfg    config.VendorConfig
	ttl    time.Duration
	now    func() time.Time
	client *vendorClient
}

// NewLiveKit builds the LiveKit provider.
func NewLiveKit(cfg config.VendorConfig, timeout, tokenTTL time.Duration) *LiveKit {
	lk := &LiveKit{cfg: cfg, ttl: tokenTTL, now: time.Now}
	lk.client = newVendorClient("livekit", cfg.URL, timeout, lk.authorize)
	return lk
}

func (lk *LiveKit) Name() string { return "livekit" }

// authorize mints a short-lived admin token per request.
func (lk *LiveKit) authorize(req *http.Request) error {
	token, err := lk.sign("liveshop-backend", "", &VideoGrant{RoomCreate: true, RoomList: true, RoomAdmin: true}, livekitServiceTTL)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (lk *LiveKit) sign(identity, name string, grant *VideoGrant, ttl time.Duration) (string, error) {
	if lk.cfg.APIKey == "" || lk.cfg.APISecret == "" {
		return "", fmt.Errorf("livekit api key and secret are required")
	}
	now := lk.now()
	claims := LiveKitClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    lk.cfg.APIKey,
			Subject:   identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name:  name,
		Video: grant,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(lk.cfg.APISecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

type livekitRoom struct {
	SID          string `json:"sid"`
	Name         string `json:"name"`
	CreationTime string `json:"creation_time"`
}

func (r livekitRoom) toRoom() Room {
	room := Room{Name: r.Name, ID: r.SID, Provider: "livekit"}
	// Twirp JSON encodes int64 as a string.
	if secs, err := strconv.ParseInt(r.CreationTime, 10, 64); err == nil && secs > 0 {
		room.CreatedAt = time.Unix(secs, 0).UTC()
	}
	return room
}

func (lk *LiveKit) CreateRoom(ctx context.Context, name string) (*Room, error) {
	body := map[string]interface{}{"name": name, "empty_timeout": livekitEmptyTimeout}
	var out livekitRoom
	if err := lk.client.call(ctx, "create_room", http.MethodPost, livekitTwirpPrefix+"CreateRoom", body, &out); err != nil {
		return nil, err
	}
	room := out.toRoom()
	return &room, nil
}

// IssueToken signs locally; LiveKit needs no round trip for join tokens.
func (lk *LiveKit) IssueToken(_ context.Context, req TokenRequest) (*Token, error) {
	role := roleOrViewer(req.Role)
	publish := role == RoleHost
	subscribe := true
	grant := &VideoGrant{RoomJoin: true, Room: req.Room, CanPublish: &publish, CanSubscribe: &subscribe}
	signed, err := lk.sign(req.Identity, req.Identity, grant, lk.ttl)
	if err != nil {
		return nil, err
	}
	return &Token{
		Token:     signed,
		Room:      req.Room,
		Identity:  req.Identity,
		Role:      role,
		ExpiresAt: lk.now().Add(lk.ttl).UTC(),
		Provider:  "livekit",
		URL:       lk.cfg.URL,
	}, nil
}

func (lk *LiveKit) ListRooms(ctx context.Context) ([]Room, error) {
	var out struct {
		Rooms []livekitRoom `json:"rooms"`
	}
	if err := lk.client.call(ctx, "list_rooms", http.MethodPost, livekitTwirpPrefix+"ListRooms", struct{}{}, &out); err != nil {
		return nil, err
	}
	rooms := make([]Room, 0, len(out.Rooms))
	for _, r := range out.Rooms {
		rooms = append(rooms, r.toRoom())
	}
	return rooms, nil
}

func (lk *LiveKit) EndRoom(ctx context.Context, name string) error {
	return lk.client.call(ctx, "end_room", http.MethodPost, livekitTwirpPrefix+"DeleteRoom", map[string]string{"room": name}, nil)
}
