// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/liveshop/internal/config"
)

const (
	testKey    = "APIkey123"
	testSecret = "a-secret-that-is-long-enough-for-hs256"
)

func vendorCfg(url string) config.VendorConfig {
	return config.VendorConfig{URL: url, APIKey: testKey, APISecret: testSecret, TemplateID: "tmpl-1"}
}

func bearerToken(t *testing.T, r *http.Request) string {
	t.Helper()
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		t.Fatalf("missing bearer token, got %q", h)
	}
	return strings.TrimPrefix(h, "Bearer ")
}

func keyFunc(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil }

func writeBody(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewSelectsProvider(t *testing.T) {
	tests := []struct {
		provider string
		want     string
		wantErr  bool
	}{
		{"", "none", false},
		{"none", "none", false},
		{"LiveKit", "livekit", false},
		{"hms", "hms", false},
		{"daily", "daily", false},
		{"zoom", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := New(config.MediaConfig{Provider: tt.provider, Timeout: time.Second})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if p.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.want)
			}
		})
	}
}

func TestNoneProvider(t *testing.T) {
	ctx := context.Background()
	p := None{}
	if _, err := p.CreateRoom(ctx, "show"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("CreateRoom error = %v", err)
	}
	if _, err := p.IssueToken(ctx, TokenRequest{Room: "show", Identity: "a"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("IssueToken error = %v", err)
	}
	if _, err := p.ListRooms(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("ListRooms error = %v", err)
	}
	if err := p.EndRoom(ctx, "show"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("EndRoom error = %v", err)
	}
}

func TestLiveKitIssueToken(t *testing.T) {
	lk := NewLiveKit(vendorCfg("https://lk.invalid"), time.Second, time.Hour)

	tests := []struct {
		role        string
		wantRole    string
		wantPublish bool
	}{
		{RoleHost, RoleHost, true},
		{RoleViewer, RoleViewer, false},
		{"", RoleViewer, false},
	}
	for _, tt := range tests {
		t.Run(tt.wantRole+"/"+tt.role, func(t *testing.T) {
			tok, err := lk.IssueToken(context.Background(), TokenRequest{Room: "show", Identity: "anna", Role: tt.role})
			if err != nil {
				t.Fatalf("IssueToken() error = %v", err)
			}
			if tok.Role != tt.wantRole || tok.URL != "https://lk.invalid" {
				t.Errorf("token = %+v", tok)
			}

			claims := &LiveKitClaims{}
			if _, err := jwt.ParseWithClaims(tok.Token, claims, keyFunc); err != nil {
				t.Fatalf("parse: %v", err)
			}
			if claims.Issuer != testKey || claims.Subject != "anna" {
				t.Errorf("iss/sub = %q/%q", claims.Issuer, claims.Subject)
			}
			v := claims.Video
			if v == nil || !v.RoomJoin || v.Room != "show" {
				t.Fatalf("video grant = %+v", v)
			}
			if v.CanPublish == nil || *v.CanPublish != tt.wantPublish {
				t.Errorf("canPublish = %v, want %v", v.CanPublish, tt.wantPublish)
			}
		})
	}
}

func TestLiveKitRoomService(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		claims := &LiveKitClaims{}
		if _, err := jwt.ParseWithClaims(bearerToken(t, r), claims, keyFunc); err != nil {
			t.Errorf("service token: %v", err)
		}
		if claims.Video == nil || !claims.Video.RoomCreate || !claims.Video.RoomList {
			t.Errorf("service grant = %+v", claims.Video)
		}
		switch r.URL.Path {
		case "/twirp/livekit.RoomService/CreateRoom":
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["name"] != "show" {
				t.Errorf("create body = %v", body)
			}
			writeBody(w, 200, map[string]string{"sid": "RM_1", "name": "show", "creation_time": "1778612651"})
		case "/twirp/livekit.RoomService/ListRooms":
			writeBody(w, 200, map[string]interface{}{"rooms": []map[string]string{{"sid": "RM_1", "name": "show"}}})
		case "/twirp/livekit.RoomService/DeleteRoom":
			writeBody(w, 200, map[string]string{})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	lk := NewLiveKit(vendorCfg(srv.URL), time.Second, time.Hour)

	room, err := lk.CreateRoom(ctx, "show")
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if room.ID != "RM_1" || room.CreatedAt.Unix() != 1778612651 {
		t.Errorf("room = %+v", room)
	}
	rooms, err := lk.ListRooms(ctx)
	if err != nil || len(rooms) != 1 || rooms[0].Provider != "livekit" {
		t.Errorf("ListRooms() = %+v, %v", rooms, err)
	}
	if err := lk.EndRoom(ctx, "show"); err != nil {
		t.Errorf("EndRoom() error = %v", err)
	}
	if len(paths) != 3 {
		t.Errorf("calls = %v", paths)
	}
}

func TestLiveKitRequiresCredentials(t *testing.T) {
	lk := NewLiveKit(config.VendorConfig{URL: "https://lk.invalid"}, time.Second, time.Hour)
	if _, err := lk.IssueToken(context.Background(), TokenRequest{Room: "show", Identity: "a"}); err == nil {
		t.Error("expected an error without credentials")
	}
}

func hmsServer(t *testing.T, rooms []hmsRoom, ended *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := &HMSClaims{}
		if _, err := jwt.ParseWithClaims(bearerToken(t, r), claims, keyFunc); err != nil {
			t.Errorf("management token: %v", err)
		}
		if claims.Type != "management" || claims.AccessKey != testKey || claims.Version != 2 || claims.ID == "" {
			t.Errorf("management claims = %+v", claims)
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/rooms":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["template_id"] != "tmpl-1" {
				t.Errorf("create body = %v", body)
			}
			writeBody(w, 200, hmsRoom{ID: "r-1", Name: body["name"]})
		case r.Method == http.MethodGet && r.URL.Path == "/rooms":
			name := r.URL.Query().Get("name")
			var out []hmsRoom
			for _, room := range rooms {
				if name == "" || room.Name == name {
					out = append(out, room)
				}
			}
			writeBody(w, 200, map[string]interface{}{"data": out})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/end-room"):
			ended.Add(1)
			writeBody(w, 200, map[string]string{"message": "ok"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestHMS(t *testing.T) {
	var ended atomic.Int32
	srv := hmsServer(t, []hmsRoom{{ID: "r-1", Name: "show"}, {ID: "r-2", Name: "other"}}, &ended)
	defer srv.Close()

	ctx := context.Background()
	h := NewHMS(vendorCfg(srv.URL), time.Second, time.Hour)

	room, err := h.CreateRoom(ctx, "show")
	if err != nil || room.ID != "r-1" {
		t.Fatalf("CreateRoom() = %+v, %v", room, err)
	}

	tok, err := h.IssueToken(ctx, TokenRequest{Room: "show", Identity: "anna", Role: RoleHost})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	claims := &HMSClaims{}
	if _, err := jwt.ParseWithClaims(tok.Token, claims, keyFunc); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Type != "app" || claims.RoomID != "r-1" || claims.UserID != "anna" || claims.Role != RoleHost {
		t.Errorf("app claims = %+v", claims)
	}

	rooms, err := h.ListRooms(ctx)
	if err != nil || len(rooms) != 2 {
		t.Errorf("ListRooms() = %+v, %v", rooms, err)
	}

	if err := h.EndRoom(ctx, "show"); err != nil || ended.Load() != 1 {
		t.Errorf("EndRoom() = %v, ended %d", err, ended.Load())
	}
	if err := h.EndRoom(ctx, "missing"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("EndRoom(missing) error = %v", err)
	}
}

func TestDaily(t *testing.T) {
	var deleted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer "+testKey {
			t.Errorf("Authorization = %q", got)
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/rooms":
			writeBody(w, 200, dailyRoom{ID: "d-1", Name: "show", URL: "https://shop.daily.co/show"})
		case r.Method == http.MethodGet && r.URL.Path == "/rooms":
			writeBody(w, 200, map[string]interface{}{"data": []dailyRoom{{ID: "d-1", Name: "show"}}})
		case r.Method == http.MethodPost && r.URL.Path == "/meeting-tokens":
			var body struct {
				Properties map[string]interface{} `json:"properties"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.Properties["room_name"] != "show" || body.Properties["is_owner"] != false {
				t.Errorf("token properties = %v", body.Properties)
			}
			writeBody(w, 200, map[string]string{"token": "daily-token"})
		case r.Method == http.MethodDelete:
			deleted = strings.TrimPrefix(r.URL.Path, "/rooms/")
			writeBody(w, 200, map[string]interface{}{"deleted": true})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	d := NewDaily(vendorCfg(srv.URL), time.Second, time.Hour)

	room, err := d.CreateRoom(ctx, "show")
	if err != nil || room.URL != "https://shop.daily.co/show" {
		t.Fatalf("CreateRoom() = %+v, %v", room, err)
	}
	tok, err := d.IssueToken(ctx, TokenRequest{Room: "show", Identity: "anna"})
	if err != nil || tok.Token != "daily-token" || tok.Role != RoleViewer {
		t.Fatalf("IssueToken() = %+v, %v", tok, err)
	}
	if rooms, err := d.ListRooms(ctx); err != nil || len(rooms) != 1 {
		t.Errorf("ListRooms() = %+v, %v", rooms, err)
	}
	if err := d.EndRoom(ctx, "show"); err != nil || deleted != "show" {
		t.Errorf("EndRoom() = %v, deleted %q", err, deleted)
	}
}

func TestVendorErrorsAreClassified(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrRejected},
		{http.StatusNotFound, ErrRoomNotFound},
		{http.StatusBadGateway, ErrVendor},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeBody(w, tt.status, map[string]string{"error": "nope"})
			}))
			defer srv.Close()

			d := NewDaily(vendorCfg(srv.URL), time.Second, time.Hour)
			_, err := d.CreateRoom(context.Background(), "show")
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var se *StatusError
			if !errors.As(err, &se) || se.StatusCode != tt.status {
				t.Errorf("StatusError = %+v", se)
			}
		})
	}
}

func TestBreakerOpensOnOutage(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewDaily(vendorCfg(srv.URL), time.Second, time.Hour)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := d.ListRooms(ctx); !errors.Is(err, ErrVendor) {
			t.Fatalf("call %d error = %v", i, err)
		}
	}
	_, err := d.ListRooms(ctx)
	if !errors.Is(err, ErrVendor) || !strings.Contains(err.Error(), "circuit") {
		t.Errorf("open breaker error = %v", err)
	}
	if hits.Load() != 5 {
		t.Errorf("vendor hits = %d, want 5", hits.Load())
	}
}

func TestBreakerIgnoresRejections(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	d := NewDaily(vendorCfg(srv.URL), time.Second, time.Hour)
	for i := 0; i < 8; i++ {
		if _, err := d.ListRooms(context.Background()); !errors.Is(err, ErrRejected) {
			t.Fatalf("call %d error = %v", i, err)
		}
	}
	if hits.Load() != 8 {
		t.Errorf("vendor hits = %d, want 8", hits.Load())
	}
}
