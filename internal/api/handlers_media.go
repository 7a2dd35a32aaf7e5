// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/media"
	"github.com/tomtom215/liveshop/internal/shop"
	"github.com/tomtom215/liveshop/internal/validation"
)

// CreateRoomRequest is the body of POST /api/media/room.
type CreateRoomRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

// CreateRoom handles POST /api/media/room.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeError(w, r, &shop.ValidationError{RequestValidationError: verr})
		return
	}
	room, err := h.media.CreateRoom(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("provider", h.media.Name()).Str("room", room.Name).Msg("media room created")
	respondJSON(w, http.StatusOK, room)
}

// IssueToken handles POST /api/media/token.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req media.TokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Room = strings.TrimSpace(req.Room)
	req.Identity = strings.TrimSpace(req.Identity)
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeError(w, r, &shop.ValidationError{RequestValidationError: verr})
		return
	}
	tok, err := h.media.IssueToken(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tok)
}

// ListRooms handles GET /api/media/rooms.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.media.ListRooms(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(rooms))
}

// EndRoom handles DELETE /api/media/rooms/{name}.
func (h *Handler) EndRoom(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.media.EndRoom(r.Context(), name); err != nil {
		writeError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("provider", h.media.Name()).Str("room", name).Msg("media room ended")
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "room": name})
}
