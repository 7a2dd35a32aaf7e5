// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/liveshop/internal/shop"
)

// SendChat handles POST /api/chat.
func (h *Handler) SendChat(w http.ResponseWriter, r *http.Request) {
	var req shop.SendChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.shop.SendChat(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

// ChatHistory handles GET /api/chat?limit=N, oldest first.
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", shop.DefaultChatHistory)
	if !ok {
		return
	}
	msgs, err := h.shop.ChatHistory(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(msgs))
}

// CreateOrder handles POST /api/orders. Print failures never fail the order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req shop.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.shop.CreateOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// ListOrders handles GET /api/orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", 0)
	if !ok {
		return
	}
	customerID := strings.TrimSpace(r.URL.Query().Get("customer_id"))
	orders, err := h.shop.ListOrders(r.Context(), customerID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(orders))
}

// GetOrder handles GET /api/orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.shop.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// StreamStatus handles GET /api/stream/status.
func (h *Handler) StreamStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.shop.StreamStatus())
}

// SetStreamStatus handles POST /api/stream/status.
func (h *Handler) SetStreamStatus(w http.ResponseWriter, r *http.Request) {
	var req shop.StreamStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := h.shop.SetStreamStatus(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// AdminStats handles GET /api/admin/stats.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.shop.Stats(r.Context()))
}

// resetCounterResponse keeps new_count for the operator console and adds
// the totals broadcast alongside.
type resetCounterResponse struct {
	NewCount    int64 `json:"new_count"`
	TotalOrders int64 `json:"total_orders"`
}

// ResetCounter handles POST /api/admin/reset-counter.
func (h *Handler) ResetCounter(w http.ResponseWriter, r *http.Request) {
	c := h.shop.ResetSessionCounter(r.Context())
	respondJSON(w, http.StatusOK, resetCounterResponse{NewCount: c.SessionOrders, TotalOrders: c.TotalOrders})
}

// Ticker handles GET /api/admin/ticker.
func (h *Handler) Ticker(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.shop.Ticker())
}

// SetTicker handles POST /api/admin/ticker. Current viewers get exactly one
// ticker_update frame; later viewers read the ticker over HTTP.
func (h *Handler) SetTicker(w http.ResponseWriter, r *http.Request) {
	var req shop.TickerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.shop.SetTicker(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// Performance handles GET /api/admin/performance.
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	n, ok := queryInt(w, r, "recent", 20)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"endpoints":       h.perfMon.GetStats(),
		"recent_requests": h.perfMon.GetRecentMetrics(n),
		"preview_cache":   h.previews.Stats(),
	})
}
