// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package shop

import (
	"context"
	"strings"

	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/models"
)

// TickerRequest is the body of POST /api/admin/ticker.
type TickerRequest struct {
	Text    string `json:"text" validate:"max=500"`
	Enabled bool   `json:"enabled"`
}

// StreamStatusRequest is the body of POST /api/stream/status. Empty title
// and description keep the current values.
type StreamStatusRequest struct {
	IsLive            bool   `json:"is_live"`
	StreamTitle       string `json:"stream_title,omitempty" validate:"max=200"`
	StreamDescription string `json:"stream_description,omitempty" validate:"max=2000"`
}

// Stats returns the counters. The total degrades to zero when the store
// cannot be read.
func (s *Service) Stats(ctx context.Context) models.OrderCounters {
	return models.OrderCounters{
		SessionOrders: s.state.SessionOrders(),
		TotalOrders:   s.totalOrders(ctx),
	}
}

// ResetSessionCounter zeroes the session counter and broadcasts the new
// counters.
func (s *Service) ResetSessionCounter(ctx context.Context) models.OrderCounters {
	s.state.ResetSessionOrders()
	counters := s.Stats(ctx)
	if s.hub != nil {
		s.hub.BroadcastCounters(counters)
	}
	logging.Ctx(ctx).Info().Int64("total_orders", counters.TotalOrders).Msg("session order counter reset")
	return counters
}

// Ticker returns the current ticker.
func (s *Service) Ticker() models.Ticker {
	return s.state.Ticker()
}

// SetTicker stores the ticker and broadcasts it once to current viewers.
func (s *Service) SetTicker(ctx context.Context, req TickerRequest) (models.Ticker, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := validate(&req); err != nil {
		return models.Ticker{}, err
	}
	t := models.Ticker{Text: req.Text, Enabled: req.Enabled}
	s.state.SetTicker(t)
	if s.hub != nil {
		s.hub.BroadcastTicker(t)
	}
	logging.Ctx(ctx).Info().Bool("enabled", t.Enabled).Msg("ticker updated")
	return t, nil
}

// StreamStatus reports the live flag, viewer count and stream texts.
func (s *Service) StreamStatus() models.StreamStatus {
	live, title, desc := s.state.Stream()
	viewers := 0
	if s.hub != nil {
		viewers = s.hub.ViewerCount()
	}
	return models.StreamStatus{
		IsLive:            live,
		ViewerCount:       viewers,
		StreamTitle:       title,
		StreamDescription: desc,
	}
}

// SetStreamStatus updates the operator-controlled stream fields.
func (s *Service) SetStreamStatus(ctx context.Context, req StreamStatusRequest) (models.StreamStatus, error) {
	req.StreamTitle = strings.TrimSpace(req.StreamTitle)
	req.StreamDescription = strings.TrimSpace(req.StreamDescription)
	if err := validate(&req); err != nil {
		return models.StreamStatus{}, err
	}
	s.state.SetStream(req.IsLive, req.StreamTitle, req.StreamDescription)
	logging.Ctx(ctx).Info().Bool("is_live", req.IsLive).Msg("stream status updated")
	return s.StreamStatus(), nil
}
