// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package websocket

import (
	"sync"

	"github.com/tomtom215/liveshop/internal/models"
)

// State is the process-wide mutable configuration shown to viewers. It lives
// as long as the process and is never persisted.
type State struct {
	mu sync.RWMutex

	ticker        models.Ticker
	sessionOrders int64

	live        bool
	title       string
	description string
}

// NewState returns a State with the configured stream title.
func NewState(title, description string) *State {
	return &State{title: title, description: description}
}

func (s *State) Ticker() models.Ticker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticker
}

func (s *State) SetTicker(t models.Ticker) {
	s.mu.Lock()
	s.ticker = t
	s.mu.Unlock()
}

// IncrementSessionOrders adds one accepted order and returns the new count.
func (s *State) IncrementSessionOrders() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionOrders++
	return s.sessionOrders
}

func (s *State) SessionOrders() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionOrders
}

func (s *State) ResetSessionOrders() {
	s.mu.Lock()
	s.sessionOrders = 0
	s.mu.Unlock()
}

// Stream returns the live flag, title and description.
func (s *State) Stream() (live bool, title, description string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live, s.title, s.description
}

// SetStream replaces the stream flags. Empty title or description keeps the
// current value.
func (s *State) SetStream(live bool, title, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = live
	if title != "" {
		s.title = title
	}
	if description != "" {
		s.description = description
	}
}
