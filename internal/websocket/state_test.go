// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package websocket

import (
	"sync"
	"testing"

	"github.com/tomtom215/liveshop/internal/models"
)

func TestStateSessionOrders(t *testing.T) {
	s := NewState("Live", "")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.IncrementSessionOrders()
		}()
	}
	wg.Wait()

	if got := s.SessionOrders(); got != 50 {
		t.Errorf("SessionOrders() = %d, want 50", got)
	}
	s.ResetSessionOrders()
	if got := s.SessionOrders(); got != 0 {
		t.Errorf("after reset = %d, want 0", got)
	}
	if got := s.IncrementSessionOrders(); got != 1 {
		t.Errorf("increment after reset = %d, want 1", got)
	}
}

func TestStateTickerAndStream(t *testing.T) {
	s := NewState("Live Shopping", "Spring sale")

	if tk := s.Ticker(); tk.Enabled || tk.Text != "" {
		t.Errorf("initial ticker = %+v", tk)
	}
	s.SetTicker(models.Ticker{Text: "Hello", Enabled: true})
	if tk := s.Ticker(); tk.Text != "Hello" || !tk.Enabled {
		t.Errorf("ticker = %+v", tk)
	}

	live, title, desc := s.Stream()
	if live || title != "Live Shopping" || desc != "Spring sale" {
		t.Errorf("initial stream = %v %q %q", live, title, desc)
	}
	s.SetStream(true, "", "Now live")
	live, title, desc = s.Stream()
	if !live || title != "Live Shopping" || desc != "Now live" {
		t.Errorf("stream = %v %q %q", live, title, desc)
	}
}
