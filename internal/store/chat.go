// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package store

import (
	"context"
	"fmt"

	"github.com/tomtom215/liveshop/internal/models"
)

// CreateChatMessage persists a chat message.
func (s *Store) CreateChatMessage(ctx context.Context, m *models.ChatMessage) error {
	if err := s.Put(ctx, ChatMessages, m.ID, m); err != nil {
		return fmt.Errorf("create chat message: %w", err)
	}
	return nil
}

// RecentChatMessages returns at most limit messages, newest first.
func (s *Store) RecentChatMessages(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	msgs := []models.ChatMessage{}
	if err := s.List(ctx, ChatMessages, Query{Sort: "-created_at", Limit: limit}, &msgs); err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return msgs, nil
}
