// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package shop

import (
	"context"
	"slices"
	"strings"

	"github.com/tomtom215/liveshop/internal/metrics"
	"github.com/tomtom215/liveshop/internal/models"
)

// Chat history bounds.
const (
	DefaultChatHistory = 50
	MaxChatHistory     = 500
)

// SendChatRequest is the body of POST /api/chat.
type SendChatRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Message  string `json:"message" validate:"required,max=1000"`
	Emoji    string `json:"emoji,omitempty" validate:"max=32"`
}

// SendChat persists a chat message and broadcasts it.
func (s *Service) SendChat(ctx context.Context, req SendChatRequest) (*models.ChatMessage, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Message = strings.TrimSpace(req.Message)
	req.Emoji = strings.TrimSpace(req.Emoji)
	if err := validate(&req); err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		ID:        newID(),
		Username:  req.Username,
		Message:   req.Message,
		Emoji:     req.Emoji,
		CreatedAt: s.instant("chat_messages"),
	}
	if err := s.store.CreateChatMessage(ctx, msg); err != nil {
		return nil, err
	}
	metrics.ChatMessages.Inc()

	if s.hub != nil {
		s.hub.BroadcastChat(*msg)
	}
	s.publish(ctx, TopicChatMessage, msg)
	return msg, nil
}

// ChatHistory returns the newest limit messages in ascending time order.
func (s *Service) ChatHistory(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultChatHistory
	}
	msgs, err := s.store.RecentChatMessages(ctx, min(limit, MaxChatHistory))
	if err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}
