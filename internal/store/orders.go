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

// CreateOrder persists a new order.
func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	if err := s.Put(ctx, Orders, o.ID, o); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// GetOrder loads one order.
func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := s.Get(ctx, Orders, id, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders returns orders newest first, optionally for one customer.
// limit <= 0 means no limit.
func (s *Store) ListOrders(ctx context.Context, customerID string, limit int) ([]models.Order, error) {
	q := Query{Sort: "-created_at", Limit: limit}
	if customerID != "" {
		q.Filter = Filter{"customer_id": customerID}
	}
	orders := []models.Order{}
	if err := s.List(ctx, Orders, q, &orders); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// CountOrders returns the number of orders ever placed.
func (s *Store) CountOrders(ctx context.Context) (int, error) {
	return s.Count(ctx, Orders, nil)
}
