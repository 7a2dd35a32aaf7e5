// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/tomtom215/liveshop/internal/models"
)

// CreateEvent persists a calendar entry.
func (s *Store) CreateEvent(ctx context.Context, e *models.Event) error {
	if err := s.Put(ctx, Events, e.ID, e); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// GetEvent loads one calendar entry.
func (s *Store) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	if err := s.Get(ctx, Events, id, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEvents returns all entries ordered by date+" "+time. Entries with the
// same key keep id order, which is creation order.
func (s *Store) ListEvents(ctx context.Context) ([]models.Event, error) {
	events := []models.Event{}
	if err := s.List(ctx, Events, Query{}, &events); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].SortKey() < events[j].SortKey()
	})
	return events, nil
}

// ReplaceEvent overwrites an existing entry.
func (s *Store) ReplaceEvent(ctx context.Context, e *models.Event) error {
	if _, err := s.GetEvent(ctx, e.ID); err != nil {
		return err
	}
	return s.Put(ctx, Events, e.ID, e)
}

// DeleteEvent removes an entry.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	return s.Delete(ctx, Events, id)
}
