// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package shop

import (
	"context"
	"strings"

	"github.com/tomtom215/liveshop/internal/models"
)

// EventRequest creates or replaces a calendar entry. Date is YYYY-MM-DD and
// Time is HH:MM, both local to the show.
type EventRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"required,datetime=15:04"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
}

func (r *EventRequest) normalize() {
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
}

// CreateEvent adds a calendar entry.
func (s *Service) CreateEvent(ctx context.Context, req EventRequest) (*models.Event, error) {
	req.normalize()
	if err := validate(&req); err != nil {
		return nil, err
	}
	e := &models.Event{
		ID:          newID(),
		Date:        req.Date,
		Time:        req.Time,
		Title:       req.Title,
		Description: req.Description,
		CreatedAt:   s.instant("events"),
	}
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListEvents returns the calendar ordered by date and time.
func (s *Service) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.store.ListEvents(ctx)
}

// GetEvent loads one calendar entry.
func (s *Service) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, fromStore(err, "event "+id)
	}
	return e, nil
}

// UpdateEvent replaces a calendar entry, keeping its id and creation time.
func (s *Service) UpdateEvent(ctx context.Context, id string, req EventRequest) (*models.Event, error) {
	req.normalize()
	if err := validate(&req); err != nil {
		return nil, err
	}
	e, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Date, e.Time, e.Title, e.Description = req.Date, req.Time, req.Title, req.Description
	if err := s.store.ReplaceEvent(ctx, e); err != nil {
		return nil, fromStore(err, "event "+id)
	}
	return e, nil
}

// DeleteEvent removes a calendar entry.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	return fromStore(s.store.DeleteEvent(ctx, id), "event "+id)
}
