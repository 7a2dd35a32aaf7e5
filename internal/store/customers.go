// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/liveshop/internal/models"
)

// CreateCustomer inserts a customer. A taken customer number or email
// yields a *ConflictError and leaves the existing customer untouched.
func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	var existing models.Customer
	err := s.Get(ctx, Customers, c.ID, &existing)
	if err == nil {
		return &ConflictError{Collection: Customers.Name, Field: "id", Value: c.ID}
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.Put(ctx, Customers, c.ID, c)
}

// GetCustomer loads a customer by id.
func (s *Store) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	var c models.Customer
	if err := s.Get(ctx, Customers, id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindCustomer looks a customer up by a unique field (customer_number or
// email).
func (s *Store) FindCustomer(ctx context.Context, field, value string) (*models.Customer, error) {
	var c models.Customer
	if err := s.FindOne(ctx, Customers, field, value, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCustomers returns customers ordered by customer number, optionally
// restricted to one activation status.
func (s *Store) ListCustomers(ctx context.Context, status models.ActivationStatus) ([]models.Customer, error) {
	q := Query{Sort: "customer_number"}
	if status != "" {
		q.Filter = Filter{"activation_status": string(status)}
	}
	out := []models.Customer{}
	if err := s.List(ctx, Customers, q, &out); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

// UpdateCustomer applies a partial update and returns the new document.
func (s *Store) UpdateCustomer(ctx context.Context, id string, fields map[string]interface{}) (*models.Customer, error) {
	if err := s.UpdateSet(ctx, Customers, id, fields); err != nil {
		return nil, err
	}
	return s.GetCustomer(ctx, id)
}

// DeleteCustomer removes the customer and any profile image.
func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	if err := s.Delete(ctx, Customers, id); err != nil {
		return err
	}
	if err := s.Delete(ctx, ProfileImages, id); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete profile image: %w", err)
	}
	return nil
}

// PutProfileImage stores the image and marks the customer as having one.
func (s *Store) PutProfileImage(ctx context.Context, img *models.ProfileImage) error {
	if _, err := s.GetCustomer(ctx, img.ID); err != nil {
		return err
	}
	if err := s.Put(ctx, ProfileImages, img.ID, img); err != nil {
		return fmt.Errorf("store profile image: %w", err)
	}
	return s.UpdateSet(ctx, Customers, img.ID, map[string]interface{}{
		"profile_image_type": img.ContentType,
		"updated_at":         img.UpdatedAt,
	})
}

// GetProfileImage loads a customer's image.
func (s *Store) GetProfileImage(ctx context.Context, customerID string) (*models.ProfileImage, error) {
	var img models.ProfileImage
	if err := s.Get(ctx, ProfileImages, customerID, &img); err != nil {
		return nil, err
	}
	return &img, nil
}
