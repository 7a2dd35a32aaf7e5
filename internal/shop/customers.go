// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package shop

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/models"
)

// RegisterCustomerRequest is the body of POST /api/customers/register.
type RegisterCustomerRequest struct {
	CustomerNumber string          `json:"customer_number" validate:"required,max=32"`
	Email          string          `json:"email" validate:"required,email,max=254"`
	Name           string          `json:"name" validate:"required,max=128"`
	Language       models.Language `json:"language,omitempty" validate:"omitempty,language"`
}

// UpdateCustomerRequest is a partial update; nil fields are left alone.
type UpdateCustomerRequest struct {
	Name             *string                  `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	Email            *string                  `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Language         *models.Language         `json:"language,omitempty" validate:"omitempty,language"`
	ActivationStatus *models.ActivationStatus `json:"activation_status,omitempty" validate:"omitempty,activation"`
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RegisterCustomer creates a pending customer. Customer number and email
// must be unused; a collision leaves the existing customer untouched.
func (s *Service) RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) (*models.Customer, error) {
	req.CustomerNumber = strings.TrimSpace(req.CustomerNumber)
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(&req); err != nil {
		return nil, err
	}
	if req.Language == "" {
		req.Language = models.LanguageDE
	}

	now := s.instant("customers")
	c := &models.Customer{
		ID:               newID(),
		CustomerNumber:   req.CustomerNumber,
		Email:            req.Email,
		Name:             req.Name,
		ActivationStatus: models.ActivationPending,
		Language:         req.Language,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateCustomer(ctx, c); err != nil {
		return nil, fromStore(err, "customer")
	}

	logging.Ctx(ctx).Info().Str("customer_id", c.ID).Str("customer_number", c.CustomerNumber).Msg("customer registered")
	s.publish(ctx, TopicCustomerRegistered, c)
	return c, nil
}

// ListCustomers lists customers, optionally by activation status.
func (s *Service) ListCustomers(ctx context.Context, status string) ([]models.Customer, error) {
	st := models.ActivationStatus(strings.TrimSpace(status))
	if st != "" && !st.Valid() {
		return nil, Invalid("status", "status must be one of: pending active blocked")
	}
	return s.store.ListCustomers(ctx, st)
}

// GetCustomer loads one customer.
func (s *Service) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	c, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, fromStore(err, "customer "+id)
	}
	return c, nil
}

// UpdateCustomer applies a partial update.
func (s *Service) UpdateCustomer(ctx context.Context, id string, req UpdateCustomerRequest) (*models.Customer, error) {
	if req.Email != nil {
		e := normalizeEmail(*req.Email)
		req.Email = &e
	}
	if req.Name != nil {
		n := strings.TrimSpace(*req.Name)
		req.Name = &n
	}
	if err := validate(&req); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if req.Language != nil {
		fields["language"] = string(*req.Language)
	}
	if req.ActivationStatus != nil {
		fields["activation_status"] = string(*req.ActivationStatus)
	}
	if len(fields) == 0 {
		return s.GetCustomer(ctx, id)
	}
	fields["updated_at"] = s.instant("customers")

	c, err := s.store.UpdateCustomer(ctx, id, fields)
	if err != nil {
		return nil, fromStore(err, "customer "+id)
	}
	return c, nil
}

// SetActivation moves a customer to the given activation state.
func (s *Service) SetActivation(ctx context.Context, id string, status models.ActivationStatus) (*models.Customer, error) {
	return s.UpdateCustomer(ctx, id, UpdateCustomerRequest{ActivationStatus: &status})
}

// DeleteCustomer removes a customer and the profile image.
func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	return fromStore(s.store.DeleteCustomer(ctx, id), "customer "+id)
}

// SetProfileImage stores a PNG or JPEG profile image. The content type is
// sniffed from the bytes, not taken from the upload.
func (s *Service) SetProfileImage(ctx context.Context, id string, data []byte) (*models.Customer, error) {
	if len(data) == 0 {
		return nil, Invalid("file", "file is required")
	}
	if len(data) > s.maxImageBytes {
		return nil, BadRequest("image exceeds %d KiB", s.maxImageBytes>>10)
	}
	ct := http.DetectContentType(data)
	if ct != "image/png" && ct != "image/jpeg" {
		return nil, BadRequest("unsupported image type %s; use PNG or JPEG", ct)
	}

	img := &models.ProfileImage{
		ID:          id,
		ContentType: ct,
		Data:        data,
		UpdatedAt:   s.instant("customers"),
	}
	if err := s.store.PutProfileImage(ctx, img); err != nil {
		return nil, fromStore(err, "customer "+id)
	}
	return s.GetCustomer(ctx, id)
}

// ProfileImage loads a customer's image.
func (s *Service) ProfileImage(ctx context.Context, id string) (*models.ProfileImage, error) {
	img, err := s.store.GetProfileImage(ctx, id)
	if err != nil {
		return nil, fromStore(err, "profile image for customer "+id)
	}
	return img, nil
}
