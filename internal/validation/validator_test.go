// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/liveshop/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type orderLike struct {
	CustomerID string        `json:"customer_id" validate:"required"`
	Size       string        `json:"size" validate:"required,max=16"`
	Quantity   int           `json:"quantity" validate:"gt=0"`
	Price      *models.Money `json:"price,omitempty" validate:"omitempty,gte=0"`
}

type customerLike struct {
	Email    string `json:"email" validate:"required,email"`
	Language string `json:"language" validate:"omitempty,language"`
	Status   string `json:"activation_status" validate:"omitempty,activation"`
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func TestValidateStruct_Valid(t *testing.T) {
	price := models.MoneyFromFloat(8.5)
	tests := []struct {
		name  string
		input interface{}
	}{
		{"order with price", &orderLike{CustomerID: "ABCDEFGH", Size: "M", Quantity: 2, Price: &price}},
		{"order without price", &orderLike{CustomerID: "A", Size: "XL", Quantity: 1}},
		{"customer minimal", &customerLike{Email: "anna@example.com"}},
		{"customer full", &customerLike{Email: "a@b.de", Language: "tr", Status: "blocked", Date: "2026-05-12"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(tt.input); err != nil {
				t.Errorf("ValidateStruct() = %v, want nil", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	negative := models.MoneyFromFloat(-1)
	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantMsg   string
	}{
		{
			name:      "zero quantity",
			input:     &orderLike{CustomerID: "A", Size: "M", Quantity: 0},
			wantField: "quantity",
			wantMsg:   "quantity must be greater than 0",
		},
		{
			name:      "missing customer",
			input:     &orderLike{Size: "M", Quantity: 1},
			wantField: "customer_id",
			wantMsg:   "customer_id is required",
		},
		{
			name:      "negative price",
			input:     &orderLike{CustomerID: "A", Size: "M", Quantity: 1, Price: &negative},
			wantField: "price",
			wantMsg:   "price must be greater than or equal to 0",
		},
		{
			name:      "bad language",
			input:     &customerLike{Email: "a@b.de", Language: "es"},
			wantField: "language",
			wantMsg:   "language must be one of: de en tr fr",
		},
		{
			name:      "bad status",
			input:     &customerLike{Email: "a@b.de", Status: "deleted"},
			wantField: "activation_status",
		},
		{
			name:      "bad email",
			input:     &customerLike{Email: "not-an-email"},
			wantField: "email",
			wantMsg:   "email must be a valid email address",
		},
		{
			name:      "bad date",
			input:     &customerLike{Email: "a@b.de", Date: "12.05.2026"},
			wantField: "date",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if got := err.Fields(); len(got) != 1 || got[0] != tt.wantField {
				t.Errorf("Fields() = %v, want [%s]", got, tt.wantField)
			}
			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateStruct_MultipleErrors(t *testing.T) {
	err := ValidateStruct(&orderLike{})
	if err == nil {
		t.Fatal("expected errors")
	}
	if len(err.Errors()) != 3 {
		t.Errorf("got %d errors, want 3: %v", len(err.Errors()), err)
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("combined message should join with '; ': %q", err.Error())
	}
}

func TestNewRequestValidationError(t *testing.T) {
	err := NewRequestValidationError("limit", "limit must be a number")
	if err.Error() != "limit must be a number" || err.Fields()[0] != "limit" {
		t.Errorf("unexpected error %+v", err)
	}
}
