// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

// Package validation checks request payloads with go-playground/validator v10.
//
// Fields are reported by their JSON names so messages read the way clients
// send them ("quantity must be greater than 0"). models.Money validates as
// its float value, so gte=0 works on prices.
//
// Custom tags:
//   - language: de, en, tr or fr
//   - activation: pending, active or blocked
//
// Example usage:
//
//	type createOrderRequest struct {
//	    CustomerID string `json:"customer_id" validate:"required"`
//	    Quantity   int    `json:"quantity" validate:"gt=0"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    // answer 422 with verr.Error()
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/liveshop/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one rejected field of a request.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// RequestValidationError lists every rejected field of a request, in
// declaration order.
type RequestValidationError struct {
	errors []FieldError
}

// NewRequestValidationError reports a single field that was checked outside
// struct validation, such as a query parameter or multipart part.
func NewRequestValidationError(field, message string) *RequestValidationError {
	return &RequestValidationError{errors: []FieldError{{Field: field, Tag: "custom", Message: message}}}
}

// Errors returns the rejected fields.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.errors
}

// Fields returns the JSON names of the rejected fields.
func (ve *RequestValidationError) Fields() []string {
	out := make([]string, len(ve.errors))
	for i, e := range ve.errors {
		out[i] = e.Field
	}
	return out
}

// Error joins the field messages with "; ".
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.errors))
	for i, e := range ve.errors {
		messages[i] = e.Message
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the shared validator.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
		validate.RegisterCustomTypeFunc(moneyValue, models.Money{})
		// Registration only fails for empty tags or nil funcs.
		_ = validate.RegisterValidation("language", func(fl validator.FieldLevel) bool {
			return models.Language(fl.Field().String()).Valid()
		})
		_ = validate.RegisterValidation("activation", func(fl validator.FieldLevel) bool {
			return models.ActivationStatus(fl.Field().String()).Valid()
		})
	})
	return validate
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func moneyValue(v reflect.Value) interface{} {
	if m, ok := v.Interface().(models.Money); ok {
		return m.Decimal().InexactFloat64()
	}
	return nil
}

// ValidateStruct returns nil when s passes, otherwise every failing field.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewRequestValidationError("request", err.Error())
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: message(fe),
		}
	}
	return &RequestValidationError{errors: out}
}

func message(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "url":
		return field + " must be a valid URL"
	case "language":
		return field + " must be one of: de en tr fr"
	case "activation":
		return field + " must be one of: pending active blocked"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	case "datetime":
		return fmt.Sprintf("%s must match the layout %s", field, param)
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
