// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/media"
	"github.com/tomtom215/liveshop/internal/shop"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// errorResponse is the body of every error.
type errorResponse struct {
	Detail string `json:"detail"`
}

// respondJSON writes v with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

// respondDetail writes {"detail": detail}.
func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, errorResponse{Detail: detail})
}

// writeError translates an error class to its status code. Unclassified
// errors are logged and hidden behind a generic detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status int
		detail = err.Error()
	)
	switch {
	case errors.Is(err, shop.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, shop.ErrNotFound), errors.Is(err, media.ErrRoomNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shop.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, shop.ErrBadRequest), errors.Is(err, media.ErrRejected):
		status = http.StatusBadRequest
	case errors.Is(err, shop.ErrUnavailable), errors.Is(err, media.ErrVendor), errors.Is(err, media.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("request canceled")
		status, detail = http.StatusServiceUnavailable, "request canceled"
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("API Error")
		status, detail = http.StatusInternalServerError, "internal server error"
	}
	if status == http.StatusServiceUnavailable && !errors.Is(err, context.Canceled) {
		logging.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("downstream unavailable")
	}
	respondDetail(w, status, detail)
}

// decodeJSON reads a JSON body into v. Malformed, ill-typed and empty
// bodies are validation failures; the error has already been written when
// ok is false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) (ok bool) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &tooLarge):
		respondDetail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, io.EOF):
		respondDetail(w, http.StatusUnprocessableEntity, "request body is required")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		respondDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("%s must be of type %s", field, typeErr.Type))
	default:
		respondDetail(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
	}
	return false
}

// queryInt parses an optional integer query parameter. A malformed value
// writes a 422 and returns ok=false.
func queryInt(w http.ResponseWriter, r *http.Request, key string, def int) (n int, ok bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respondDetail(w, http.StatusUnprocessableEntity, key+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// queryBool parses an optional boolean query parameter, false when absent
// or malformed.
func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
