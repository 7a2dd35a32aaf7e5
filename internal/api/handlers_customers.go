// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/models"
	"github.com/tomtom215/liveshop/internal/shop"
)

// maxImportBytes caps CSV uploads.
const maxImportBytes = 8 << 20

// RegisterCustomer handles POST /api/customers/register.
func (h *Handler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req shop.RegisterCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.shop.RegisterCustomer(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// ListCustomers handles GET /api/customers?status=.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.shop.ListCustomers(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(list))
}

// GetCustomer handles GET /api/customers/{id}.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.shop.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// UpdateCustomer handles PUT /api/customers/{id}.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req shop.UpdateCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.shop.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// DeleteCustomer handles DELETE /api/customers/{id}.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.shop.DeleteCustomer(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "id": id})
}

// activation returns a handler moving a customer to status.
func (h *Handler) activation(status models.ActivationStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := h.shop.SetActivation(r.Context(), chi.URLParam(r, "id"), status)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, c)
	}
}

// UploadProfileImage handles POST /api/customers/{id}/image. It accepts a
// multipart form with a "file" part or a raw image body.
func (h *Handler) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	data, err := h.readImage(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondDetail(w, http.StatusBadRequest, fmt.Sprintf("image exceeds %d KiB", h.maxImageBytes>>10))
			return
		}
		writeError(w, r, err)
		return
	}
	c, err := h.shop.SetProfileImage(r.Context(), chi.URLParam(r, "id"), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handler) readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	// Room for the multipart envelope on top of the image itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+64<<10)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return readLimited(r.Body, h.maxImageBytes)
	}
	file, _, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, shop.Invalid("file", "file is required")
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, shop.BadRequest("invalid multipart body: %v", err)
	}
	defer file.Close()
	return readLimited(file, h.maxImageBytes)
}

// readLimited reads at most limit+1 bytes so an oversized upload is
// detected without buffering all of it.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ProfileImage handles GET /api/customers/{id}/image.
func (h *Handler) ProfileImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.shop.ProfileImage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write profile image")
	}
}

// ImportCustomers handles POST /api/customers/import. The body is the CSV
// file itself or a multipart form with a "file" part; ?dry_run=true only
// counts rows.
func (h *Handler) ImportCustomers(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	var src io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			respondDetail(w, http.StatusUnprocessableEntity, "file is required")
			return
		}
		defer file.Close()
		src = file
	}

	stats, err := h.newImporter(queryBool(r, "dry_run")).Import(r.Context(), src)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondDetail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("import exceeds %d MiB", maxImportBytes>>20))
			return
		}
		respondDetail(w, http.StatusUnprocessableEntity, "import failed: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
