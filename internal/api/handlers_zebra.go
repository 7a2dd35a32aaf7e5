// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/liveshop/internal/label"
	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/models"
	"github.com/tomtom215/liveshop/internal/printing"
	"github.com/tomtom215/liveshop/internal/shop"
	"github.com/tomtom215/liveshop/internal/validation"
)

const (
	defaultPreviewPrice = "0.00"
	maxPreviewScale     = 8
)

// PrintLabelRequest is the body of POST /api/zebra/print-label.
type PrintLabelRequest struct {
	CustomerNumber string `json:"customer_number" validate:"required,max=32"`
	Price          string `json:"price" validate:"required,max=16"`
	ID             string `json:"id" validate:"max=128"`
}

// printResult is the body of the print endpoints.
type printResult struct {
	Success bool                  `json:"success"`
	Result  *models.PrintResponse `json:"result"`
}

// previewResponse is the body of GET /api/zebra/preview/{number}.
type previewResponse struct {
	Success        bool   `json:"success"`
	Program        string `json:"program"`
	CustomerNumber string `json:"customer_number"`
	Price          string `json:"price"`
	Timestamp      string `json:"timestamp"`
}

// zebraStatusResponse is the body of GET /api/zebra/status.
type zebraStatusResponse struct {
	Success       bool                 `json:"success"`
	PrinterStatus models.PrinterStatus `json:"printer_status"`
	LastJob       *printing.Result     `json:"last_job,omitempty"`
}

// PrintLabel handles POST /api/zebra/print-label: a synchronous single
// attempt, used by the operator to reprint.
func (h *Handler) PrintLabel(w http.ResponseWriter, r *http.Request) {
	var req PrintLabelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CustomerNumber = strings.TrimSpace(req.CustomerNumber)
	req.Price = strings.TrimSpace(req.Price)
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeError(w, r, &shop.ValidationError{RequestValidationError: verr})
		return
	}
	resp, err := h.printer.PrintNow(r.Context(), req.CustomerNumber, req.Price, req.ID)
	h.respondPrint(w, r, resp, err)
}

// TestPrint handles POST /api/zebra/test-print.
func (h *Handler) TestPrint(w http.ResponseWriter, r *http.Request) {
	resp, err := h.printer.TestPrint(r.Context())
	h.respondPrint(w, r, resp, err)
}

// respondPrint reports an agent that answered, even with a failure, as
// 200 with success=false. An unreachable agent is a 503.
func (h *Handler) respondPrint(w http.ResponseWriter, r *http.Request, resp *models.PrintResponse, err error) {
	var failed *printing.PrintFailedError
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, printResult{Success: resp.Success, Result: resp})
	case errors.As(err, &failed):
		result := failed.Response
		if result == nil {
			result = &models.PrintResponse{Message: failed.Error()}
		}
		logging.Ctx(r.Context()).Warn().Err(err).Msg("label print failed")
		respondJSON(w, http.StatusOK, printResult{Success: false, Result: result})
	case errors.Is(err, printing.ErrAgentUnreachable):
		writeError(w, r, shop.Unavailable(err, "%s", err.Error()))
	default:
		writeError(w, r, err)
	}
}

// PrinterStatus handles GET /api/zebra/status. An unreachable agent is
// reported in the body, not as an HTTP error.
func (h *Handler) PrinterStatus(w http.ResponseWriter, r *http.Request) {
	st := h.printer.Status(r.Context())
	respondJSON(w, http.StatusOK, zebraStatusResponse{
		Success:       st.Status != models.PrinterOffline,
		PrinterStatus: st,
		LastJob:       h.printer.LastOutcome(),
	})
}

// Preview handles GET /api/zebra/preview/{customer_number}?price=. A .png
// suffix on the number returns the rendered image instead of the program.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	number := strings.TrimSpace(chi.URLParam(r, "customer_number"))
	asPNG := strings.HasSuffix(strings.ToLower(number), ".png")
	if asPNG {
		number = number[:len(number)-len(".png")]
	}
	if number == "" || len(number) > 32 {
		respondDetail(w, http.StatusUnprocessableEntity, "customer_number must be 1 to 32 characters")
		return
	}
	price := strings.TrimSpace(r.URL.Query().Get("price"))
	if price == "" {
		price = defaultPreviewPrice
	}
	if len(price) > 16 {
		respondDetail(w, http.StatusUnprocessableEntity, "price must be at most 16 characters")
		return
	}

	at := h.now()
	if asPNG {
		h.previewPNG(w, r, number, price, at)
		return
	}
	respondJSON(w, http.StatusOK, previewResponse{
		Success:        true,
		Program:        string(label.Program(number, price, at)),
		CustomerNumber: number,
		Price:          price,
		Timestamp:      at.Format(label.TimestampLayout),
	})
}

func (h *Handler) previewPNG(w http.ResponseWriter, r *http.Request, number, price string, at time.Time) {
	scale, ok := queryInt(w, r, "scale", label.PreviewScale)
	if !ok {
		return
	}
	if scale < 1 || scale > maxPreviewScale {
		respondDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("scale must be between 1 and %d", maxPreviewScale))
		return
	}

	key := number + "\x00" + price + "\x00" + strconv.FormatInt(at.Unix(), 10) + "\x00" + strconv.Itoa(scale)
	img, hit := h.previews.Get(key)
	if !hit {
		var buf bytes.Buffer
		if err := label.PNG(&buf, number, price, at, scale); err != nil {
			writeError(w, r, err)
			return
		}
		img = buf.Bytes()
		h.previews.Set(key, img)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write preview")
	}
}
