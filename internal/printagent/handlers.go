// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package printagent

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/middleware"
	"github.com/tomtom215/liveshop/internal/models"
)

const (
	defaultJobsLimit = 50
	maxJobsLimit     = 500
	maxProgramBytes  = 256 << 10
)

// NewRouter exposes the agent over HTTP.
func NewRouter(a *Agent, corsOrigins []string) http.Handler {
	started := time.Now()
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"uptime": time.Since(started).Seconds(),
		})
	})
	r.Get("/printer/status", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, a.Status(r.Context()))
	})
	r.Post("/print", func(w http.ResponseWriter, r *http.Request) {
		var req models.PrintRequest
		body := http.MaxBytesReader(w, r.Body, maxProgramBytes)
		if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondDetail(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
		resp, err := a.Print(r.Context(), req)
		writePrintResult(w, r, resp, err)
	})
	r.Post("/test-print", func(w http.ResponseWriter, r *http.Request) {
		resp, err := a.TestPrint(r.Context())
		writePrintResult(w, r, resp, err)
	})
	r.Get("/jobs", func(w http.ResponseWriter, r *http.Request) {
		limit := defaultJobsLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				respondDetail(w, http.StatusUnprocessableEntity, "limit must be a positive integer")
				return
			}
			limit = min(n, maxJobsLimit)
		}
		jobs, err := a.Jobs(limit)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("failed to read job journal")
			respondDetail(w, http.StatusInternalServerError, "failed to read job journal")
			return
		}
		respondJSON(w, http.StatusOK, jobs)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func writePrintResult(w http.ResponseWriter, r *http.Request, resp *models.PrintResponse, err error) {
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, resp)
	case errors.Is(err, ErrEmptyProgram):
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrNoPrinter):
		respondJSON(w, http.StatusServiceUnavailable, resp)
	case resp != nil:
		respondJSON(w, http.StatusInternalServerError, resp)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("print failed")
		respondDetail(w, http.StatusInternalServerError, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}
