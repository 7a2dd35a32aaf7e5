// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/liveshop/internal/middleware"
	"github.com/tomtom215/liveshop/internal/models"
)

// Router binds the handler to chi routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil chiMW uses the default middleware
// configuration.
func NewRouter(handler *Handler, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: chiMW}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// Global middleware, applied in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondDetail(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondDetail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	// WebSocket upgrades stay outside compression and rate limiting.
	r.Get("/ws", h.WebSocket)
	r.Get("/api/ws", h.WebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(h.perfMon.Middleware)
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Get("/health", h.Health)

		r.Route("/chat", func(r chi.Router) {
			r.Post("/", h.SendChat)
			r.Get("/", h.ChatHistory)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Get("/", h.ListOrders)
			r.Get("/{id}", h.GetOrder)
		})

		r.Get("/stream/status", h.StreamStatus)
		r.Post("/stream/status", h.SetStreamStatus)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/stats", h.AdminStats)
			r.Post("/reset-counter", h.ResetCounter)
			r.Get("/ticker", h.Ticker)
			r.Post("/ticker", h.SetTicker)
			r.Get("/performance", h.Performance)
		})

		r.Route("/zebra", func(r chi.Router) {
			r.Post("/print-label", h.PrintLabel)
			r.Post("/test-print", h.TestPrint)
			r.Get("/status", h.PrinterStatus)
			r.Get("/preview/{customer_number}", h.Preview)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.ListCustomers)
			r.Post("/register", h.RegisterCustomer)
			r.Post("/import", h.ImportCustomers)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCustomer)
				r.Put("/", h.UpdateCustomer)
				r.Delete("/", h.DeleteCustomer)
				r.Post("/activate", h.activation(models.ActivationActive))
				r.Post("/block", h.activation(models.ActivationBlocked))
				r.Post("/image", h.UploadProfileImage)
				r.Get("/image", h.ProfileImage)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Post("/", h.CreateEvent)
			r.Get("/{id}", h.GetEvent)
			r.Put("/{id}", h.UpdateEvent)
			r.Delete("/{id}", h.DeleteEvent)
		})

		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)

		r.Route("/media", func(r chi.Router) {
			r.Post("/room", h.CreateRoom)
			r.Post("/token", h.IssueToken)
			r.Get("/rooms", h.ListRooms)
			r.Delete("/rooms/{name}", h.EndRoom)
		})
	})

	return r
}
