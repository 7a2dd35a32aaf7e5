// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package api

import (
	"context"
	"time"

	"github.com/tomtom215/liveshop/internal/cache"
	"github.com/tomtom215/liveshop/internal/importer"
	"github.com/tomtom215/liveshop/internal/media"
	"github.com/tomtom215/liveshop/internal/middleware"
	"github.com/tomtom215/liveshop/internal/models"
	"github.com/tomtom215/liveshop/internal/printing"
	"github.com/tomtom215/liveshop/internal/shop"
	"github.com/tomtom215/liveshop/internal/websocket"
)

// LabelPrinter is the part of *printing.Dispatcher the zebra endpoints use.
type LabelPrinter interface {
	PrintNow(ctx context.Context, customerNumber, price, orderID string) (*models.PrintResponse, error)
	TestPrint(ctx context.Context) (*models.PrintResponse, error)
	Status(ctx context.Context) models.PrinterStatus
	LastOutcome() *printing.Result
}

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Shop    *shop.Service
	Hub     *websocket.Hub
	Printer LabelPrinter
	Media   media.Provider
	// CORSOrigins also gates WebSocket upgrades.
	CORSOrigins []string
	// MaxImageBytes caps profile image uploads.
	MaxImageBytes int64
	Now           func() time.Time
}

// Handler contains the dependencies of the API handlers.
//
// Handler methods are split across files by resource:
//   - handlers_core.go: chat, orders, stream status, admin
//   - handlers_zebra.go: label preview and printing
//   - handlers_customers.go: customer roster, profile images, CSV import
//   - handlers_calendar.go: events and products
//   - handlers_media.go: video vendor rooms and tokens
//   - handlers_health.go: health and WebSocket upgrade
type Handler struct {
	shop          *shop.Service
	hub           *websocket.Hub
	printer       LabelPrinter
	media         media.Provider
	corsOrigins   []string
	maxImageBytes int64
	now           func() time.Time
	startTime     time.Time
	perfMon       *middleware.PerformanceMonitor
	// previews caches rendered PNG previews; the key includes the second
	// printed on the label, so entries are only reused within that second.
	previews *cache.LRU[[]byte]
}

// NewHandler creates the API handler.
func NewHandler(d Deps) *Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Media == nil {
		d.Media = media.None{}
	}
	if d.MaxImageBytes <= 0 {
		d.MaxImageBytes = shop.DefaultMaxImageBytes
	}
	return &Handler{
		shop:          d.Shop,
		hub:           d.Hub,
		printer:       d.Printer,
		media:         d.Media,
		corsOrigins:   d.CORSOrigins,
		maxImageBytes: d.MaxImageBytes,
		now:           d.Now,
		startTime:     d.Now(),
		perfMon:       middleware.NewPerformanceMonitor(1000, time.Second),
		previews:      cache.NewLRU[[]byte](256, 10*time.Second),
	}
}

// PerformanceMonitor exposes the request timing monitor for the router.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}

// newImporter is a seam for the CSV import endpoint.
func (h *Handler) newImporter(dryRun bool) *importer.Importer {
	return importer.New(h.shop, dryRun)
}
