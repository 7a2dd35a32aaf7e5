// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

// Package middleware holds the HTTP middleware shared by the API server and
// the print agent: request ids, request logging, Prometheus instrumentation
// and an in-memory latency monitor.
//
// All middleware has the chi signature func(http.Handler) http.Handler.
// Endpoint labels use the chi route pattern ("/api/customers/{id}") rather
// than the raw path so metric cardinality stays bounded.
//
// The response recorder implements http.Hijacker and http.Flusher, so the
// chain can wrap WebSocket upgrades.
package middleware
