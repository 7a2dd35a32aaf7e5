// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

/*
Package metrics provides Prometheus collectors for the API server and the
print agent.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - WebSocket subscribers, broadcast frames and disconnects
  - Orders and chat messages accepted
  - Print dispatch outcomes and the agent circuit breaker
  - Store operation latency
  - Media vendor calls

# Metrics Endpoint

Metrics are exposed at /metrics in Prometheus text format:

	curl http://localhost:8000/metrics

All collectors are registered with the default registry through promauto, so
importing the package is enough to expose them.
*/
package metrics
