// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

/*
Package supervisor runs the API server's long-lived components under a
suture v4 supervisor tree.

Tree layout:

	liveshop (root)
	├── data-layer
	│   └── store-gc          periodic badger value log GC
	├── messaging-layer
	│   ├── print-dispatcher  watermill router for label jobs
	│   └── event-publisher   closes the domain event publisher on shutdown
	└── api-layer
	    ├── http-server
	    └── websocket-hub     viewer count ticks, disconnects on shutdown

A failing service is restarted by its own layer with suture's backoff; the
other layers keep running, so a wedged print dispatcher never takes the
order endpoints down.

Supervisor events are logged through sutureslog into the zerolog-backed
slog handler from the logging package.

The service wrappers live in the services sub-package.
*/
package supervisor
