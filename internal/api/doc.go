// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

/*
Package api is the HTTP surface of the LiveShop server.

Routes are served by chi under /api:

	chat          POST/GET  /api/chat
	orders        POST/GET  /api/orders, GET /api/orders/{id}
	stream        GET/POST  /api/stream/status
	admin         GET /api/admin/stats, POST /api/admin/reset-counter,
	              GET/POST /api/admin/ticker, GET /api/admin/performance
	zebra         POST /api/zebra/print-label, POST /api/zebra/test-print,
	              GET /api/zebra/status, GET /api/zebra/preview/{number}[.png]
	customers     /api/customers/...  (register, CRUD, activation, image, CSV import)
	events        /api/events/...     (calendar CRUD)
	products      /api/products/...
	media         /api/media/...      (rooms and join tokens on the configured vendor)

plus /ws and /api/ws (WebSocket upgrade), /health and /metrics.

Every error body is {"detail": "..."}. writeError maps the shop and media
error classes to status codes:

	validation      422
	bad request     400
	not found       404
	conflict        409
	unavailable     503
	anything else   500
*/
package api
