// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

/*
Package shop holds the application services behind the HTTP surface.

The order pipeline (orders.go) is the hot path of a live show:

 1. validate the request and look up the product
 2. total = round2(unit price × quantity); persist the order
 3. bump the session counter
 4. broadcast order_notification, then order_counter_update
 5. hand a label job to the print dispatcher without waiting
 6. publish an order.created domain event

Only steps 1 and 2 can fail the request. Broadcast, printing and event
publishing problems are logged and counted, never returned.

The chat pipeline (chat.go) persists and broadcasts chat messages. The
remaining services cover the customer roster, the event calendar, the
product catalogue and the operator's admin controls (counters, ticker,
stream status).

Errors are classified with the sentinels in errors.go so the HTTP layer can
map them to status codes with errors.Is.
*/
package shop
