// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package models

// OrderNotification is the data of an order_notification frame.
type OrderNotification struct {
	Message     string `json:"message"`
	OrderID     string `json:"order_id"`
	CustomerID  string `json:"customer_id"`
	ProductName string `json:"product_name"`
	Size        string `json:"size"`
	Quantity    int    `json:"quantity"`
	UnitPrice   Money  `json:"unit_price"`
	Total       Money  `json:"total"`
}

// OrderCounters is the data of an order_counter_update frame and the body
// of GET /admin/stats.
type OrderCounters struct {
	SessionOrders int64 `json:"session_orders"`
	TotalOrders   int64 `json:"total_orders"`
}

// Ticker is the scrolling banner configuration.
type Ticker struct {
	Text    string `json:"text"`
	Enabled bool   `json:"enabled"`
}

// StreamStatus is the body of GET /stream/status.
type StreamStatus struct {
	IsLive            bool   `json:"is_live"`
	ViewerCount       int    `json:"viewer_count"`
	StreamTitle       string `json:"stream_title"`
	StreamDescription string `json:"stream_description"`
}
