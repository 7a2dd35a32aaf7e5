// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

/*
Package websocket implements the live fan-out hub for the single public
channel.

Key Components:

  - Hub: the set of live subscribers, broadcast and viewer count
  - Client: one subscriber with a bounded outbound queue and two goroutines
  - State: ticker, session order counter and stream flags (process lifetime)
  - Message: the JSON frame written to browsers

Architecture:

	            Broadcast(msg)
	                 │  marshal once, snapshot under mu
	                 ▼
	┌──────────┬──────────┬──────────┐
	│ Client1  │ Client2  │ Client3  │   send chan (bounded)
	└────┬─────┴────┬─────┴────┬─────┘
	     ▼          ▼          ▼
	 writePump  writePump  writePump      one writer per subscriber

Each client has two goroutines:
  - readPump: reads and discards client frames, keeps pong handling alive
  - writePump: drains the send queue in order, writes pings

Ordering:

Broadcast calls are serialised, so every subscriber sees frames in the order
the hub accepted them. Across subscribers delivery is best effort.

Backpressure:

Enqueueing never blocks. A subscriber whose queue is full, or whose frame
write exceeds the write deadline, is disconnected. Memory per subscriber is
bounded by the queue length.

Message Types:

  - chat_message: {type, data: ChatMessage}
  - order_notification: {type, data: OrderNotification}
  - order_counter_update: {type, data: {session_orders, total_orders}}
  - viewer_count: {type, count}
  - ticker_update: {type, data: {text, enabled}}

Viewer count changes caused by subscribe or unsubscribe are coalesced by
RunWithContext and published on the next tick, never from inside a removal.

Usage Example:

	hub := websocket.NewHub(websocket.DefaultOptions())
	go hub.RunWithContext(ctx)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
	    return
	}
	hub.Subscribe(conn)

	hub.BroadcastTicker(models.Ticker{Text: "Sale!", Enabled: true})
*/
package websocket
