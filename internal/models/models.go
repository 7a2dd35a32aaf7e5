// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

/*
Package models defines the documents persisted by the store and the payloads
exchanged with browsers and the print agent.

Persisted documents:

  - Order: append-only, total = round2(unit price × quantity)
  - ChatMessage: append-only
  - Customer: mutable activation state, language and profile image
  - Event: calendar entry ordered by date and time
  - Product: catalogue entry

Transient payloads (never stored): LabelJob, the realtime frames in
realtime.go and the print agent wire types in printing.go.
*/
package models

import "time"

// Order is a placed order. Immutable once created.
type Order struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customer_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Size        string    `json:"size"`
	Quantity    int       `json:"quantity"`
	UnitPrice   Money     `json:"unit_price"`
	Total       Money     `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChatMessage is one line of live chat. Immutable.
type ChatMessage struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Emoji     string    `json:"emoji,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivationStatus is the customer lifecycle state.
type ActivationStatus string

const (
	ActivationPending ActivationStatus = "pending"
	ActivationActive  ActivationStatus = "active"
	ActivationBlocked ActivationStatus = "blocked"
)

// Valid reports whether s is one of the known states.
func (s ActivationStatus) Valid() bool {
	switch s {
	case ActivationPending, ActivationActive, ActivationBlocked:
		return true
	}
	return false
}

// Language is the customer's preferred UI language.
type Language string

const (
	LanguageDE Language = "de"
	LanguageEN Language = "en"
	LanguageTR Language = "tr"
	LanguageFR Language = "fr"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	switch l {
	case LanguageDE, LanguageEN, LanguageTR, LanguageFR:
		return true
	}
	return false
}

// Customer is a registered buyer. CustomerNumber and Email are unique.
// The profile image bytes live in their own collection; ProfileImageType is
// set when one exists.
type Customer struct {
	ID               string           `json:"id"`
	CustomerNumber   string           `json:"customer_number"`
	Email            string           `json:"email"`
	Name             string           `json:"name"`
	ActivationStatus ActivationStatus `json:"activation_status"`
	Language         Language         `json:"language"`
	ProfileImageType string           `json:"profile_image_type,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ProfileImage is the stored avatar of a customer, keyed by customer id.
type ProfileImage struct {
	ID          string    `json:"id"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"data"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Event is a calendar entry. Date is YYYY-MM-DD and Time is HH:MM, both
// local to the show.
type Event struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SortKey is the listing order key, date+" "+time.
func (e Event) SortKey() string {
	return e.Date + " " + e.Time
}

// Product is a catalogue entry.
type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    Money    `json:"price"`
	Sizes    []string `json:"sizes,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
}

// LabelJob is one label on its way to the printer. Not persisted.
type LabelJob struct {
	CustomerNumber string    `json:"customer_number"`
	Price          string    `json:"price"`
	OrderID        string    `json:"order_id"`
	CreatedAt      time.Time `json:"created_at"`
	Program        []byte    `json:"-"`
}
