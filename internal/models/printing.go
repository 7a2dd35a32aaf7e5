// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package models

import "time"

// PrintRequest is the body of the print agent's POST /print.
type PrintRequest struct {
	Program        string `json:"program"`
	CustomerNumber string `json:"customer_number"`
	Price          string `json:"price"`
	OrderID        string `json:"order_id"`
}

// PrintResponse is returned by POST /print and POST /test-print. Attempted
// and Hint are only set on failure.
type PrintResponse struct {
	Success   bool     `json:"success"`
	Method    string   `json:"method,omitempty"`
	Message   string   `json:"message"`
	Printer   string   `json:"printer,omitempty"`
	Attempted []string `json:"attempted,omitempty"`
	Hint      string   `json:"hint,omitempty"`
}

// PrinterState is the discovered state of the label printer.
type PrinterState string

const (
	PrinterReady    PrinterState = "ready"
	PrinterBusy     PrinterState = "busy"
	PrinterNotFound PrinterState = "not_found"
	// PrinterOffline is reported by the API server when the agent itself
	// cannot be reached.
	PrinterOffline PrinterState = "offline"
)

// SpoolPrinter is one row of the spooler's printer table.
type SpoolPrinter struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Default bool   `json:"default,omitempty"`
}

// PrinterStatus is returned by the agent's GET /printer/status.
type PrinterStatus struct {
	Status      PrinterState   `json:"status"`
	PrinterName string         `json:"printer_name,omitempty"`
	Message     string         `json:"message"`
	Printers    []SpoolPrinter `json:"printers,omitempty"`
}

// PrintJobState follows received → submitting → submitted | failed.
type PrintJobState string

const (
	JobReceived   PrintJobState = "received"
	JobSubmitting PrintJobState = "submitting"
	JobSubmitted  PrintJobState = "submitted"
	JobFailed     PrintJobState = "failed"
)

// PrintJobRecord is one entry of the agent's job journal.
type PrintJobRecord struct {
	ID             string        `json:"id"`
	OrderID        string        `json:"order_id"`
	CustomerNumber string        `json:"customer_number"`
	Price          string        `json:"price"`
	State          PrintJobState `json:"state"`
	Printer        string        `json:"printer,omitempty"`
	Method         string        `json:"method,omitempty"`
	Error          string        `json:"error,omitempty"`
	ArchivePath    string        `json:"archive_path,omitempty"`
	ReceivedAt     time.Time     `json:"received_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
