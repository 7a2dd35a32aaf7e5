// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

// Package label renders order labels for the 40 × 25 mm thermal printer.
//
// The label is 320 × 200 dots (8 dots/mm) with three fixed regions:
//
//	+------------------------------------+
//	| 12.05.26 19:04:11                  |  timestamp, (30,30), h=20
//	|                      [ 299 ]       |  last 3 of customer number, (160,120), h=60
//	| 10                         1999    |  number prefix (30,180) / price digits (250,180), h=30
//	+------------------------------------+
//
// Program returns the ZPL II text sent raw to the spooler; PNG draws the same
// layout for on-screen previews. Both are pure functions of
// (customer number, price, instant).
package label

import (
	"fmt"
	"strings"
	"time"
)

// Label geometry in printer dots.
const (
	WidthDots  = 320
	HeightDots = 200

	// TimestampLayout is DD.MM.YY HH:MM:SS.
	TimestampLayout = "02.01.06 15:04:05"
)

// Field is one positioned text element of the layout.
type Field struct {
	Name   string
	X, Y   int
	Height int
	// Box is the width of a centred field block; 0 means left aligned.
	Box  int
	Text string
}

// Layout computes the fields for a label. The prefix field is omitted when
// the customer number has three characters or fewer.
func Layout(customerNumber, price string, at time.Time) []Field {
	prefix, tail := SplitCustomerNumber(customerNumber)
	fields := []Field{
		{Name: "timestamp", X: 30, Y: 30, Height: 20, Text: at.Format(TimestampLayout)},
		{Name: "number", X: 160, Y: 120, Height: 60, Box: 160, Text: tail},
	}
	if prefix != "" {
		fields = append(fields, Field{Name: "prefix", X: 30, Y: 180, Height: 30, Text: prefix})
	}
	return append(fields, Field{Name: "price", X: 250, Y: 180, Height: 30, Text: PriceDigits(price)})
}

// Program renders the ZPL II program for a label.
func Program(customerNumber, price string, at time.Time) []byte {
	var b strings.Builder
	b.WriteString("^XA\n")
	b.WriteString("^MTD\n")
	b.WriteString("^MNY\n")
	fmt.Fprintf(&b, "^PW%d\n", WidthDots)
	fmt.Fprintf(&b, "^LL%d\n", HeightDots)
	b.WriteString("^CI28\n")
	for _, f := range Layout(customerNumber, price, at) {
		fmt.Fprintf(&b, "^FO%d,%d", f.X, f.Y)
		if f.Box > 0 {
			fmt.Fprintf(&b, "^FB%d,1,0,C,0", f.Box)
		}
		fmt.Fprintf(&b, "^A0N,%d,%d^FD%s^FS\n", f.Height, f.Height, sanitize(f.Text))
	}
	b.WriteString("^XZ\n")
	return []byte(b.String())
}

// TestProgram is the built-in label printed by the test-print endpoints.
func TestProgram(at time.Time) []byte {
	return Program("TEST000", "0,00", at)
}

// SplitCustomerNumber returns (all but the last 3 characters, last 3).
// Numbers of three characters or fewer have an empty prefix.
func SplitCustomerNumber(n string) (prefix, tail string) {
	r := []rune(strings.TrimSpace(n))
	if len(r) <= 3 {
		return "", string(r)
	}
	return string(r[:len(r)-3]), string(r[len(r)-3:])
}

// PriceDigits keeps only the digits of a formatted price, dropping currency
// signs and separators: "17,00 €" becomes "1700".
func PriceDigits(price string) string {
	var b strings.Builder
	for _, r := range price {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sanitize removes the ZPL command prefixes so field data cannot inject
// commands.
func sanitize(s string) string {
	return strings.NewReplacer("^", "", "~", "").Replace(s)
}
