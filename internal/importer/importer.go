// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

// Package importer bulk-registers customers from a CSV export.
//
// The first row is a header. Recognised columns (case-insensitive):
//
//	customer_number | kundennummer | number
//	email | e-mail
//	name
//	language | sprache   (optional, defaults to de)
//
// Rows go through the same registration path as the HTTP endpoint, so
// validation and uniqueness rules are identical. A row whose number or email
// is already registered is skipped, not failed.
package importer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/models"
	"github.com/tomtom215/liveshop/internal/shop"
)

// MaxFailures caps the row errors kept in Stats.
const MaxFailures = 100

// Registrar registers one customer.
type Registrar interface {
	RegisterCustomer(ctx context.Context, req shop.RegisterCustomerRequest) (*models.Customer, error)
}

// RowError is one rejected row. Line is 1-based and counts the header.
type RowError struct {
	Line   int    `json:"line"`
	Detail string `json:"detail"`
}

// Stats summarises an import.
type Stats struct {
	Processed int64      `json:"processed"`
	Imported  int64      `json:"imported"`
	Skipped   int64      `json:"skipped"`
	Errors    int64      `json:"errors"`
	Failures  []RowError `json:"failures,omitempty"`
	DryRun    bool       `json:"dry_run"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
}

// Duration is the wall time of the import.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

func (s *Stats) fail(line int, detail string) {
	s.Errors++
	if len(s.Failures) < MaxFailures {
		s.Failures = append(s.Failures, RowError{Line: line, Detail: detail})
	}
}

// Importer reads customer CSV files.
type Importer struct {
	reg    Registrar
	dryRun bool
}

// New returns an importer. In dry-run mode rows are parsed and counted but
// not registered.
func New(reg Registrar, dryRun bool) *Importer {
	return &Importer{reg: reg, dryRun: dryRun}
}

var headerAliases = map[string]string{
	"customer_number": "customer_number",
	"kundennummer":    "customer_number",
	"number":          "customer_number",
	"email":           "email",
	"e-mail":          "email",
	"name":            "name",
	"language":        "language",
	"sprache":         "language",
}

// columns maps canonical column names to their index.
type columns map[string]int

func parseHeader(row []string) (columns, error) {
	cols := columns{}
	for i, h := range row {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canon, ok := headerAliases[key]; ok {
			if _, dup := cols[canon]; !dup {
				cols[canon] = i
			}
		}
	}
	var missing []string
	for _, need := range []string{"customer_number", "email", "name"} {
		if _, ok := cols[need]; !ok {
			missing = append(missing, need)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header is missing column(s): %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func (c columns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Import reads r to the end. The error is non-nil only when the file itself
// is unreadable; per-row problems are counted in Stats.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*Stats, error) {
	stats := &Stats{StartTime: time.Now(), DryRun: im.dryRun}
	defer func() { stats.EndTime = time.Now() }()

	br := bufio.NewReader(r)
	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return stats, fmt.Errorf("empty file")
	}
	if err != nil {
		return stats, fmt.Errorf("read header: %w", err)
	}
	cols, err := parseHeader(header)
	if err != nil {
		return stats, err
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				stats.Processed++
				stats.fail(line, perr.Err.Error())
				continue
			}
			return stats, fmt.Errorf("read line %d: %w", line, err)
		}
		if blank(row) {
			continue
		}
		stats.Processed++
		im.row(ctx, stats, line, cols, row)
	}

	logging.Info().
		Int64("processed", stats.Processed).
		Int64("imported", stats.Imported).
		Int64("skipped", stats.Skipped).
		Int64("errors", stats.Errors).
		Bool("dry_run", im.dryRun).
		Dur("duration", stats.Duration()).
		Msg("customer import completed")
	return stats, nil
}

func (im *Importer) row(ctx context.Context, stats *Stats, line int, cols columns, row []string) {
	req := shop.RegisterCustomerRequest{
		CustomerNumber: cols.get(row, "customer_number"),
		Email:          cols.get(row, "email"),
		Name:           cols.get(row, "name"),
		Language:       models.Language(strings.ToLower(cols.get(row, "language"))),
	}
	if im.dryRun {
		stats.Imported++
		return
	}
	_, err := im.reg.RegisterCustomer(ctx, req)
	switch {
	case err == nil:
		stats.Imported++
	case errors.Is(err, shop.ErrConflict):
		stats.Skipped++
	default:
		stats.fail(line, err.Error())
		logging.Debug().Int("line", line).Err(err).Msg("customer import row rejected")
	}
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// sniffDelimiter picks ';' when the header has more semicolons than commas,
// as in spreadsheet exports with a German locale.
func sniffDelimiter(br *bufio.Reader) rune {
	head, _ := br.Peek(br.Size())
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte(";")) > bytes.Count(head, []byte(",")) {
		return ';'
	}
	return ','
}
