// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package printagent

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/liveshop/internal/models"
)

// Spooler printer states as reported by lpstat.
const (
	spoolIdle     = "idle"
	spoolPrinting = "printing"
	spoolDisabled = "disabled"
	spoolUnknown  = "unknown"
)

const defaultPrefix = "system default destination:"

// ParsePrinterTable reads `lpstat -p -d` output. Lines look like:
//
//	printer Zebra_Technologies_ZTC_GK420d is idle.  enabled since ...
//	printer ZTC-GK420d now printing ZTC-GK420d-17.  enabled since ...
//	printer Office disabled since ... -
//	system default destination: Office
func ParsePrinterTable(out []byte) []models.SpoolPrinter {
	var (
		printers []models.SpoolPrinter
		def      string
	)
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, defaultPrefix) {
			def = strings.TrimSpace(strings.TrimPrefix(line, defaultPrefix))
			continue
		}
		rest, ok := strings.CutPrefix(line, "printer ")
		if !ok {
			continue
		}
		name, state := splitPrinterLine(rest)
		if name == "" {
			continue
		}
		printers = append(printers, models.SpoolPrinter{Name: name, State: state})
	}
	for i := range printers {
		printers[i].Default = printers[i].Name == def
	}
	return printers
}

// splitPrinterLine separates the printer name from its state phrase. Names
// may contain spaces on some spoolers, so the earliest state marker wins.
func splitPrinterLine(rest string) (name, state string) {
	markers := []struct {
		text  string
		state string
	}{
		{" is idle", spoolIdle},
		{" now printing", spoolPrinting},
		{" disabled", spoolDisabled},
		{" is ", spoolUnknown},
	}
	cut, found := len(rest), spoolUnknown
	for _, m := range markers {
		if i := strings.Index(rest, m.text); i >= 0 && i < cut {
			cut, found = i, m.state
		}
	}
	if cut == len(rest) {
		return strings.TrimSpace(rest), spoolUnknown
	}
	return strings.TrimSpace(rest[:cut]), found
}

// SelectPrinter returns the first alias present in the table. Matching is
// case-insensitive and treats spaces and underscores alike.
func SelectPrinter(aliases []string, printers []models.SpoolPrinter) (models.SpoolPrinter, bool) {
	for _, alias := range aliases {
		want := normalizeName(alias)
		for _, p := range printers {
			if normalizeName(p.Name) == want {
				return p, true
			}
		}
	}
	return models.SpoolPrinter{}, false
}

func normalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
}

// discover lists the spooler's printers and resolves the configured aliases.
func (a *Agent) discover(ctx context.Context) models.PrinterStatus {
	argv := strings.Fields(a.opts.ListCommand)
	if len(argv) == 0 {
		return models.PrinterStatus{Status: models.PrinterNotFound, Message: "no printer list command configured"}
	}

	out, err := a.opts.Runner.Run(ctx, argv[0], argv[1:]...)
	table := ParsePrinterTable(out)
	if err != nil && len(table) == 0 {
		return models.PrinterStatus{
			Status:  models.PrinterNotFound,
			Message: fmt.Sprintf("spooler listing failed: %v", err),
		}
	}

	p, ok := SelectPrinter(a.opts.Aliases, table)
	if !ok {
		return models.PrinterStatus{
			Status:   models.PrinterNotFound,
			Message:  fmt.Sprintf("none of %d known printer names is installed", len(a.opts.Aliases)),
			Printers: table,
		}
	}

	st := models.PrinterStatus{PrinterName: p.Name, Printers: table}
	switch p.State {
	case spoolIdle:
		st.Status, st.Message = models.PrinterReady, "printer is idle"
	case spoolPrinting:
		st.Status, st.Message = models.PrinterBusy, "printer is printing"
	case spoolDisabled:
		st.Status, st.Message = models.PrinterNotFound, "printer is disabled in the spooler"
	default:
		st.Status, st.Message = models.PrinterReady, "printer state "+p.State
	}
	return st
}
