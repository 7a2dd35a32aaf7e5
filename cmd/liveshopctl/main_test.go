// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package main

import (
	"bytes"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liveshop/internal/importer"
	"github.com/tomtom215/liveshop/internal/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "customers.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLabelZPL(t *testing.T) {
	out, err := execute(t, "label", "zpl", "10299", "--price", "19,99")
	if err != nil {
		t.Fatalf("label zpl: %v", err)
	}
	for _, want := range []string{"^XA", "^FD299^FS", "^FD1999^FS", "^XZ"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLabelPreview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label.png")
	if _, err := execute(t, "label", "preview", "10299", "--out", path, "--scale", "1"); err != nil {
		t.Fatalf("label preview: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 200 {
		t.Errorf("size = %dx%d", b.Dx(), b.Dy())
	}
}

func TestImportRemote(t *testing.T) {
	var gotQuery, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/customers/import" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_ = json.NewEncoder(w).Encode(importer.Stats{Processed: 1, Imported: 1, DryRun: true})
	}))
	defer srv.Close()

	csv := "customer_number,email,name\n1,a@example.com,A\n"
	out, err := execute(t, "import", writeCSV(t, csv), "--server", srv.URL, "--dry-run")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if gotQuery != "dry_run=true" || gotBody != csv {
		t.Errorf("request query %q body %q", gotQuery, gotBody)
	}
	var stats importer.Stats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if stats.Imported != 1 || !stats.DryRun {
		t.Errorf("stats = %+v", stats)
	}
}

func TestImportRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"import failed: missing column email"}`))
	}))
	defer srv.Close()

	_, err := execute(t, "import", writeCSV(t, "x\n"), "--server", srv.URL)
	if err == nil || !strings.Contains(err.Error(), "missing column email") {
		t.Errorf("err = %v", err)
	}
}

func TestImportLocal(t *testing.T) {
	dir := t.TempDir()
	csv := "Kundennummer;E-Mail;Name\n500;x@example.com;X\n501;y@example.com;Y\n"
	out, err := execute(t, "import", writeCSV(t, csv), "--store", dir)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	var stats importer.Stats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if stats.Imported != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAgentStatusAndJobs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/printer/status", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.PrinterStatus{Status: models.PrinterReady, PrinterName: "ZTC-GK420d", Message: "ready"})
	})
	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("limit = %q", r.URL.Query().Get("limit"))
		}
		_ = json.NewEncoder(w).Encode([]models.PrintJobRecord{{ID: "j1", OrderID: "o1", State: models.JobSubmitted}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out, err := execute(t, "agent", "status", "--agent", srv.URL)
	if err != nil {
		t.Fatalf("agent status: %v", err)
	}
	if !strings.Contains(out, `"printer_name": "ZTC-GK420d"`) {
		t.Errorf("status output:\n%s", out)
	}

	out, err = execute(t, "agent", "jobs", "--agent", srv.URL, "--limit", "5")
	if err != nil {
		t.Fatalf("agent jobs: %v", err)
	}
	var jobs []models.PrintJobRecord
	if err := json.Unmarshal([]byte(out), &jobs); err != nil || len(jobs) != 1 || jobs[0].ID != "j1" {
		t.Errorf("jobs output %q, err %v", out, err)
	}
}
