// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/liveshop/internal/importer"
	"github.com/tomtom215/liveshop/internal/shop"
	"github.com/tomtom215/liveshop/internal/store"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import customers from a CSV file",
		Long: `Import customers from a CSV file with the columns customer_number,
email, name and optionally language. Comma and semicolon separated files
are accepted; German headers (Kundennummer, E-Mail, Sprache) work too.

By default the file is posted to the API server. With --store the import
runs directly against a stopped server's data directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")
			storeDir, _ := cmd.Flags().GetString("store")
			database, _ := cmd.Flags().GetString("database")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			var stats *importer.Stats
			if storeDir != "" {
				stats, err = importLocal(cmd.Context(), f, storeDir, database, dryRun)
			} else {
				stats, err = importRemote(cmd.Context(), f, server, dryRun)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().String("server", "http://localhost:8000", "API server base URL")
	cmd.Flags().String("store", "", "import directly into this store directory instead of the API")
	cmd.Flags().String("database", "liveshop", "database name under --store")
	cmd.Flags().Bool("dry-run", false, "parse and validate without writing")
	return cmd
}

func importLocal(ctx context.Context, r io.Reader, dir, database string, dryRun bool) (*importer.Stats, error) {
	st, err := store.Open(store.Options{Dir: dir, Database: database})
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return importer.New(shop.New(shop.Deps{Store: st}), dryRun).Import(ctx, r)
}

func importRemote(ctx context.Context, r io.Reader, server string, dryRun bool) (*importer.Stats, error) {
	u, err := url.Parse(strings.TrimRight(server, "/") + "/api/customers/import")
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if dryRun {
		u.RawQuery = "dry_run=true"
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/csv")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &detail) == nil && detail.Detail != "" {
			return nil, errors.New(detail.Detail)
		}
		return nil, fmt.Errorf("import failed: %s", resp.Status)
	}

	var stats importer.Stats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("decode import result: %w", err)
	}
	return &stats, nil
}
