// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

// Package main is liveshopctl, the operator command line tool.
//
//	liveshopctl import customers.csv --server http://localhost:8000
//	liveshopctl import customers.csv --store /var/lib/liveshop --dry-run
//	liveshopctl label preview 10299 --price 19,99 --out label.png
//	liveshopctl label zpl 10299 --price 19,99
//	liveshopctl agent status
//	liveshopctl agent jobs --limit 20
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/liveshop/internal/logging"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "liveshopctl",
		Short:         "LiveShop operator tool",
		Long:          "Operator commands for the LiveShop API server and the label print agent.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level, _ := cmd.Flags().GetString("log-level")
			logging.Init(logging.Config{Level: level, Format: "console", Output: cmd.ErrOrStderr()})
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("liveshopctl %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime))
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newImportCmd())
	root.AddCommand(newLabelCmd())
	root.AddCommand(newAgentCmd())
	return root
}

// printJSON writes v indented, for humans and jq alike.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
