// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

// Package main runs the print agent on the operator workstation.
//
// The agent listens on loopback by default and accepts label programs from
// the API server. It needs the CUPS client tools (lpstat, lp, lpr) on PATH.
//
// Example:
//
//	export PRINTER_ALIASES="ZTC-GK420d,Zebra"
//	export PRINTER_WORK_DIR=$HOME/labels
//	./printagent
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/liveshop/internal/config"
	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/printagent"
	"github.com/tomtom215/liveshop/internal/supervisor"
	"github.com/tomtom215/liveshop/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadAgent()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Print agent failed")
	}
	logging.Info().Msg("Print agent stopped")
}

func run(cfg *config.AgentConfig) error {
	journal, err := printagent.OpenJournal(cfg.Printer.JournalPath, printagent.DefaultJournalKeep)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() {
		if err := journal.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing journal")
		}
	}()

	agent, err := printagent.New(printagent.Options{
		Aliases:       cfg.Printer.Aliases,
		ListCommand:   cfg.Printer.ListCommand,
		Commands:      cfg.Printer.Commands,
		WorkDir:       cfg.Printer.WorkDir,
		RatePerSecond: cfg.Printer.RatePerSecond,
		Burst:         cfg.Printer.Burst,
		Runner:        printagent.ExecRunner{Timeout: cfg.Printer.CommandTimeout},
		Journal:       journal,
	})
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := agent.Status(ctx)
	logging.Info().
		Str("status", string(st.Status)).
		Str("printer", st.PrinterName).
		Str("work_dir", cfg.Printer.WorkDir).
		Msg("Printer discovery finished")

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           printagent.NewRouter(agent, cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Print agent listening")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
