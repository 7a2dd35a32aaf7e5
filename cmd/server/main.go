// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

// Package main is the entry point for the LiveShop API server.
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, YAML file, environment (koanf v2)
//  2. Store: badger document store, product catalogue seeding
//  3. Domain events: in-process channel, or NATS JetStream when enabled
//  4. WebSocket hub and stream state
//  5. Print dispatcher: agent client with circuit breaker, watermill retry router
//  6. Media vendor client (LiveKit, 100ms, Daily or none)
//  7. HTTP server: chi router under /api plus /ws and /metrics
//
// Long-running parts run under a suture supervisor tree. SIGINT and SIGTERM
// cancel the tree: the HTTP server drains, subscribers are disconnected,
// the dispatcher router stops and the store is closed last.
//
// Example:
//
//	export PRINT_AGENT_URL=http://127.0.0.1:8765
//	export STORE_PATH=/var/lib/liveshop
//	export CORS_ORIGINS=https://shop.example.com
//	./liveshop
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
	_ "time/tzdata" // printagent.timezone on hosts without zoneinfo

	"github.com/tomtom215/liveshop/internal/api"
	"github.com/tomtom215/liveshop/internal/config"
	"github.com/tomtom215/liveshop/internal/events"
	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/media"
	"github.com/tomtom215/liveshop/internal/printing"
	"github.com/tomtom215/liveshop/internal/shop"
	"github.com/tomtom215/liveshop/internal/store"
	"github.com/tomtom215/liveshop/internal/supervisor"
	"github.com/tomtom215/liveshop/internal/supervisor/services"
	ws "github.com/tomtom215/liveshop/internal/websocket"
)

// topicLabelFinished carries every terminal print outcome.
const topicLabelFinished = "label.finished"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("store", cfg.Store.Path).
		Str("print_agent", cfg.PrintAgent.URL).
		Str("media_provider", cfg.Media.Provider).
		Bool("events", cfg.Events.Enabled).
		Msg("Starting LiveShop with supervisor tree")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

//nolint:gocyclo // Sequential wiring of the server components
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(store.Options{
		Dir:      cfg.Store.Path,
		Database: cfg.Store.Database,
		InMemory: cfg.Store.InMemory,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()
	if cfg.Store.SeedProducts {
		if _, err := st.SeedProducts(ctx, store.DefaultCatalogue); err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
	}

	publisher, err := events.New(ctx, cfg.Events, logging.NewWatermillLogger())
	if err != nil {
		return fmt.Errorf("create event publisher: %w", err)
	}
	logging.Info().Str("backend", publisher.Backend()).Msg("Event publisher ready")

	hub := ws.NewHub(ws.Options{
		SendBuffer:     cfg.Hub.SendBuffer,
		WriteWait:      cfg.Hub.WriteWait,
		PongWait:       cfg.Hub.PongWait,
		MaxMessageSize: cfg.Hub.MaxMessageSize,
		ViewerInterval: cfg.Hub.ViewerInterval,
	})
	state := ws.NewState(cfg.Stream.Title, cfg.Stream.Description)

	agent := printing.NewClient(printing.ClientConfig{
		BaseURL:         cfg.PrintAgent.URL,
		Timeout:         cfg.PrintAgent.Timeout,
		BreakerFailures: cfg.PrintAgent.BreakerFailures,
		BreakerTimeout:  cfg.PrintAgent.BreakerTimeout,
	})
	dispatcher := printing.NewDispatcher(agent, printing.RetryConfig{
		Attempts:       cfg.PrintAgent.Attempts,
		InitialBackoff: cfg.PrintAgent.InitialBackoff,
		MaxBackoff:     cfg.PrintAgent.MaxBackoff,
		Budget:         cfg.PrintAgent.Budget,
	})
	labelZone, err := cfg.PrintAgent.Location()
	if err != nil {
		return err
	}
	dispatcher.SetLocation(labelZone)
	defer func() {
		if err := dispatcher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing print dispatcher")
		}
	}()
	dispatcher.OnOutcome(func(r printing.Result) {
		go func() {
			pctx, pcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer pcancel()
			if err := publisher.Publish(pctx, topicLabelFinished, r); err != nil {
				logging.Warn().Err(err).Str("order_id", r.OrderID).Msg("Failed to publish print outcome")
			}
		}()
	})

	vendor, err := media.New(cfg.Media)
	if err != nil {
		return fmt.Errorf("configure media provider: %w", err)
	}

	svc := shop.New(shop.Deps{
		Store:         st,
		Hub:           hub,
		State:         state,
		Printer:       dispatcher,
		Events:        publisher,
		MaxImageBytes: int(cfg.Security.MaxImageBytes),
	})

	handler := api.NewHandler(api.Deps{
		Shop:          svc,
		Hub:           hub,
		Printer:       dispatcher,
		Media:         vendor,
		CORSOrigins:   cfg.Security.CORSOrigins,
		MaxImageBytes: cfg.Security.MaxImageBytes,
		// Previews show the same wall clock as printed labels.
		Now: func() time.Time { return time.Now().In(labelZone) },
	})
	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Security.RateLimitRequests
	mwConfig.RateLimitWindow = cfg.Security.RateLimitWindow
	mwConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled
	router := api.NewRouter(handler, api.NewChiMiddleware(mwConfig))

	// No WriteTimeout: WebSocket connections are long lived.
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout + 5*time.Second,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddDataService(services.NewStoreGCService(st, cfg.Store.GCInterval))
	tree.AddMessagingService(services.NewPrintDispatcherService(dispatcher))
	tree.AddMessagingService(services.NewCloserService("event-publisher", publisher))
	tree.AddAPIService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// The channel receives exactly one value and is never closed.
	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}
