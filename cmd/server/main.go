// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/blogflock/internal/api"
	"github.com/tomtom215/blogflock/internal/config"
	"github.com/tomtom215/blogflock/internal/database"
	"github.com/tomtom215/blogflock/internal/feed"
	"github.com/tomtom215/blogflock/internal/hashid"
	"github.com/tomtom215/blogflock/internal/logging"
	"github.com/tomtom215/blogflock/internal/metrics"
	"github.com/tomtom215/blogflock/internal/registry"
	"github.com/tomtom215/blogflock/internal/supervisor"
	"github.com/tomtom215/blogflock/internal/supervisor/services"
	ws "github.com/tomtom215/blogflock/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(loggingConfig(cfg))
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("addr", cfg.Server.Addr()).
		Str("version", version).
		Msg("Starting Blogflock")
	metrics.SetAppInfo(version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ids, err := hashid.New(cfg.Hashid.Salt, cfg.Hashid.MinLength)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create hash id codec")
	}

	db, err := database.New(ctx, &cfg.Database, ids)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	wsRegistry := ws.NewRegistry()

	natsComponents, err := InitNATS(cfg, db, wsRegistry)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize NATS")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		natsComponents.Shutdown(shutdownCtx)
	}()

	blogs := registry.New(feed.NewResolver(cfg.Feed), feed.NewParser(cfg.Feed), db, ids, natsComponents.Publisher())

	handler := api.NewHandler(&cfg.API, api.Dependencies{
		Store:      db,
		Registry:   blogs,
		IDs:        ids,
		Publisher:  natsComponents.Publisher(),
		WSRegistry: wsRegistry,
		Broker:     natsComponents.Conn(),
	})
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.API)))
	server := newHTTPServer(cfg, router.Handler())

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(wsRegistry)
	tree.AddMessagingService(natsComponents.Router())
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("Services added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

func loggingConfig(cfg *config.Config) logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = cfg.Logging.Level
	lc.Format = cfg.Logging.Format
	lc.Caller = cfg.Logging.Caller
	return lc
}

// newHTTPServer builds the API server. The write timeout does not apply
// to hijacked websocket connections.
func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
}
