// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

// Package main is the entry point for the NSA-X analyst console daemon.
//
// The console is a local companion process for the NSA-X detection pipeline.
// It holds the analyst's session with the backend, keeps a polled cache of
// events, alerts and audit entries warm, and serves a small HTTP and
// WebSocket API on loopback for the browser dashboard.
//
// # Application Architecture
//
// Startup wires the components in dependency order:
//
//  1. Configuration: Koanf v2 layered sources (env, optional YAML, defaults)
//  2. Token store: sealed file-backed persistence of the session tokens
//  3. Backend client: rate-limited HTTP client with refresh-and-retry
//  4. Session manager: bootstrap from the stored token, login, logout
//  5. Query manager: polled cache with optimistic decision mutations
//  6. WebSocket hub: pushes notices and cache updates to the dashboard
//  7. Supervisor tree: suture v4 runs the pollers, hub, bridge and server
//
// # Configuration
//
// All settings have env forms prefixed NSAX_, e.g. NSAX_BACKEND_URL,
// NSAX_SERVER_PORT, NSAX_SESSION_TOKEN_FILE, NSAX_SESSION_SECRET,
// NSAX_POLLING_INTERVAL, NSAX_LOGGING_LEVEL.
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the supervisor tree stops
// its services, the HTTP server drains in-flight requests, and WebSocket
// clients receive close frames.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nsa-x/console/internal/config"
	"github.com/nsa-x/console/internal/logging"
	"github.com/nsa-x/console/internal/notify"
	"github.com/nsa-x/console/internal/nsax"
	"github.com/nsa-x/console/internal/query"
	"github.com/nsa-x/console/internal/session"
	"github.com/nsa-x/console/internal/supervisor"
	"github.com/nsa-x/console/internal/web"
	ws "github.com/nsa-x/console/internal/websocket"
)

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
		Str("backend_url", cfg.Backend.URL).
		Str("listen", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Dur("poll_interval", cfg.Polling.Interval).
		Msg("Starting NSA-X console")

	// Token store, sealed at rest when a session secret is configured.
	var sealer *nsax.TokenSealer
	if cfg.Session.Secret != "" {
		sealer, err = nsax.NewTokenSealer(cfg.Session.Secret)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize token sealer")
		}
	} else {
		logging.Warn().Msg("No session secret configured, tokens stored unsealed")
	}
	store, err := nsax.NewFileTokenStore(cfg.Session.TokenFile, sealer)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Session.TokenFile).
			Msg("Failed to open token store")
	}

	// Backend client and session manager. The expired hook is late-bound
	// because the client has to exist before the manager it notifies.
	var sess *session.Manager
	client := nsax.NewClient(cfg.Backend.URL, store,
		nsax.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
		nsax.WithRateLimit(cfg.Backend.RateLimit, cfg.Backend.RateBurst),
		nsax.WithSessionExpiredHook(func() {
			if sess != nil {
				sess.HandleSessionExpired()
			}
		}),
	)
	sess = session.NewManager(client, store)

	bus := notify.NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing notification bus")
		}
	}()

	cache := query.NewCache(bus)
	queries := query.NewManager(client, cache, bus, cfg.Polling)

	hub := ws.NewHub()
	bridge := ws.NewBridge(bus, hub)

	// A dead session empties the token store and pushes a reset so every
	// connected dashboard drops to the login screen together.
	sess.OnReset(hub.BroadcastSessionReset)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Restore the previous session before serving. A stale token degrades
	// to the logged-out state rather than failing startup.
	sess.Bootstrap(ctx)
	if snap := sess.Snapshot(); snap.IsAuthenticated {
		logging.Info().Str("username", snap.User.Username).Msg("Session restored")
	} else {
		logging.Info().Msg("No session restored, login required")
	}

	router := web.NewRouter(&web.Handlers{
		Session: sess,
		Queries: queries,
		Hub:     hub,
	}, cfg.Server)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(slog.New(logging.NewSlogHandler()), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(hub)
	tree.AddMessagingService(bridge)
	for _, poller := range queries.Pollers() {
		tree.AddPollingService(poller)
	}
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.Timeout))

	logging.Info().Str("addr", server.Addr).Msg("Console ready")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("Supervisor tree failed")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Console stopped")
}
