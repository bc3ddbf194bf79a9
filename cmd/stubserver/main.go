// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

// Package main runs the development stub of the NSA-X backend.
//
// The stub serves the /api/v1 surface the console consumes from in-memory
// fixtures, so the console can be run and demoed without the real pipeline:
//
//	go run ./cmd/stubserver -addr :8000
//	NSAX_BACKEND_URL=http://localhost:8000 go run ./cmd/console
//
// The default account is analyst1 / analyst1-dev-password; override with
// -user and -password.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nsa-x/console/internal/logging"
	"github.com/nsa-x/console/internal/stubserver"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	user := flag.String("user", "analyst1", "seeded account username")
	password := flag.String("password", "analyst1-dev-password", "seeded account password")
	flag.Parse()

	logging.Init(logging.Config{Level: "debug", Format: "console"})

	// The signing secret is ephemeral; stub tokens never outlive the
	// process anyway.
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		logging.Fatal().Err(err).Msg("Failed to generate signing secret")
	}

	stub := stubserver.New(stubserver.Config{
		JWTSecret: secret,
		Users:     map[string]string{*user: *password},
	})

	server := &http.Server{
		Addr:              *addr,
		Handler:           stub,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("Stub shutdown failed")
		}
	}()

	logging.Info().Str("addr", *addr).Str("user", *user).Msg("NSA-X backend stub listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal().Err(err).Msg("Stub server failed")
	}
	logging.Info().Msg("Stub server stopped")
}
