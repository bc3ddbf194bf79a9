// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

// Package stubserver implements a development stand-in for the NSA-X
// backend REST surface. It serves the /api/v1 routes the console consumes,
// backed by in-memory fixtures, so the console can be developed and tested
// without a running pipeline.
package stubserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	"github.com/nsa-x/console/internal/logging"
	"github.com/nsa-x/console/internal/models"
)

// Config controls stub behavior.
type Config struct {
	// JWTSecret signs issued access tokens. Required.
	JWTSecret []byte

	// TokenTTL is the lifetime of issued tokens. Defaults to 30 minutes.
	TokenTTL time.Duration

	// Users maps username to password for the password grant. When empty a
	// single "analyst1" account is seeded.
	Users map[string]string
}

// Server is the in-memory stub backend.
type Server struct {
	cfg    Config
	router chi.Router

	mu        sync.RWMutex
	events    []models.Event
	processed map[string]*models.ProcessedEvent
	alerts    []*models.AlertDetail
	audit     []models.AuditEntry
	rules     []models.Rule
	startedAt time.Time
}

// New builds a stub server with seeded fixtures.
func New(cfg Config) *Server {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * time.Minute
	}
	if len(cfg.Users) == 0 {
		cfg.Users = map[string]string{"analyst1": "analyst1-dev-password"}
	}

	s := &Server{cfg: cfg, startedAt: time.Now()}
	s.seed()
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(httprate.LimitByIP(10, time.Minute)).
			Post("/auth/token", s.handleToken)
		r.Get("/system/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.requireBearer)

			r.Post("/auth/refresh", s.handleRefresh)
			r.Get("/auth/me", s.handleMe)

			r.Get("/events", s.handleListEvents)
			r.Post("/events", s.handleIngestEvent)
			r.Get("/events/{id}", s.handleEventByID)
			r.Get("/events/{id}/processed", s.handleProcessedEvent)

			r.Get("/alerts", s.handleListAlerts)
			r.Get("/alerts/{id}", s.handleAlertByID)
			r.Patch("/alerts/{id}/status", s.handleUpdateStatus)
			r.Post("/alerts/{id}/decisions", s.handleCreateDecision)

			r.Get("/audit", s.handleListAudit)
			r.Get("/system/rules", s.handleListRules)
			r.Get("/system/rules/{id}", s.handleRuleByID)
		})
	})

	s.router = r
}

// respond writes v as JSON with the given status.
func respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Stub response encoding failed")
	}
}

// fail writes a FastAPI-style {"detail": ...} error body.
func fail(w http.ResponseWriter, status int, detail string) {
	respond(w, status, map[string]string{"detail": detail})
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
