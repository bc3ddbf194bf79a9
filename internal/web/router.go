// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

// Package web serves the local dashboard: a JSON API over the session and
// query layers, the WebSocket push endpoint and Prometheus metrics. The
// server binds to loopback by default; it is the browser-facing edge of the
// console, not a public service.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nsa-x/console/internal/config"
	"github.com/nsa-x/console/internal/logging"
	"github.com/nsa-x/console/internal/query"
	"github.com/nsa-x/console/internal/session"
	"github.com/nsa-x/console/internal/websocket"
)

// Handlers bundles the state the router serves from.
type Handlers struct {
	Session *session.Manager
	Queries *query.Manager
	Hub     *websocket.Hub
}

// NewRouter builds the dashboard router.
func NewRouter(h *Handlers, cfg config.ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWS(h.Hub, w, req)
	})

	r.Route("/ui", func(r chi.Router) {
		// Reachable regardless of session state.
		r.With(httprate.LimitByIP(10, time.Minute)).Post("/login", h.login)
		r.Get("/session", h.sessionState)
		r.Get("/health", h.backendHealth)

		// Everything else requires an authenticated session.
		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)

			r.Post("/logout", h.logout)

			r.Get("/events", h.listEvents)
			r.Post("/events", h.ingestEvent)
			r.Get("/events/{id}", h.eventByID)
			r.Get("/events/{id}/processed", h.processedEvent)

			r.Get("/alerts", h.listAlerts)
			r.Get("/alerts/pending-count", h.pendingAlertCount)
			r.Get("/alerts/{id}", h.alertByID)
			r.Patch("/alerts/{id}/status", h.updateAlertStatus)
			r.Post("/alerts/{id}/decisions", h.createDecision)

			r.Get("/audit", h.listAudit)

			r.Get("/rules", h.listRules)
			r.Get("/rules/{id}", h.ruleByID)
		})
	})

	return r
}

// requireSession guards the authenticated routes. While the session is
// still checking the guard answers 503 so clients retry instead of
// misreading the transient state as logged-out.
func (h *Handlers) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := h.Session.Snapshot()
		if snap.IsLoading {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusServiceUnavailable, "session state is being determined")
			return
		}
		if !snap.IsAuthenticated {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger emits one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
