// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

// Package metrics exposes Prometheus instrumentation for the console:
// backend API traffic, token refresh flow, poll cycles, query cache
// efficiency, decision outcomes and dashboard WebSocket clients.
// All collectors are registered on the default registry and served from
// /metrics by the local UI server.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Backend API client metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nsax_api_request_duration_seconds",
			Help:    "Duration of NSA-X backend API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	APIRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsax_api_request_errors_total",
			Help: "Total backend API requests that failed",
		},
		[]string{"method", "path", "status"},
	)

	APIRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nsax_api_retries_total",
			Help: "Total requests re-issued after a successful token refresh",
		},
	)

	// Token refresh metrics
	RefreshAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsax_token_refresh_attempts_total",
			Help: "Total token refresh attempts by outcome (success, failure, skipped)",
		},
		[]string{"outcome"},
	)

	RefreshWaiters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nsax_token_refresh_waiters",
			Help: "Callers currently waiting on an in-flight refresh attempt",
		},
	)

	// Poller metrics
	PollCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsax_poll_cycles_total",
			Help: "Total poll cycles by resource and outcome",
		},
		[]string{"resource", "outcome"},
	)

	ActivePollers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nsax_active_pollers",
			Help: "Currently running poll subscriptions",
		},
	)

	// Query cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsax_query_cache_hits_total",
			Help: "Query cache hits by resource",
		},
		[]string{"resource"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsax_query_cache_misses_total",
			Help: "Query cache misses by resource",
		},
		[]string{"resource"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsax_query_cache_invalidations_total",
			Help: "Query cache invalidations by resource",
		},
		[]string{"resource"},
	)

	// Decision metrics
	DecisionsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsax_decisions_submitted_total",
			Help: "Analyst decisions submitted by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	DecisionRollbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nsax_decision_rollbacks_total",
			Help: "Optimistic decision updates rolled back after server failure",
		},
	)

	// Circuit breaker metrics (health endpoint)
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nsax_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsax_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Dashboard WebSocket metrics
	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nsax_ws_clients",
			Help: "Connected dashboard WebSocket clients",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsax_ws_messages_sent_total",
			Help: "WebSocket messages pushed to dashboard clients by type",
		},
		[]string{"type"},
	)
)

// ObserveAPIRequest records one backend request. Failed requests additionally
// increment the error counter labeled with the numeric status ("0" for
// transport errors with no response).
func ObserveAPIRequest(method, path string, status int, seconds float64, failed bool) {
	APIRequestDuration.WithLabelValues(method, path).Observe(seconds)
	if failed {
		APIRequestErrors.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	}
}
