// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package nsax

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/nsa-x/console/internal/logging"
	"github.com/nsa-x/console/internal/metrics"
	"github.com/nsa-x/console/internal/models"
)

// ErrBackendUnavailable is returned by HealthProbe while the circuit is
// open. Callers report the backend as down without issuing a request.
var ErrBackendUnavailable = errors.New("nsax: backend unavailable (circuit open)")

// HealthProbe wraps the unauthenticated health endpoint in a circuit
// breaker. The status poller hits it every cycle, and without the breaker a
// dead backend would eat a full connect timeout on every tick.
//
// The breaker uses real time for its interval and timeout windows; tests
// exercise the wrapped client directly.
type HealthProbe struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[*models.Health]
}

// NewHealthProbe builds a probe around client. The circuit opens after 60%
// failures over at least 6 requests and probes recovery after 30 seconds,
// short enough that the status bar notices a backend restart quickly.
func NewHealthProbe(client *Client) *HealthProbe {
	const name = "nsax-health"
	metrics.BreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*models.Health](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 6 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Health probe circuit state changed")
			metrics.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.BreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &HealthProbe{client: client, cb: cb}
}

// Check returns backend health, or ErrBackendUnavailable while the circuit
// is open.
func (p *HealthProbe) Check(ctx context.Context) (*models.Health, error) {
	health, err := p.cb.Execute(func() (*models.Health, error) {
		return p.client.Health(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrBackendUnavailable
		}
		return nil, err
	}
	return health, nil
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
