// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package query

import (
	"context"
	"time"

	"github.com/nsa-x/console/internal/logging"
	"github.com/nsa-x/console/internal/metrics"
)

// Poller re-runs a refresh function on a fixed interval. It satisfies the
// suture service shape: Serve blocks until ctx is cancelled and returns the
// context error, so the supervisor treats cancellation as a clean stop.
//
// A failing refresh does not stop the loop; the cache keeps its last good
// entry and the next tick tries again.
type Poller struct {
	name     string
	interval time.Duration
	refresh  func(ctx context.Context) error
}

// NewPoller builds a poller named for its resource.
func NewPoller(name string, interval time.Duration, refresh func(ctx context.Context) error) *Poller {
	return &Poller{
		name:     name,
		interval: interval,
		refresh:  refresh,
	}
}

// Serve runs the poll loop until ctx is cancelled. The first refresh runs
// immediately so the cache is warm before the first tick.
func (p *Poller) Serve(ctx context.Context) error {
	metrics.ActivePollers.Inc()
	defer metrics.ActivePollers.Dec()

	logging.Debug().Str("resource", p.name).Dur("interval", p.interval).Msg("Poller started")

	p.runOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Debug().Str("resource", p.name).Msg("Poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	if err := p.refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.PollCycles.WithLabelValues(p.name, "failure").Inc()
		logging.Warn().Err(err).Str("resource", p.name).Msg("Poll cycle failed")
		return
	}
	metrics.PollCycles.WithLabelValues(p.name, "success").Inc()
}

// String names the poller in supervisor logs.
func (p *Poller) String() string {
	return "poller-" + p.name
}
