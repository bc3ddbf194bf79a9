// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package query

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPollerRunsImmediatelyAndRepeats(t *testing.T) {
	var runs atomic.Int64
	poller := NewPoller("test", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d runs before deadline", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v, want context.Canceled", err)
	}
}

func TestPollerSurvivesRefreshErrors(t *testing.T) {
	var runs atomic.Int64
	poller := NewPoller("flaky", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("backend down")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("poller stopped after a refresh error")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestPollerName(t *testing.T) {
	poller := NewPoller("alerts", time.Second, func(ctx context.Context) error { return nil })
	if got := poller.String(); got != "poller-alerts" {
		t.Errorf("String() = %q", got)
	}
}
