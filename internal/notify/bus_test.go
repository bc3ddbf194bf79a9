// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package notify

import (
	"context"
	"testing"
	"time"
)

func TestBusNoticeDelivery(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notices, err := bus.SubscribeNotices(ctx)
	if err != nil {
		t.Fatalf("SubscribeNotices: %v", err)
	}

	sent := Notice{Level: LevelError, Title: "Failed to submit decision", Message: "422 Unprocessable Entity"}
	bus.PublishNotice(sent)

	select {
	case got := <-notices:
		if got != sent {
			t.Errorf("received %+v, want %+v", got, sent)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notice not delivered")
	}
}

func TestBusTopicsAreIsolated(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := bus.SubscribeQueryUpdates(ctx)
	if err != nil {
		t.Fatalf("SubscribeQueryUpdates: %v", err)
	}

	bus.PublishNotice(Notice{Level: LevelInfo, Title: "noise"})
	bus.PublishQueryUpdate(QueryUpdate{Key: "alerts:detail:a1", Resource: "alerts"})

	select {
	case got := <-updates:
		if got.Key != "alerts:detail:a1" || got.Resource != "alerts" {
			t.Errorf("received %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("update not delivered")
	}

	select {
	case got, ok := <-updates:
		if ok {
			t.Errorf("unexpected second update: %+v", got)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusSubscriberClosesOnCancel(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	notices, err := bus.SubscribeNotices(ctx)
	if err != nil {
		t.Fatalf("SubscribeNotices: %v", err)
	}
	cancel()

	select {
	case _, ok := <-notices:
		if ok {
			t.Error("received a notice after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after cancel")
	}
}
