// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package websocket

import (
	"context"

	"github.com/nsa-x/console/internal/logging"
	"github.com/nsa-x/console/internal/notify"
)

// Bridge forwards bus traffic to the hub: notices and query update markers
// published by the query layer become push messages for the dashboard. It
// runs as a supervised service alongside the hub.
type Bridge struct {
	bus *notify.Bus
	hub *Hub
}

// NewBridge wires bus to hub.
func NewBridge(bus *notify.Bus, hub *Hub) *Bridge {
	return &Bridge{bus: bus, hub: hub}
}

// Serve forwards until ctx is cancelled.
func (b *Bridge) Serve(ctx context.Context) error {
	notices, err := b.bus.SubscribeNotices(ctx)
	if err != nil {
		return err
	}
	updates, err := b.bus.SubscribeQueryUpdates(ctx)
	if err != nil {
		return err
	}

	logging.Debug().Msg("Bus bridge started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notice, ok := <-notices:
			if !ok {
				return ctx.Err()
			}
			b.hub.BroadcastNotice(notice)
		case update, ok := <-updates:
			if !ok {
				return ctx.Err()
			}
			b.hub.BroadcastQueryUpdate(update)
		}
	}
}

// String names the bridge in supervisor logs.
func (b *Bridge) String() string {
	return "websocket-bridge"
}
