// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package query

import (
	"strings"

	"github.com/nsa-x/console/internal/models"
)

// Key identifies one cached query result. Keys are hierarchical,
// "resource:kind[:qualifier]", so related entries can be invalidated by
// prefix: a recorded decision drops one "alerts:detail:<id>" entry and every
// "alerts:list:" entry in one sweep.
type Key string

// Resource returns the leading resource segment, used as a metric label.
func (k Key) Resource() string {
	s := string(k)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i]
	}
	return s
}

// HasPrefix reports whether the key falls under prefix.
func (k Key) HasPrefix(prefix Key) bool {
	return strings.HasPrefix(string(k), string(prefix))
}

// List-key prefixes for prefix invalidation.
const (
	EventListPrefix Key = "events:list:"
	AlertListPrefix Key = "alerts:list:"
	AuditListPrefix Key = "audit:list:"
)

// Fixed keys.
const (
	RulesKey  Key = "rules:list"
	HealthKey Key = "system:health"
)

// EventListKey keys one page of events under its exact filter encoding, so
// distinct filter sets never collide.
func EventListKey(f models.EventFilters) Key {
	return EventListPrefix + Key(f.Values().Encode())
}

// EventDetailKey keys a single event.
func EventDetailKey(id string) Key {
	return Key("events:detail:" + id)
}

// ProcessedEventKey keys the processed form of an event.
func ProcessedEventKey(id string) Key {
	return Key("events:processed:" + id)
}

// AlertListKey keys one page of alerts.
func AlertListKey(f models.AlertFilters) Key {
	return AlertListPrefix + Key(f.Values().Encode())
}

// AlertDetailKey keys a full alert context.
func AlertDetailKey(id string) Key {
	return Key("alerts:detail:" + id)
}

// AuditListKey keys one page of audit entries.
func AuditListKey(f models.AuditFilters) Key {
	return AuditListPrefix + Key(f.Values().Encode())
}

// RuleKey keys a single rule.
func RuleKey(id string) Key {
	return Key("rules:detail:" + id)
}
