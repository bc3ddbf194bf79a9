// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package models

import "strings"

// ActorClass buckets audit actors for display. The backend only reports the
// actor name; the class is derived console-side.
type ActorClass string

const (
	ActorSystem  ActorClass = "system"
	ActorAnalyst ActorClass = "analyst"
	ActorAdmin   ActorClass = "admin"
)

// AuditEntry is one append-only audit trail record from GET /audit.
type AuditEntry struct {
	ID           string                 `json:"id"`
	EventType    string                 `json:"event_type"`
	Actor        string                 `json:"actor"`
	Action       string                 `json:"action"`
	ResourceType *string                `json:"resource_type"`
	ResourceID   *string                `json:"resource_id"`
	Result       string                 `json:"result"`
	Metadata     map[string]interface{} `json:"metadata"`
	Timestamp    string                 `json:"timestamp"`
	IPAddress    *string                `json:"ip_address"`
}

// ActorClass derives the display bucket from the actor name: the pipeline
// writes entries as "system", administrative accounts carry an "admin"
// marker, and everything else is an analyst.
func (e *AuditEntry) ActorClass() ActorClass {
	actor := strings.ToLower(e.Actor)
	switch {
	case actor == "system" || strings.HasPrefix(actor, "system:"):
		return ActorSystem
	case strings.Contains(actor, "admin"):
		return ActorAdmin
	default:
		return ActorAnalyst
	}
}
