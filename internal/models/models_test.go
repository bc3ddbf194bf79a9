// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestStatusForAction(t *testing.T) {
	tests := []struct {
		name   string
		action DecisionAction
		want   AlertStatus
	}{
		{"escalate", ActionEscalate, StatusEscalated},
		{"dismiss", ActionDismiss, StatusResolved},
		{"mark safe", ActionMarkSafe, StatusDismissed},
		{"watch", ActionWatch, StatusPending},
		{"unknown action defaults to pending", DecisionAction("PURGE"), StatusPending},
		{"empty action defaults to pending", DecisionAction(""), StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusForAction(tt.action); got != tt.want {
				t.Errorf("StatusForAction(%q) = %q, want %q", tt.action, got, tt.want)
			}
		})
	}
}

func TestAuditEntryActorClass(t *testing.T) {
	tests := []struct {
		name  string
		actor string
		want  ActorClass
	}{
		{"pipeline actor", "system", ActorSystem},
		{"namespaced pipeline actor", "system:rule-engine", ActorSystem},
		{"admin account", "admin", ActorAdmin},
		{"named admin account", "site-admin", ActorAdmin},
		{"mixed case admin", "Admin", ActorAdmin},
		{"plain analyst", "jmurphy", ActorAnalyst},
		{"empty actor treated as analyst", "", ActorAnalyst},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &AuditEntry{Actor: tt.actor}
			if got := e.ActorClass(); got != tt.want {
				t.Errorf("ActorClass(%q) = %q, want %q", tt.actor, got, tt.want)
			}
		})
	}
}

func TestEventFiltersValues(t *testing.T) {
	f := EventFilters{Limit: 20, Offset: 40, EventType: "ssh_login"}
	v := f.Values()

	if got := v.Get("limit"); got != "20" {
		t.Errorf("limit = %q, want %q", got, "20")
	}
	if got := v.Get("offset"); got != "40" {
		t.Errorf("offset = %q, want %q", got, "40")
	}
	if got := v.Get("event_type"); got != "ssh_login" {
		t.Errorf("event_type = %q, want %q", got, "ssh_login")
	}

	// Absent optional filters must be omitted entirely, not sent empty.
	if _, present := v["start_time"]; present {
		t.Error("start_time should be omitted when unset")
	}
	if _, present := v["end_time"]; present {
		t.Error("end_time should be omitted when unset")
	}
}

func TestAlertFiltersValues(t *testing.T) {
	f := AlertFilters{Limit: 1, Status: StatusPending}
	v := f.Values()

	if got := v.Encode(); got != "limit=1&offset=0&status=PENDING" {
		t.Errorf("unexpected query encoding: %q", got)
	}
}

func TestAlertDetailRoundTrip(t *testing.T) {
	payload := `{
		"id": "alert-1",
		"event_id": "evt-1",
		"processed_event_id": "pe-1",
		"neural_detection_id": null,
		"composite_risk_score": 87.5,
		"classification": "HIGH",
		"alert_category": "lateral_movement",
		"status": "PENDING",
		"assigned_to": null,
		"created_at": "2026-02-01T10:00:00Z",
		"updated_at": "2026-02-01T10:00:00Z",
		"decisions": [
			{
				"id": "dec-1",
				"alert_id": "alert-1",
				"analyst_id": "user-1",
				"action": "WATCH",
				"justification": "Monitoring for repeat callbacks",
				"follow_up_required": true,
				"follow_up_deadline": "2026-02-02T10:00:00Z",
				"decision_timestamp": "2026-02-01T11:00:00Z",
				"ip_address": null,
				"user_agent": null
			}
		]
	}`

	var detail AlertDetail
	if err := json.Unmarshal([]byte(payload), &detail); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if detail.ID != "alert-1" {
		t.Errorf("ID = %q, want %q", detail.ID, "alert-1")
	}
	if detail.Classification != ClassificationHigh {
		t.Errorf("Classification = %q, want %q", detail.Classification, ClassificationHigh)
	}
	if detail.NeuralDetectionID != nil {
		t.Errorf("NeuralDetectionID should be nil, got %q", *detail.NeuralDetectionID)
	}
	if len(detail.Decisions) != 1 {
		t.Fatalf("decisions = %d, want 1", len(detail.Decisions))
	}
	if detail.Decisions[0].Action != ActionWatch {
		t.Errorf("decision action = %q, want %q", detail.Decisions[0].Action, ActionWatch)
	}
	if detail.Decisions[0].FollowUpDeadline == nil {
		t.Error("follow_up_deadline should be set")
	}
}
