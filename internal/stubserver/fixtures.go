// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package stubserver

import (
	"fmt"
	"time"

	"github.com/nsa-x/console/internal/models"
)

func ptr[T any](v T) *T { return &v }

// seed populates the in-memory fixture set: a handful of events, two of
// which escalated into alerts, plus the rule catalog and an audit trail.
func (s *Server) seed() {
	base := time.Now().UTC().Add(-2 * time.Hour)
	ts := func(offset time.Duration) string {
		return base.Add(offset).Format(time.RFC3339)
	}

	for i := 0; i < 6; i++ {
		s.events = append(s.events, models.Event{
			ID:         fmt.Sprintf("evt-%04d", i+1),
			Timestamp:  ts(time.Duration(i) * 10 * time.Minute),
			SourceIP:   fmt.Sprintf("10.0.0.%d", 10+i),
			DestIP:     "198.51.100.7",
			SourcePort: ptr(49152 + i),
			DestPort:   ptr(443),
			Protocol:   "tcp",
			EventType:  "network_connection",
			RawData:    map[string]interface{}{"bytes_out": 1024 * (i + 1)},
			CreatedAt:  ts(time.Duration(i) * 10 * time.Minute),
		})
	}

	s.processed = make(map[string]*models.ProcessedEvent)
	for i, evt := range s.events[:2] {
		pe := &models.ProcessedEvent{
			ID:      fmt.Sprintf("pe-%04d", i+1),
			EventID: evt.ID,
			ParsedFields: models.ParsedFields{
				Network: models.ParsedNetwork{
					Source:      models.ParsedEndpoint{IP: evt.SourceIP, Port: evt.SourcePort},
					Destination: models.ParsedEndpoint{IP: evt.DestIP, Port: evt.DestPort},
					Protocol:    evt.Protocol,
				},
				Temporal: models.ParsedTemporal{
					Timestamp:       evt.Timestamp,
					HourOfDay:       3,
					DayOfWeek:       2,
					IsBusinessHours: false,
				},
				Asset: models.ParsedAsset{Hostname: "ws-finance-12", Criticality: 0.8},
			},
			AssetHostname:        "ws-finance-12",
			AssetCriticality:     0.8,
			EventHash:            fmt.Sprintf("hash-%04d", i+1),
			ProcessingTimestamp:  evt.CreatedAt,
			ProcessingDurationMS: 4.2,
		}
		s.processed[evt.ID] = pe
	}

	s.alerts = []*models.AlertDetail{
		{
			Alert: models.Alert{
				ID:                 "alert-0001",
				EventID:            "evt-0001",
				ProcessedEventID:   "pe-0001",
				CompositeRiskScore: 0.91,
				Classification:     models.ClassificationHigh,
				AlertCategory:      ptr("beaconing"),
				Status:             models.StatusPending,
				CreatedAt:          ts(15 * time.Minute),
				UpdatedAt:          ts(15 * time.Minute),
			},
			Event:          &s.events[0],
			ProcessedEvent: s.processed["evt-0001"],
			Decisions:      []models.Decision{},
		},
		{
			Alert: models.Alert{
				ID:                 "alert-0002",
				EventID:            "evt-0002",
				ProcessedEventID:   "pe-0002",
				CompositeRiskScore: 0.44,
				Classification:     models.ClassificationMedium,
				AlertCategory:      ptr("off-hours-access"),
				Status:             models.StatusPending,
				CreatedAt:          ts(25 * time.Minute),
				UpdatedAt:          ts(25 * time.Minute),
			},
			Event:          &s.events[1],
			ProcessedEvent: s.processed["evt-0002"],
			Decisions:      []models.Decision{},
		},
	}

	s.rules = []models.Rule{
		{
			RuleID:     "rule-beaconing",
			Name:       "Periodic outbound beaconing",
			Category:   "c2",
			Conditions: map[string]interface{}{"interval_stddev_max": 0.1},
			Severity:   models.ClassificationHigh,
			Enabled:    true,
			CreatedAt:  ts(0),
		},
		{
			RuleID:     "rule-off-hours",
			Name:       "Off-hours asset access",
			Category:   "access",
			Conditions: map[string]interface{}{"business_hours": false},
			Severity:   models.ClassificationMedium,
			Enabled:    true,
			CreatedAt:  ts(0),
		},
	}

	s.audit = []models.AuditEntry{
		{
			ID:           "audit-0001",
			EventType:    "alert.created",
			Actor:        "system",
			Action:       "create",
			ResourceType: ptr("alert"),
			ResourceID:   ptr("alert-0001"),
			Result:       "success",
			Timestamp:    ts(15 * time.Minute),
		},
	}
}

// appendAudit records a mutation in the audit trail. Callers must hold s.mu.
func (s *Server) appendAudit(eventType, actor, action, resourceType, resourceID string) {
	s.audit = append(s.audit, models.AuditEntry{
		ID:           fmt.Sprintf("audit-%04d", len(s.audit)+1),
		EventType:    eventType,
		Actor:        actor,
		Action:       action,
		ResourceType: ptr(resourceType),
		ResourceID:   ptr(resourceID),
		Result:       "success",
		Timestamp:    now(),
	})
}
