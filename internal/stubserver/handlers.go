// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package stubserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/nsa-x/console/internal/models"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 20)
	eventType := r.URL.Query().Get("event_type")

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Event, 0, len(s.events))
	for _, evt := range s.events {
		if eventType != "" && evt.EventType != eventType {
			continue
		}
		matched = append(matched, evt)
	}
	respond(w, http.StatusOK, slice(matched, limit, offset))
}

func (s *Server) handleEventByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.events {
		if s.events[i].ID == id {
			respond(w, http.StatusOK, s.events[i])
			return
		}
	}
	fail(w, http.StatusNotFound, "Event not found")
}

func (s *Server) handleProcessedEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	defer s.mu.RUnlock()

	if pe, ok := s.processed[id]; ok {
		respond(w, http.StatusOK, pe)
		return
	}
	fail(w, http.StatusNotFound, "Event has not been processed")
}

// handleIngestEvent accepts an event and pretends to run the pipeline,
// returning a completed PipelineResult without generating an alert.
func (s *Server) handleIngestEvent(w http.ResponseWriter, r *http.Request) {
	var create models.EventCreate
	if err := json.NewDecoder(r.Body).Decode(&create); err != nil {
		fail(w, http.StatusBadRequest, "invalid event body")
		return
	}
	if create.EventType == "" || create.SourceIP == "" {
		fail(w, http.StatusUnprocessableEntity, "event_type and source_ip are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	timestamp := create.Timestamp
	if timestamp == "" {
		timestamp = now()
	}
	event := models.Event{
		ID:        "evt-" + uuid.NewString(),
		Timestamp: timestamp,
		SourceIP:  create.SourceIP,
		DestIP:    create.DestIP,
		DestPort:  &create.DestPort,
		Protocol:  create.Protocol,
		EventType: create.EventType,
		RawData:   create.RawData,
		CreatedAt: now(),
	}
	s.events = append(s.events, event)
	s.appendAudit("event.ingested", usernameFrom(r.Context()), "create", "event", event.ID)

	score := 0.12
	respond(w, http.StatusCreated, models.PipelineResult{
		EventID:          event.ID,
		AnomalyScore:     &score,
		RulesMatched:     []string{},
		Status:           "completed",
		ProcessingTimeMS: ptr(3.1),
	})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 20)
	status := r.URL.Query().Get("status")
	classification := r.URL.Query().Get("classification")

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Alert, 0, len(s.alerts))
	for _, detail := range s.alerts {
		if status != "" && string(detail.Status) != status {
			continue
		}
		if classification != "" && string(detail.Classification) != classification {
			continue
		}
		matched = append(matched, detail.Alert)
	}
	respond(w, http.StatusOK, slice(matched, limit, offset))
}

func (s *Server) handleAlertByID(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if detail := s.findAlert(chi.URLParam(r, "id")); detail != nil {
		respond(w, http.StatusOK, detail)
		return
	}
	fail(w, http.StatusNotFound, "Alert not found")
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var update models.AlertStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		fail(w, http.StatusBadRequest, "invalid status body")
		return
	}
	switch update.Status {
	case models.StatusPending, models.StatusEscalated, models.StatusDismissed, models.StatusResolved:
	default:
		fail(w, http.StatusUnprocessableEntity, "unknown status")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	detail := s.findAlert(chi.URLParam(r, "id"))
	if detail == nil {
		fail(w, http.StatusNotFound, "Alert not found")
		return
	}

	detail.Status = update.Status
	detail.UpdatedAt = now()
	s.appendAudit("alert.status_changed", usernameFrom(r.Context()), "update", "alert", detail.ID)
	respond(w, http.StatusOK, detail.Alert)
}

func (s *Server) handleCreateDecision(w http.ResponseWriter, r *http.Request) {
	var req models.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid decision body")
		return
	}
	if len(req.Justification) < models.MinJustificationLen {
		fail(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("justification must be at least %d characters", models.MinJustificationLen))
		return
	}
	switch req.Action {
	case models.ActionEscalate, models.ActionDismiss, models.ActionMarkSafe, models.ActionWatch:
	default:
		fail(w, http.StatusUnprocessableEntity, "unknown action")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	detail := s.findAlert(chi.URLParam(r, "id"))
	if detail == nil {
		fail(w, http.StatusNotFound, "Alert not found")
		return
	}

	analyst := usernameFrom(r.Context())
	decision := models.Decision{
		ID:                "dec-" + uuid.NewString(),
		AlertID:           detail.ID,
		AnalystID:         analyst,
		Action:            req.Action,
		Justification:     req.Justification,
		FollowUpRequired:  req.FollowUpRequired,
		DecisionTimestamp: now(),
	}
	if req.FollowUpRequired && req.FollowUpHours > 0 {
		deadline := time.Now().UTC().
			Add(time.Duration(req.FollowUpHours) * time.Hour).
			Format(time.RFC3339)
		decision.FollowUpDeadline = &deadline
	}

	detail.Decisions = append(detail.Decisions, decision)
	detail.Status = models.StatusForAction(req.Action)
	detail.UpdatedAt = now()
	s.appendAudit("decision.recorded", analyst, "create", "decision", decision.ID)

	respond(w, http.StatusCreated, decision)
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 50)
	entityType := r.URL.Query().Get("entity_type")
	entityID := r.URL.Query().Get("entity_id")
	userID := r.URL.Query().Get("user_id")

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.AuditEntry, 0, len(s.audit))
	for _, entry := range s.audit {
		if entityType != "" && (entry.ResourceType == nil || *entry.ResourceType != entityType) {
			continue
		}
		if entityID != "" && (entry.ResourceID == nil || *entry.ResourceID != entityID) {
			continue
		}
		if userID != "" && entry.Actor != userID {
			continue
		}
		matched = append(matched, entry)
	}
	respond(w, http.StatusOK, slice(matched, limit, offset))
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	respond(w, http.StatusOK, s.rules)
}

func (s *Server) handleRuleByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.rules {
		if s.rules[i].RuleID == id {
			respond(w, http.StatusOK, s.rules[i])
			return
		}
	}
	fail(w, http.StatusNotFound, "Rule not found")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	pending := int64(0)
	for _, detail := range s.alerts {
		if detail.Status == models.StatusPending {
			pending++
		}
	}
	events := int64(len(s.events))
	s.mu.RUnlock()

	uptime := time.Since(s.startedAt).Seconds()
	respond(w, http.StatusOK, models.Health{
		Status:    "healthy",
		Timestamp: now(),
		Version:   ptr("stub"),
		Metrics: &models.HealthMetrics{
			Database:           ptr("in-memory"),
			UptimeSeconds:      &uptime,
			EventsProcessed24h: &events,
			AlertsPending:      &pending,
		},
	})
}

// findAlert returns the alert with the given id. Callers must hold s.mu.
func (s *Server) findAlert(id string) *models.AlertDetail {
	for _, detail := range s.alerts {
		if detail.ID == id {
			return detail
		}
	}
	return nil
}

func pagination(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}

// slice applies limit/offset paging to a fixture list. The backend returns
// bare arrays, not envelopes, so the stub does too.
func slice[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
