// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nsa-x/console/internal/models"
	"github.com/nsa-x/console/internal/validation"
)

// sessionResponse is the session snapshot shown to the dashboard.
type sessionResponse struct {
	User            *models.User `json:"user"`
	IsAuthenticated bool         `json:"is_authenticated"`
	IsLoading       bool         `json:"is_loading"`
	Error           string       `json:"error,omitempty"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handlers) sessionState(w http.ResponseWriter, r *http.Request) {
	snap := h.Session.Snapshot()
	writeJSON(w, http.StatusOK, sessionResponse{
		User:            snap.User,
		IsAuthenticated: snap.IsAuthenticated,
		IsLoading:       snap.IsLoading,
		Error:           snap.Error,
	})
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeValidationError(w, verr)
		return
	}

	if err := h.Session.Login(r.Context(), req.Username, req.Password); err != nil {
		// The manager maps failures to their user-facing message; the
		// status only distinguishes bad credentials from everything else.
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	snap := h.Session.Snapshot()
	writeJSON(w, http.StatusOK, sessionResponse{
		User:            snap.User,
		IsAuthenticated: snap.IsAuthenticated,
	})
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.Session.Logout()
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handlers) backendHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.Queries.Health(r.Context())
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, health)
}

func (h *Handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	filters := models.EventFilters{
		Limit:     queryInt(r, "limit"),
		Offset:    queryInt(r, "offset"),
		EventType: r.URL.Query().Get("event_type"),
		StartTime: r.URL.Query().Get("start_time"),
		EndTime:   r.URL.Query().Get("end_time"),
	}
	page, err := h.Queries.Events(r.Context(), filters)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) ingestEvent(w http.ResponseWriter, r *http.Request) {
	var event models.EventCreate
	if !decodeBody(w, r, &event) {
		return
	}
	result, err := h.Queries.IngestEvent(r.Context(), event)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handlers) eventByID(w http.ResponseWriter, r *http.Request) {
	event, err := h.Queries.EventByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *Handlers) processedEvent(w http.ResponseWriter, r *http.Request) {
	processed, err := h.Queries.ProcessedEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, processed)
}

func (h *Handlers) listAlerts(w http.ResponseWriter, r *http.Request) {
	filters := models.AlertFilters{
		Limit:          queryInt(r, "limit"),
		Offset:         queryInt(r, "offset"),
		Status:         models.AlertStatus(r.URL.Query().Get("status")),
		Classification: models.Classification(r.URL.Query().Get("classification")),
	}
	page, err := h.Queries.Alerts(r.Context(), filters)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) pendingAlertCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.Queries.PendingAlertCount(r.Context())
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"pending": count})
}

func (h *Handlers) alertByID(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Queries.AlertByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handlers) updateAlertStatus(w http.ResponseWriter, r *http.Request) {
	var body models.AlertStatusUpdate
	if !decodeBody(w, r, &body) {
		return
	}
	alert, err := h.Queries.UpdateAlertStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (h *Handlers) createDecision(w http.ResponseWriter, r *http.Request) {
	var req models.DecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	// Justification length and action validity are checked here, before
	// any optimistic cache write or network call.
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeValidationError(w, verr)
		return
	}

	decision, err := h.Queries.CreateDecision(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, decision)
}

func (h *Handlers) listAudit(w http.ResponseWriter, r *http.Request) {
	filters := models.AuditFilters{
		Limit:      queryInt(r, "limit"),
		Offset:     queryInt(r, "offset"),
		EntityType: r.URL.Query().Get("entity_type"),
		EntityID:   r.URL.Query().Get("entity_id"),
		UserID:     r.URL.Query().Get("user_id"),
	}
	page, err := h.Queries.Audit(r.Context(), filters)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Queries.Rules(r.Context())
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *Handlers) ruleByID(w http.ResponseWriter, r *http.Request) {
	rule, err := h.Queries.RuleByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func queryInt(r *http.Request, key string) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
