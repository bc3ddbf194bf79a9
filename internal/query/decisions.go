// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package query

import (
	"context"
	"strings"
	"time"

	"github.com/nsa-x/console/internal/logging"
	"github.com/nsa-x/console/internal/metrics"
	"github.com/nsa-x/console/internal/models"
	"github.com/nsa-x/console/internal/notify"
	"github.com/nsa-x/console/internal/nsax"
)

// tempIDPrefix marks decisions that exist only in the optimistic cache
// entry. Server-reconciled decisions never carry it.
const tempIDPrefix = "temp-"

// optimisticAnalystID stands in for the submitting analyst until the server
// response carries the real id.
const optimisticAnalystID = "current-user"

// CreateDecision records an analyst decision with an optimistic cache
// update.
//
// The cached alert detail is patched immediately: a synthetic decision is
// appended and the alert status jumps to what the action implies, so the
// dashboard reflects the decision before the server confirms it. On server
// failure the exact pre-mutation entry is restored and a failure notice is
// published. The list pages are invalidated on settlement either way; the
// detail entry only on success, so the synthetic decision is replaced by
// the server-assigned record on the next read.
//
// Justification length and action validity are the caller's to check (see
// internal/validation); the mutation submits what it is given.
func (m *Manager) CreateDecision(ctx context.Context, alertID string, req models.DecisionRequest) (*models.Decision, error) {
	if alertID == "" {
		return nil, ErrEmptyID
	}
	key := AlertDetailKey(alertID)

	// Snapshot for rollback. Entries are immutable once cached, so holding
	// the old pointer is enough to restore the pre-mutation bytes.
	previous, hadPrevious := m.cache.Get(key)
	if hadPrevious {
		m.cache.Set(key, m.optimisticDetail(previous.(*models.AlertDetail), alertID, req))
	}

	decision, err := m.client.CreateDecision(ctx, alertID, req)

	if err != nil {
		// Restore the exact pre-mutation entry. It was the last
		// server-confirmed state and no decision was recorded, so it stays
		// cached; only the list pages are dropped.
		if hadPrevious {
			m.cache.Set(key, previous)
			metrics.DecisionRollbacks.Inc()
		}
		metrics.DecisionsSubmitted.WithLabelValues(string(req.Action), "failure").Inc()
		logging.Warn().Err(err).Str("alert_id", alertID).Str("action", string(req.Action)).
			Msg("Decision submission failed")
		m.notify(notify.Notice{
			Level:   notify.LevelError,
			Title:   "Failed to submit decision",
			Message: decisionErrorMessage(err),
		})
		m.cache.InvalidatePrefix(AlertListPrefix)
		return nil, err
	}

	metrics.DecisionsSubmitted.WithLabelValues(string(req.Action), "success").Inc()
	logging.Info().Str("alert_id", alertID).Str("action", string(req.Action)).
		Msg("Decision recorded")
	m.notify(notify.Notice{
		Level:   notify.LevelSuccess,
		Title:   "Decision recorded",
		Message: "Alert " + actionMessage(decision.Action) + " successfully.",
	})

	// The optimistic entry carries a synthetic decision; drop it so the
	// next read reconciles with the server-assigned record.
	m.cache.Invalidate(key)
	m.cache.InvalidatePrefix(AlertListPrefix)
	return decision, nil
}

// optimisticDetail builds the patched alert detail shown until the server
// settles the decision.
func (m *Manager) optimisticDetail(previous *models.AlertDetail, alertID string, req models.DecisionRequest) *models.AlertDetail {
	now := m.now().UTC()

	var deadline *string
	if req.FollowUpHours > 0 {
		d := now.Add(time.Duration(req.FollowUpHours) * time.Hour).Format(time.RFC3339)
		deadline = &d
	}

	synthetic := models.Decision{
		ID:                tempIDPrefix + m.newID(),
		AlertID:           alertID,
		AnalystID:         optimisticAnalystID,
		Action:            req.Action,
		Justification:     req.Justification,
		FollowUpRequired:  req.FollowUpRequired,
		FollowUpDeadline:  deadline,
		DecisionTimestamp: now.Format(time.RFC3339),
	}

	detail := *previous
	detail.Status = models.StatusForAction(req.Action)
	detail.Decisions = append(append([]models.Decision{}, previous.Decisions...), synthetic)
	return &detail
}

func (m *Manager) notify(n notify.Notice) {
	if m.bus != nil {
		m.bus.PublishNotice(n)
	}
}

func actionMessage(action models.DecisionAction) string {
	switch action {
	case models.ActionEscalate:
		return "escalated"
	case models.ActionDismiss:
		return "dismissed"
	case models.ActionMarkSafe:
		return "marked as safe"
	case models.ActionWatch:
		return "set to watch"
	default:
		return strings.ToLower(string(action))
	}
}

func decisionErrorMessage(err error) string {
	if apiErr := nsax.AsAPIError(err); apiErr != nil {
		return apiErr.Detail()
	}
	return "An error occurred"
}
