// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package models

// DecisionAction is the action an analyst records on an alert.
type DecisionAction string

const (
	ActionEscalate DecisionAction = "ESCALATE"
	ActionDismiss  DecisionAction = "DISMISS"
	ActionMarkSafe DecisionAction = "MARK_SAFE"
	ActionWatch    DecisionAction = "WATCH"
)

// MinJustificationLen is the minimum length of a decision justification,
// enforced console-side before submission.
const MinJustificationLen = 10

// DecisionRequest is the body of POST /alerts/{id}/decisions.
type DecisionRequest struct {
	Action           DecisionAction `json:"action" validate:"required,oneof=ESCALATE DISMISS MARK_SAFE WATCH"`
	Justification    string         `json:"justification" validate:"required,min=10"`
	FollowUpRequired bool           `json:"follow_up_required,omitempty"`
	FollowUpHours    int            `json:"follow_up_hours,omitempty" validate:"omitempty,min=1,max=720"`
}

// Decision is an analyst decision recorded against an alert. Decisions are
// immutable once accepted by the backend; the console additionally creates
// transient optimistic copies with a "temp-" prefixed id until the server
// response reconciles them.
type Decision struct {
	ID                string         `json:"id"`
	AlertID           string         `json:"alert_id"`
	AnalystID         string         `json:"analyst_id"`
	Action            DecisionAction `json:"action"`
	Justification     string         `json:"justification"`
	FollowUpRequired  bool           `json:"follow_up_required"`
	FollowUpDeadline  *string        `json:"follow_up_deadline"`
	DecisionTimestamp string         `json:"decision_timestamp"`
	IPAddress         *string        `json:"ip_address"`
	UserAgent         *string        `json:"user_agent"`
}

// StatusForAction maps a decision action to the alert status it implies.
// The mapping is total: unrecognized actions resolve to PENDING.
func StatusForAction(action DecisionAction) AlertStatus {
	switch action {
	case ActionEscalate:
		return StatusEscalated
	case ActionDismiss:
		return StatusResolved
	case ActionMarkSafe:
		return StatusDismissed
	case ActionWatch:
		return StatusPending
	default:
		return StatusPending
	}
}
