// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package models

// AlertStatus is the analyst workflow state of an alert. Status is the only
// alert field the console ever requests a transition for.
type AlertStatus string

const (
	StatusPending   AlertStatus = "PENDING"
	StatusEscalated AlertStatus = "ESCALATED"
	StatusDismissed AlertStatus = "DISMISSED"
	StatusResolved  AlertStatus = "RESOLVED"
)

// Classification is the backend-assigned severity tier for an alert or rule.
type Classification string

const (
	ClassificationLow    Classification = "LOW"
	ClassificationMedium Classification = "MEDIUM"
	ClassificationHigh   Classification = "HIGH"
)

// Alert links an event to a risk classification and analyst workflow status
// (pipeline layer 5).
type Alert struct {
	ID                 string         `json:"id"`
	EventID            string         `json:"event_id"`
	ProcessedEventID   string         `json:"processed_event_id"`
	NeuralDetectionID  *string        `json:"neural_detection_id"`
	CompositeRiskScore float64        `json:"composite_risk_score"`
	Classification     Classification `json:"classification"`
	AlertCategory      *string        `json:"alert_category"`
	Status             AlertStatus    `json:"status"`
	AssignedTo         *string        `json:"assigned_to"`
	CreatedAt          string         `json:"created_at"`
	UpdatedAt          string         `json:"updated_at"`
}

// AlertDetail is the full alert context returned by GET /alerts/{id}:
// the alert plus its originating event, detection, rule evaluations,
// explanation and recorded decisions.
type AlertDetail struct {
	Alert

	Event           *Event           `json:"event,omitempty"`
	ProcessedEvent  *ProcessedEvent  `json:"processed_event,omitempty"`
	NeuralDetection *NeuralDetection `json:"neural_detection,omitempty"`
	RuleEvaluations []RuleEvaluation `json:"rule_evaluations,omitempty"`
	Explanation     *Explanation     `json:"explanation,omitempty"`
	Decisions       []Decision       `json:"decisions"`
}

// AlertStatusUpdate is the body of PATCH /alerts/{id}/status.
type AlertStatusUpdate struct {
	Status AlertStatus `json:"status"`
}

// Rule is a symbolic detection rule (pipeline layer 4).
type Rule struct {
	RuleID     string                 `json:"rule_id"`
	Name       string                 `json:"name"`
	Category   string                 `json:"category"`
	Conditions map[string]interface{} `json:"conditions"`
	Severity   Classification         `json:"severity"`
	Enabled    bool                   `json:"enabled"`
	CreatedAt  string                 `json:"created_at"`
}

// RuleEvaluation records the outcome of evaluating one rule against a
// processed event.
type RuleEvaluation struct {
	ID               string          `json:"id"`
	ProcessedEventID string          `json:"processed_event_id"`
	RuleID           string          `json:"rule_id"`
	Matched          bool            `json:"matched"`
	Severity         *Classification `json:"severity"`
}
