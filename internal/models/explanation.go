// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package models

// ExplanationNode is one node of the explanation tree rendered for an alert
// (pipeline layer 6). The shape is recursive and deliberately loose: the
// backend emits different field subsets per node type.
type ExplanationNode struct {
	Type               string            `json:"type"`
	Classification     *Classification   `json:"classification,omitempty"`
	CompositeRiskScore *float64          `json:"composite_risk_score,omitempty"`
	AnomalyScore       *float64          `json:"anomaly_score,omitempty"`
	RulesMatched       *int              `json:"rules_matched,omitempty"`
	Name               *string           `json:"name,omitempty"`
	Score              *float64          `json:"score,omitempty"`
	RuleID             *string           `json:"rule_id,omitempty"`
	Severity           *Classification   `json:"severity,omitempty"`
	Children           []ExplanationNode `json:"children,omitempty"`
}

// ExplanationTree wraps the root node of an explanation tree.
type ExplanationTree struct {
	Root ExplanationNode `json:"root"`
}

// Counterfactual describes a condition under which the alert's risk would
// have been materially lower.
type Counterfactual struct {
	Type               string  `json:"type"`
	Condition          string  `json:"condition"`
	Impact             string  `json:"impact"`
	PotentialReduction float64 `json:"potential_reduction"`
}

// EvidenceFactor is one weighted factor contributing to a detection.
type EvidenceFactor struct {
	Type   string   `json:"type"`
	Factor string   `json:"factor"`
	Weight string   `json:"weight"`
	Detail string   `json:"detail"`
	Score  *float64 `json:"score"`
}

// RuleTriggered summarizes one matched rule inside an explanation.
type RuleTriggered struct {
	RuleID     string         `json:"rule_id"`
	Name       string         `json:"name"`
	Severity   Classification `json:"severity"`
	WhyMatched string         `json:"why_matched"`
}

// ExplanationData is the structured explanation payload attached to an alert.
type ExplanationData struct {
	Tree              *ExplanationTree            `json:"tree,omitempty"`
	Summary           *string                     `json:"summary,omitempty"`
	NaturalLanguage   *string                     `json:"natural_language,omitempty"`
	RiskAssessment    map[string]interface{}      `json:"risk_assessment,omitempty"`
	Evidence          map[string][]EvidenceFactor `json:"evidence,omitempty"`
	RulesTriggered    []RuleTriggered             `json:"rules_triggered,omitempty"`
	HistoricalContext map[string]interface{}      `json:"historical_context,omitempty"`
	Counterfactuals   []Counterfactual            `json:"counterfactuals,omitempty"`
}

// Explanation is the generated explanation record for an alert.
type Explanation struct {
	ID                   string          `json:"id"`
	AlertID              string          `json:"alert_id"`
	ExplanationData      ExplanationData `json:"explanation_data"`
	GeneratedAt          string          `json:"generated_at"`
	GenerationDurationMS *float64        `json:"generation_duration_ms"`
}
