// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package models

// Event is a raw security event ingested by the backend (pipeline layer 1).
type Event struct {
	ID         string                 `json:"id"`
	Timestamp  string                 `json:"timestamp"`
	SourceIP   string                 `json:"source_ip"`
	DestIP     string                 `json:"dest_ip"`
	SourcePort *int                   `json:"source_port"`
	DestPort   *int                   `json:"dest_port"`
	Protocol   string                 `json:"protocol"`
	EventType  string                 `json:"event_type"`
	RawData    map[string]interface{} `json:"raw_data"`
	CreatedAt  string                 `json:"created_at"`
}

// EventCreate is the body of POST /events; submitting one runs the full
// detection pipeline synchronously and returns a PipelineResult.
type EventCreate struct {
	EventType string                 `json:"event_type"`
	SourceIP  string                 `json:"source_ip"`
	DestIP    string                 `json:"dest_ip"`
	DestPort  int                    `json:"dest_port"`
	Protocol  string                 `json:"protocol"`
	Timestamp string                 `json:"timestamp"`
	RawData   map[string]interface{} `json:"raw_data"`
}

// ParsedNetwork, ParsedTemporal and ParsedAsset are the normalized field
// groups attached to a ProcessedEvent (pipeline layer 2).
type ParsedNetwork struct {
	Source      ParsedEndpoint `json:"source"`
	Destination ParsedEndpoint `json:"destination"`
	Protocol    string         `json:"protocol"`
}

type ParsedEndpoint struct {
	IP   string `json:"ip"`
	Port *int   `json:"port"`
}

type ParsedTemporal struct {
	Timestamp       string `json:"timestamp"`
	HourOfDay       int    `json:"hour_of_day"`
	DayOfWeek       int    `json:"day_of_week"`
	IsBusinessHours bool   `json:"is_business_hours"`
}

type ParsedAsset struct {
	Hostname    string  `json:"hostname"`
	Criticality float64 `json:"criticality"`
}

// ParsedFields groups the normalized projections of a processed event.
type ParsedFields struct {
	Network  ParsedNetwork  `json:"network"`
	Temporal ParsedTemporal `json:"temporal"`
	Asset    ParsedAsset    `json:"asset"`
}

// ProcessedEvent is the normalized form of an Event.
type ProcessedEvent struct {
	ID                   string       `json:"id"`
	EventID              string       `json:"event_id"`
	ParsedFields         ParsedFields `json:"parsed_fields"`
	AssetHostname        string       `json:"asset_hostname"`
	AssetCriticality     float64      `json:"asset_criticality"`
	EventHash            string       `json:"event_hash"`
	ProcessingTimestamp  string       `json:"processing_timestamp"`
	ProcessingDurationMS float64      `json:"processing_duration_ms"`
}

// NeuralDetection holds the anomaly scores produced for a processed event
// (pipeline layer 3).
type NeuralDetection struct {
	ID                 string  `json:"id"`
	ProcessedEventID   string  `json:"processed_event_id"`
	AnomalyScore       float64 `json:"anomaly_score"`
	FrequencyScore     float64 `json:"frequency_score"`
	PortScore          float64 `json:"port_score"`
	TemporalScore      float64 `json:"temporal_score"`
	GeographicScore    float64 `json:"geographic_score"`
	DetectionTimestamp string  `json:"detection_timestamp"`
	ModelVersion       string  `json:"model_version"`
}

// PipelineResult summarizes a synchronous pipeline run triggered by event
// ingestion.
type PipelineResult struct {
	EventID          string          `json:"event_id"`
	ProcessedEventID *string         `json:"processed_event_id"`
	AnomalyScore     *float64        `json:"anomaly_score"`
	RulesMatched     []string        `json:"rules_matched"`
	AlertID          *string         `json:"alert_id"`
	ExplanationID    *string         `json:"explanation_id"`
	RiskScore        *float64        `json:"risk_score"`
	Classification   *Classification `json:"classification"`
	ProcessingTimeMS *float64        `json:"processing_time_ms"`
	Status           string          `json:"status"`
	Message          *string         `json:"message"`
}
