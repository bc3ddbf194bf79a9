// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package models

// HealthMetrics carries the optional operational counters embedded in a
// health response.
type HealthMetrics struct {
	Database           *string  `json:"database,omitempty"`
	UptimeSeconds      *float64 `json:"uptime_seconds,omitempty"`
	EventsProcessed24h *int64   `json:"events_processed_24h,omitempty"`
	AlertsPending      *int64   `json:"alerts_pending,omitempty"`
}

// Health is the payload of GET /system/health. The endpoint requires no
// authentication so the status bar keeps working before login.
type Health struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Version   *string        `json:"version,omitempty"`
	Metrics   *HealthMetrics `json:"metrics,omitempty"`
}
