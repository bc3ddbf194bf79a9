// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package models

import (
	"net/url"
	"strconv"
)

// List filters serialize to backend query parameters. Limit and offset are
// always sent (zero limits are replaced with the resource default by the
// caller); optional fields are omitted when unset, never sent as empty
// strings.

// EventFilters narrows GET /events.
type EventFilters struct {
	Limit     int
	Offset    int
	EventType string
	StartTime string
	EndTime   string
}

// Values serializes the filters as URL query parameters.
func (f EventFilters) Values() url.Values {
	v := pageValues(f.Limit, f.Offset)
	setNonEmpty(v, "event_type", f.EventType)
	setNonEmpty(v, "start_time", f.StartTime)
	setNonEmpty(v, "end_time", f.EndTime)
	return v
}

// AlertFilters narrows GET /alerts.
type AlertFilters struct {
	Limit          int
	Offset         int
	Status         AlertStatus
	Classification Classification
}

// Values serializes the filters as URL query parameters.
func (f AlertFilters) Values() url.Values {
	v := pageValues(f.Limit, f.Offset)
	setNonEmpty(v, "status", string(f.Status))
	setNonEmpty(v, "classification", string(f.Classification))
	return v
}

// AuditFilters narrows GET /audit.
type AuditFilters struct {
	Limit      int
	Offset     int
	EntityType string
	EntityID   string
	UserID     string
}

// Values serializes the filters as URL query parameters.
func (f AuditFilters) Values() url.Values {
	v := pageValues(f.Limit, f.Offset)
	setNonEmpty(v, "entity_type", f.EntityType)
	setNonEmpty(v, "entity_id", f.EntityID)
	setNonEmpty(v, "user_id", f.UserID)
	return v
}

func pageValues(limit, offset int) url.Values {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(limit))
	v.Set("offset", strconv.Itoa(offset))
	return v
}

func setNonEmpty(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
