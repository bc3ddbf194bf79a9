// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

// Package models defines the transport types mirrored from the NSA-X backend
// API. Every type here is an advisory, read-mostly projection owned by the
// backend; the console holds copies in its in-memory query cache and never
// persists them.
//
// Field names and JSON tags follow the backend schema exactly (snake_case).
// Serialization uses goccy/go-json throughout the codebase; the struct tags
// are standard encoding/json tags, so both libraries decode them identically.
package models
