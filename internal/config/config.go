// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

// Package config provides configuration management for the console.
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority
// wins): environment variables, an optional YAML config file, then built-in
// defaults. See Load in koanf.go.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the root configuration for the console daemon.
type Config struct {
	Backend BackendConfig `koanf:"backend"`
	Session SessionConfig `koanf:"session"`
	Polling PollingConfig `koanf:"polling"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
}

// BackendConfig describes the NSA-X backend API the console talks to.
type BackendConfig struct {
	// URL is the backend base URL, e.g. http://localhost:8000.
	// The /api/v1 prefix is appended per request.
	URL string `koanf:"url"`

	// Timeout bounds each outbound HTTP request.
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit caps outbound requests per second; 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the limiter burst size when RateLimit is set.
	RateBurst int `koanf:"rate_burst"`
}

// SessionConfig controls token persistence.
type SessionConfig struct {
	// TokenFile is the path of the durable token store.
	TokenFile string `koanf:"token_file"`

	// Secret seals tokens at rest (AES-256-GCM with an HKDF-derived key).
	// Empty means tokens are stored unsealed; the file is still chmod 0600.
	Secret string `koanf:"secret"`
}

// PollingConfig controls the cache refresh loops.
type PollingConfig struct {
	// Interval is the fixed re-fetch period for live resource lists
	// (events, alerts, audit, health).
	Interval time.Duration `koanf:"interval"`

	// PageSize is the default list page size when a subscriber does not
	// specify a limit.
	PageSize int `koanf:"page_size"`

	// AuditPageSize is the default page size for the audit trail, which is
	// denser than the other lists.
	AuditPageSize int `koanf:"audit_page_size"`
}

// ServerConfig describes the local dashboard HTTP server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists allowed origins for the browser UI.
	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Default returns the built-in defaults applied before file and env layers.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:       "http://localhost:8000",
			Timeout:   30 * time.Second,
			RateLimit: 50,
			RateBurst: 25,
		},
		Session: SessionConfig{
			TokenFile: "/data/nsax/tokens.json",
			Secret:    "",
		},
		Polling: PollingConfig{
			Interval:      5 * time.Second,
			PageSize:      20,
			AuditPageSize: 50,
		},
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        3117,
			Timeout:     30 * time.Second,
			CORSOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for values that would misbehave at
// runtime rather than fail fast.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.url %q is not an absolute URL", c.Backend.URL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive, got %s", c.Backend.Timeout)
	}
	if c.Backend.RateLimit < 0 {
		return fmt.Errorf("backend.rate_limit must not be negative, got %f", c.Backend.RateLimit)
	}
	if c.Session.TokenFile == "" {
		return fmt.Errorf("session.token_file must not be empty")
	}
	if c.Polling.Interval < time.Second {
		return fmt.Errorf("polling.interval must be at least 1s, got %s", c.Polling.Interval)
	}
	if c.Polling.PageSize <= 0 || c.Polling.AuditPageSize <= 0 {
		return fmt.Errorf("polling page sizes must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}
