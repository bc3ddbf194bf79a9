// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("component", "test").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"component":"test"`) {
		t.Errorf("expected structured field in output, got %q", out)
	}
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("expected message in output, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if id := CorrelationID(ctx); id != "" {
		t.Errorf("expected empty correlation ID, got %q", id)
	}

	id := NewCorrelationID()
	if len(id) != 8 {
		t.Errorf("correlation ID length = %d, want 8", len(id))
	}

	ctx = WithCorrelationID(ctx, id)
	if got := CorrelationID(ctx); got != id {
		t.Errorf("CorrelationID = %q, want %q", got, id)
	}
}

func TestCtxIncludesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	ctx := WithCorrelationID(context.Background(), "abcd1234")
	l := Ctx(ctx)
	l.Info().Msg("poll cycle")

	if !strings.Contains(buf.String(), `"correlation_id":"abcd1234"`) {
		t.Errorf("expected correlation_id field, got %q", buf.String())
	}
}

func TestSlogHandlerForwardsToZerolog(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	logger := slog.New(NewSlogHandler())
	logger.With("service", "poller").WithGroup("suture").Info("service started", "restarts", int64(2))

	out := buf.String()
	if !strings.Contains(out, `"service":"poller"`) {
		t.Errorf("expected attr from With, got %q", out)
	}
	if !strings.Contains(out, `"suture.restarts":2`) {
		t.Errorf("expected grouped attr, got %q", out)
	}
	if !strings.Contains(out, `"message":"service started"`) {
		t.Errorf("expected message, got %q", out)
	}
}
