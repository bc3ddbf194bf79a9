// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nsa-x/console/internal/config"
	"github.com/nsa-x/console/internal/models"
	"github.com/nsa-x/console/internal/notify"
	"github.com/nsa-x/console/internal/nsax"
	"github.com/nsa-x/console/internal/query"
	"github.com/nsa-x/console/internal/session"
	"github.com/nsa-x/console/internal/websocket"
)

const (
	testUsername = "analyst1"
	testPassword = "hunter2hunter2"
	testToken    = "ui-test-token"
)

// newPipelineBackend serves the slice of the backend API the UI handlers
// exercise, with static fixtures.
func newPipelineBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.PostFormValue("username") != testUsername || r.PostFormValue("password") != testPassword {
			http.Error(w, `{"detail":"invalid credentials"}`, http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(models.TokenResponse{AccessToken: testToken, TokenType: "bearer"})
	})
	mux.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			http.Error(w, `{"detail":"not authenticated"}`, http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(models.User{ID: "u-1", Username: testUsername, Role: "analyst"})
	})
	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"refresh disabled"}`, http.StatusUnauthorized)
	})
	mux.HandleFunc("GET /api/v1/alerts", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Alert{
			{ID: "a-1", Status: models.StatusPending, Classification: models.ClassificationHigh},
		})
	})
	mux.HandleFunc("GET /api/v1/alerts/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.AlertDetail{
			Alert: models.Alert{ID: r.PathValue("id"), Status: models.StatusPending},
		})
	})
	mux.HandleFunc("POST /api/v1/alerts/{id}/decisions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Decision{ID: "d-1", AlertID: r.PathValue("id")})
	})
	mux.HandleFunc("GET /api/v1/system/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Health{Status: "healthy"})
	})
	mux.HandleFunc("GET /api/v1/events", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Event{{ID: "e-1", EventType: "network_connection"}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type testConsole struct {
	router  http.Handler
	session *session.Manager
}

func newTestConsole(t *testing.T, backendURL string) *testConsole {
	t.Helper()

	store := nsax.NewMemoryTokenStore()
	client := nsax.NewClient(backendURL, store)
	sess := session.NewManager(client, store)
	bus := notify.NewBus()
	t.Cleanup(func() { bus.Close() })
	cache := query.NewCache(bus)
	queries := query.NewManager(client, cache, bus, config.PollingConfig{
		Interval:      5 * time.Second,
		PageSize:      20,
		AuditPageSize: 50,
	})

	h := &Handlers{Session: sess, Queries: queries, Hub: websocket.NewHub()}
	router := NewRouter(h, config.ServerConfig{CORSOrigins: []string{"http://localhost:5173"}})
	return &testConsole{router: router, session: sess}
}

func (c *testConsole) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func (c *testConsole) loginAs(t *testing.T) {
	t.Helper()
	rec := c.request(t, http.MethodPost, "/ui/login",
		`{"username":"`+testUsername+`","password":"`+testPassword+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: got status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestGuardRejectsWhileSessionChecking(t *testing.T) {
	backend := newPipelineBackend(t)
	console := newTestConsole(t, backend.URL)

	// Bootstrap has not run, so the session is still in its checking state.
	rec := console.request(t, http.MethodGet, "/ui/alerts", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("got status %d, want 503", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want %q", got, "1")
	}
}

func TestGuardRejectsUnauthenticated(t *testing.T) {
	backend := newPipelineBackend(t)
	console := newTestConsole(t, backend.URL)
	console.session.Bootstrap(context.Background())

	rec := console.request(t, http.MethodGet, "/ui/alerts", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", rec.Code)
	}
}

func TestSessionEndpointIsAlwaysReachable(t *testing.T) {
	backend := newPipelineBackend(t)
	console := newTestConsole(t, backend.URL)
	console.session.Bootstrap(context.Background())

	rec := console.request(t, http.MethodGet, "/ui/session", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	var snap sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if snap.IsAuthenticated {
		t.Error("expected unauthenticated snapshot before login")
	}
}

func TestLoginAndAuthenticatedFlow(t *testing.T) {
	backend := newPipelineBackend(t)
	console := newTestConsole(t, backend.URL)
	console.session.Bootstrap(context.Background())
	console.loginAs(t)

	rec := console.request(t, http.MethodGet, "/ui/alerts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("alerts: got status %d, body %s", rec.Code, rec.Body.String())
	}
	var page query.Page[models.Alert]
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode alerts page: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "a-1" {
		t.Fatalf("unexpected alerts page: %+v", page)
	}

	rec = console.request(t, http.MethodGet, "/ui/session", "")
	var snap sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if !snap.IsAuthenticated || snap.User == nil || snap.User.Username != testUsername {
		t.Fatalf("unexpected session snapshot: %+v", snap)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	backend := newPipelineBackend(t)
	console := newTestConsole(t, backend.URL)
	console.session.Bootstrap(context.Background())

	rec := console.request(t, http.MethodPost, "/ui/login",
		`{"username":"analyst1","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", rec.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Error != "Invalid username or password" {
		t.Errorf("error = %q, want invalid-credentials message", resp.Error)
	}
}

func TestLoginValidatesRequestBody(t *testing.T) {
	backend := newPipelineBackend(t)
	console := newTestConsole(t, backend.URL)
	console.session.Bootstrap(context.Background())

	rec := console.request(t, http.MethodPost, "/ui/login", `{"username":"analyst1"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got status %d, want 422", rec.Code)
	}
}

func TestDecisionValidation(t *testing.T) {
	backend := newPipelineBackend(t)
	console := newTestConsole(t, backend.URL)
	console.session.Bootstrap(context.Background())
	console.loginAs(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "valid",
			body: `{"action":"ESCALATE","justification":"confirmed C2 beaconing pattern"}`,
			want: http.StatusCreated,
		},
		{
			name: "short justification",
			body: `{"action":"ESCALATE","justification":"ok"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown action",
			body: `{"action":"NUKE","justification":"confirmed C2 beaconing pattern"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "malformed json",
			body: `{"action":`,
			want: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := console.request(t, http.MethodPost, "/ui/alerts/a-1/decisions", tt.body)
			if rec.Code != tt.want {
				t.Errorf("got status %d, want %d, body %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestHealthEndpointSkipsGuard(t *testing.T) {
	backend := newPipelineBackend(t)
	console := newTestConsole(t, backend.URL)

	rec := console.request(t, http.MethodGet, "/ui/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	var health models.Health
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("status = %q, want healthy", health.Status)
	}
}

func TestLogoutEndsAuthenticatedSession(t *testing.T) {
	backend := newPipelineBackend(t)
	console := newTestConsole(t, backend.URL)
	console.session.Bootstrap(context.Background())
	console.loginAs(t)

	rec := console.request(t, http.MethodPost, "/ui/logout", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: got status %d, want 204", rec.Code)
	}

	rec = console.request(t, http.MethodGet, "/ui/alerts", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("after logout: got status %d, want 401", rec.Code)
	}
}

func TestListEventsPassesFilters(t *testing.T) {
	backend := newPipelineBackend(t)
	console := newTestConsole(t, backend.URL)
	console.session.Bootstrap(context.Background())
	console.loginAs(t)

	rec := console.request(t, http.MethodGet, "/ui/events?limit=5&event_type=network_connection", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	var page query.Page[models.Event]
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode events page: %v", err)
	}
	if page.Limit != 5 {
		t.Errorf("limit = %d, want 5", page.Limit)
	}
}

func TestHealthz(t *testing.T) {
	backend := newPipelineBackend(t)
	console := newTestConsole(t, backend.URL)

	rec := console.request(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
}
