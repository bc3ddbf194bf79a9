// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nsa-x/console/internal/nsax"
)

const userJSON = `{"id":"u1","username":"analyst1","full_name":"Dana Li","role":"analyst","is_active":true,"created_at":"2026-01-01T00:00:00Z","last_login":null}`

// newAuthBackend serves the auth surface: password grant for
// analyst1/hunter22, /auth/me for the token it mints.
func newAuthBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("username") != "analyst1" || r.PostForm.Get("password") != "hunter22" {
			http.Error(w, `{"detail":"Incorrect username or password"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"good-token","token_type":"bearer","expires_in":1800}`))
	})
	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"refresh rejected"}`, http.StatusUnauthorized)
	})
	mux.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			http.Error(w, `{"detail":"Not authenticated"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(userJSON))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func checkSnapshot(t *testing.T, snap Snapshot, authenticated bool) {
	t.Helper()
	if snap.IsAuthenticated != authenticated {
		t.Errorf("IsAuthenticated = %v, want %v", snap.IsAuthenticated, authenticated)
	}
	if snap.IsAuthenticated != (snap.User != nil) {
		t.Errorf("snapshot invariant broken: IsAuthenticated=%v User=%v", snap.IsAuthenticated, snap.User)
	}
}

func TestBootstrapWithoutToken(t *testing.T) {
	server := newAuthBackend(t)
	store := nsax.NewMemoryTokenStore()
	manager := NewManager(nsax.NewClient(server.URL, store), store)

	if !manager.Snapshot().IsLoading {
		t.Fatal("fresh manager must start in the checking state")
	}

	manager.Bootstrap(context.Background())

	snap := manager.Snapshot()
	checkSnapshot(t, snap, false)
	if snap.IsLoading {
		t.Error("IsLoading stuck after bootstrap")
	}
}

func TestBootstrapWithValidToken(t *testing.T) {
	server := newAuthBackend(t)
	store := nsax.NewMemoryTokenStore()
	store.SetAccessToken("good-token")
	manager := NewManager(nsax.NewClient(server.URL, store), store)

	manager.Bootstrap(context.Background())

	snap := manager.Snapshot()
	checkSnapshot(t, snap, true)
	if snap.User.Username != "analyst1" {
		t.Errorf("username = %q", snap.User.Username)
	}
}

func TestBootstrapClearsInvalidToken(t *testing.T) {
	server := newAuthBackend(t)
	store := nsax.NewMemoryTokenStore()
	store.SetAccessToken("expired-token")
	manager := NewManager(nsax.NewClient(server.URL, store), store)

	manager.Bootstrap(context.Background())

	checkSnapshot(t, manager.Snapshot(), false)
	if _, ok := store.AccessToken(); ok {
		t.Error("invalid token survived bootstrap")
	}
}

func TestBootstrapRefreshesExpiredToken(t *testing.T) {
	var refreshCalls, meCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		if r.Header.Get("Authorization") != "Bearer stale-token" {
			http.Error(w, `{"detail":"Not authenticated"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh-token","token_type":"bearer","expires_in":1800}`))
	})
	mux.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls++
		if r.Header.Get("Authorization") != "Bearer fresh-token" {
			http.Error(w, `{"detail":"Not authenticated"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(userJSON))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	store := nsax.NewMemoryTokenStore()
	store.SetAccessToken("stale-token")
	manager := NewManager(nsax.NewClient(server.URL, store), store)

	manager.Bootstrap(context.Background())

	checkSnapshot(t, manager.Snapshot(), true)
	if refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want 1", refreshCalls)
	}
	if meCalls != 2 {
		t.Errorf("me calls = %d, want 2 (rejected, then retried)", meCalls)
	}
	if token, _ := store.AccessToken(); token != "fresh-token" {
		t.Errorf("stored token = %q, want fresh-token", token)
	}
}

func TestLoginSuccess(t *testing.T) {
	server := newAuthBackend(t)
	store := nsax.NewMemoryTokenStore()
	manager := NewManager(nsax.NewClient(server.URL, store), store)
	manager.Bootstrap(context.Background())

	if err := manager.Login(context.Background(), "analyst1", "hunter22"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	snap := manager.Snapshot()
	checkSnapshot(t, snap, true)
	if snap.Error != "" {
		t.Errorf("Error = %q after successful login", snap.Error)
	}
	if token, _ := store.AccessToken(); token != "good-token" {
		t.Errorf("stored token = %q", token)
	}
}

func TestLoginErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "wrong password",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"detail":"Incorrect username or password"}`, http.StatusUnauthorized)
			},
			want: "Invalid username or password",
		},
		{
			name: "backend error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"detail":"boom"}`, http.StatusInternalServerError)
			},
			want: "Login failed: Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			store := nsax.NewMemoryTokenStore()
			manager := NewManager(nsax.NewClient(server.URL, store), store)
			manager.Bootstrap(context.Background())

			err := manager.Login(context.Background(), "analyst1", "nope")
			if err == nil {
				t.Fatal("Login succeeded against failing backend")
			}
			if err.Error() != tt.want {
				t.Errorf("error = %q, want %q", err.Error(), tt.want)
			}

			snap := manager.Snapshot()
			checkSnapshot(t, snap, false)
			if snap.Error != tt.want {
				t.Errorf("snapshot error = %q, want %q", snap.Error, tt.want)
			}
		})
	}
}

func TestLoginUnreachableBackend(t *testing.T) {
	store := nsax.NewMemoryTokenStore()
	// Port 1 refuses connections; the failure is a transport error, not an
	// APIError.
	manager := NewManager(nsax.NewClient("http://127.0.0.1:1", store), store)
	manager.Bootstrap(context.Background())

	err := manager.Login(context.Background(), "analyst1", "hunter22")
	if err == nil || err.Error() != "An unexpected error occurred" {
		t.Errorf("error = %v, want the generic message", err)
	}
}

func TestLogoutHardReset(t *testing.T) {
	server := newAuthBackend(t)
	store := nsax.NewMemoryTokenStore()
	manager := NewManager(nsax.NewClient(server.URL, store), store)

	resetCount := 0
	manager.OnReset(func() { resetCount++ })

	manager.Bootstrap(context.Background())
	if err := manager.Login(context.Background(), "analyst1", "hunter22"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	manager.Logout()

	snap := manager.Snapshot()
	checkSnapshot(t, snap, false)
	if snap.Error != "" || snap.IsLoading {
		t.Errorf("logout left residue: %+v", snap)
	}
	if _, ok := store.AccessToken(); ok {
		t.Error("token survived logout")
	}
	if resetCount != 1 {
		t.Errorf("reset hook fired %d times, want 1", resetCount)
	}
}

func TestSubscribeObservesTransitions(t *testing.T) {
	server := newAuthBackend(t)
	store := nsax.NewMemoryTokenStore()
	manager := NewManager(nsax.NewClient(server.URL, store), store)

	var seen []Snapshot
	unsubscribe := manager.Subscribe(func(s Snapshot) { seen = append(seen, s) })

	manager.Bootstrap(context.Background())
	if err := manager.Login(context.Background(), "analyst1", "hunter22"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Initial checking snapshot, bootstrap result, login loading, login result.
	if len(seen) != 4 {
		t.Fatalf("observed %d snapshots, want 4", len(seen))
	}
	if !seen[0].IsLoading || seen[1].IsAuthenticated || !seen[2].IsLoading || !seen[3].IsAuthenticated {
		t.Errorf("snapshot sequence = %+v", seen)
	}

	unsubscribe()
	manager.Logout()
	if len(seen) != 4 {
		t.Error("subscriber notified after unsubscribe")
	}
}
