// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

// Package session owns the authenticated-analyst lifecycle: bootstrap from
// persisted tokens, login, logout and the session snapshot the web layer and
// dashboard observe. The manager is the only writer of session state; the
// HTTP client reports dead sessions into it through its expiry hook.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/nsa-x/console/internal/logging"
	"github.com/nsa-x/console/internal/models"
	"github.com/nsa-x/console/internal/nsax"
)

// User-facing login failure messages. The 401 message deliberately does not
// reveal whether the username exists.
const (
	msgInvalidCredentials = "Invalid username or password"
	msgLoginFailedPrefix  = "Login failed: "
	msgUnexpected         = "An unexpected error occurred"
)

// Snapshot is one observation of session state. IsLoading is true only
// during bootstrap and login; consumers must treat it as blocking and render
// neither the authenticated nor the unauthenticated view while it holds.
//
// Invariant: IsAuthenticated == (User != nil).
type Snapshot struct {
	User            *models.User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// Manager drives the session state machine:
// checking -> authenticated | unauthenticated.
type Manager struct {
	client *nsax.Client
	store  nsax.TokenStore

	mu      sync.RWMutex
	snap    Snapshot
	subs    map[int]func(Snapshot)
	nextSub int

	// onReset fires on logout and session expiry, after state has been
	// cleared. The web layer uses it to force connected clients back to
	// the login view. A hard reset, never a soft state change.
	onReset func()
}

// NewManager builds a manager in the checking state. Call Bootstrap before
// serving traffic.
func NewManager(client *nsax.Client, store nsax.TokenStore) *Manager {
	return &Manager{
		client: client,
		store:  store,
		snap:   Snapshot{IsLoading: true},
		subs:   make(map[int]func(Snapshot)),
	}
}

// OnReset registers the hard-reset hook. Must be called before Bootstrap.
func (m *Manager) OnReset(fn func()) {
	m.onReset = fn
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// Subscribe registers fn for every snapshot change and returns an
// unsubscribe function. fn is called synchronously with the current
// snapshot on registration.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	snap := m.snap
	m.mu.Unlock()

	fn(snap)
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) setSnapshot(snap Snapshot) {
	m.mu.Lock()
	m.snap = snap
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Bootstrap validates any persisted token against the backend. No token
// means unauthenticated without a network call; a token that fails
// validation is cleared rather than kept around to fail every later call.
func (m *Manager) Bootstrap(ctx context.Context) {
	if _, ok := m.store.AccessToken(); !ok {
		m.setSnapshot(Snapshot{})
		return
	}

	user, err := m.client.Me(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Token validation failed")
		if clearErr := m.store.Clear(); clearErr != nil {
			logging.Error().Err(clearErr).Msg("Failed to clear invalid tokens")
		}
		m.setSnapshot(Snapshot{})
		return
	}

	logging.Info().Str("username", user.Username).Msg("Session restored")
	m.setSnapshot(Snapshot{User: user, IsAuthenticated: true})
}

// Login performs the password grant and fetches the analyst profile. On
// failure the mapped message is recorded on the snapshot and returned; the
// session stays unauthenticated.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	m.setSnapshot(Snapshot{IsLoading: true})

	user, err := m.doLogin(ctx, username, password)
	if err != nil {
		message := loginErrorMessage(err)
		m.setSnapshot(Snapshot{Error: message})
		return errors.New(message)
	}

	logging.Info().Str("username", user.Username).Msg("Login succeeded")
	m.setSnapshot(Snapshot{User: user, IsAuthenticated: true})
	return nil
}

func (m *Manager) doLogin(ctx context.Context, username, password string) (*models.User, error) {
	if _, err := m.client.Login(ctx, username, password); err != nil {
		return nil, err
	}
	return m.client.Me(ctx)
}

// loginErrorMessage maps a login failure to its user-facing message.
func loginErrorMessage(err error) string {
	apiErr := nsax.AsAPIError(err)
	if apiErr == nil {
		return msgUnexpected
	}
	if apiErr.Status == 401 {
		return msgInvalidCredentials
	}
	return msgLoginFailedPrefix + apiErr.StatusText
}

// Logout clears tokens, resets the snapshot and fires the reset hook.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		logging.Error().Err(err).Msg("Failed to clear tokens on logout")
	}
	m.setSnapshot(Snapshot{})
	logging.Info().Msg("Logged out")
	if m.onReset != nil {
		m.onReset()
	}
}

// HandleSessionExpired is wired as the HTTP client's session-expired hook.
// Tokens are already cleared by the client; this resets observable state
// and forces clients to re-authenticate.
func (m *Manager) HandleSessionExpired() {
	logging.Info().Msg("Session expired")
	m.setSnapshot(Snapshot{Error: "Session expired"})
	if m.onReset != nil {
		m.onReset()
	}
}

// ClearError drops a recorded login error without touching the rest of the
// snapshot.
func (m *Manager) ClearError() {
	m.mu.Lock()
	snap := m.snap
	m.mu.Unlock()
	if snap.Error == "" {
		return
	}
	snap.Error = ""
	m.setSnapshot(snap)
}
