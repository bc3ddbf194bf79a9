// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package nsax

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/goccy/go-json"

	"github.com/nsa-x/console/internal/logging"
	"github.com/nsa-x/console/internal/metrics"
	"github.com/nsa-x/console/internal/models"
)

// RefreshCoordinator serializes session refresh so that any number of
// concurrent 401s collapse into a single POST to the refresh endpoint.
// The first caller becomes the leader and performs the exchange; every
// caller that arrives while the attempt is in flight waits for the
// leader's outcome instead of starting its own.
type RefreshCoordinator struct {
	store      TokenStore
	baseURL    string
	httpClient *http.Client

	mu       sync.Mutex
	inflight *refreshAttempt
}

// refreshAttempt is the shared outcome slot for one in-flight refresh.
// done is closed after ok is set, so waiters observe a settled value.
type refreshAttempt struct {
	done chan struct{}
	ok   bool
}

// NewRefreshCoordinator builds a coordinator that re-authenticates the
// stored access token against baseURL.
func NewRefreshCoordinator(store TokenStore, baseURL string, httpClient *http.Client) *RefreshCoordinator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RefreshCoordinator{
		store:      store,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Refresh obtains a new access token, joining an in-flight attempt when one
// exists. It returns true when a new access token has been stored and
// callers may retry their original request, false when the session is dead.
func (c *RefreshCoordinator) Refresh(ctx context.Context) bool {
	c.mu.Lock()
	if attempt := c.inflight; attempt != nil {
		c.mu.Unlock()
		metrics.RefreshWaiters.Inc()
		defer metrics.RefreshWaiters.Dec()
		select {
		case <-attempt.done:
			return attempt.ok
		case <-ctx.Done():
			return false
		}
	}

	attempt := &refreshAttempt{done: make(chan struct{})}
	c.inflight = attempt
	c.mu.Unlock()

	// Settle in all outcomes, including a panic in the attempt: record the
	// result, clear the slot so the next 401 starts fresh, then wake waiters.
	ok := false
	defer func() {
		attempt.ok = ok
		c.mu.Lock()
		c.inflight = nil
		c.mu.Unlock()
		close(attempt.done)
	}()

	ok = c.attempt(ctx)
	if ok {
		metrics.RefreshAttempts.WithLabelValues("success").Inc()
	} else {
		metrics.RefreshAttempts.WithLabelValues("failure").Inc()
	}
	return ok
}

// attempt performs the actual exchange. The backend accepts the current
// access token as bearer on /auth/refresh even after it has expired for
// regular requests. It fails closed: no stored token means no network call
// and an immediate false.
func (c *RefreshCoordinator) attempt(ctx context.Context) bool {
	current, ok := c.store.AccessToken()
	if !ok {
		logging.Debug().Msg("Refresh skipped: no token stored")
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/auth/refresh", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+current)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.Warn().Err(err).Msg("Session refresh request failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		logging.Info().Int("status", resp.StatusCode).Msg("Session refresh rejected")
		return false
	}

	var tokens models.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		logging.Warn().Err(err).Msg("Session refresh returned unreadable body")
		return false
	}
	if tokens.AccessToken == "" {
		return false
	}

	// The new token must be visible before any waiter retries.
	if err := c.store.SetAccessToken(tokens.AccessToken); err != nil {
		logging.Error().Err(err).Msg("Failed to persist refreshed access token")
		return false
	}
	if tokens.RefreshToken != "" {
		if err := c.store.SetRefreshToken(tokens.RefreshToken); err != nil {
			logging.Error().Err(err).Msg("Failed to persist rotated refresh token")
		}
	}

	logging.Debug().Msg("Session refreshed")
	return true
}
