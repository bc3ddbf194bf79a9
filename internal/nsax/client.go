// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package nsax

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/nsa-x/console/internal/logging"
	"github.com/nsa-x/console/internal/metrics"
)

const apiPrefix = "/api/v1"

// maxErrorBody bounds how much of an error response is retained for
// diagnostics.
const maxErrorBody = 64 * 1024

// Client talks to the NSA-X backend API. Every authenticated request that
// comes back 401 triggers one coordinated token refresh and, on success,
// exactly one retry with the new token. A second 401, or a failed refresh,
// surfaces as ErrSessionExpired and fires the session-expired callback.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      TokenStore
	refresher  *RefreshCoordinator
	limiter    *rate.Limiter

	// onSessionExpired is invoked at most once per dead session signal,
	// outside any lock. Set by the session manager to force a logout.
	onSessionExpired func()
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outgoing request rate. Zero or negative rps disables
// limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithSessionExpiredHook registers the callback fired when a refresh fails
// or a retried request is rejected again.
func WithSessionExpiredHook(fn func()) ClientOption {
	return func(c *Client) { c.onSessionExpired = fn }
}

// NewClient builds a backend client rooted at baseURL (scheme and host, no
// path).
func NewClient(baseURL string, store TokenStore, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      store,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.refresher = NewRefreshCoordinator(store, c.baseURL, c.httpClient)
	return c
}

// Get issues an authenticated GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out, false)
}

// GetNoAuth issues a GET without a bearer token, for endpoints like /health
// that are reachable before login.
func (c *Client) GetNoAuth(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out, true)
}

// Post issues an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, payload, out, false)
}

// PostForm issues an unauthenticated POST with a form-urlencoded body. The
// token endpoint is the only caller; it cannot require the token it mints.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	body := &requestBody{
		data:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}
	return c.do(ctx, http.MethodPost, path, body, out, true)
}

// Patch issues an authenticated PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, path, payload, out, false)
}

// Put issues an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, payload, out, false)
}

// Delete issues an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, false)
}

// requestBody holds an encoded payload so the single retry can resend the
// identical bytes.
type requestBody struct {
	data        []byte
	contentType string
}

func encodeBody(body interface{}) (*requestBody, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return &requestBody{data: data, contentType: "application/json"}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body *requestBody, out interface{}, skipAuth bool) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	resp, err := c.send(ctx, method, path, body, skipAuth)
	if err != nil {
		metrics.ObserveAPIRequest(method, metricPath(path), 0, time.Since(start).Seconds(), true)
		return err
	}

	// A 401 on an authenticated call means the access token died. Refresh
	// once; if that works, replay the identical request with the new token.
	if resp.StatusCode == http.StatusUnauthorized && !skipAuth {
		drain(resp)
		if !c.refresher.Refresh(ctx) {
			metrics.ObserveAPIRequest(method, metricPath(path), resp.StatusCode, time.Since(start).Seconds(), true)
			c.sessionExpired()
			return ErrSessionExpired
		}
		metrics.APIRetries.Inc()
		resp, err = c.send(ctx, method, path, body, skipAuth)
		if err != nil {
			metrics.ObserveAPIRequest(method, metricPath(path), 0, time.Since(start).Seconds(), true)
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			// The fresh token was rejected too. There is never a second retry.
			drain(resp)
			metrics.ObserveAPIRequest(method, metricPath(path), resp.StatusCode, time.Since(start).Seconds(), true)
			c.sessionExpired()
			return ErrSessionExpired
		}
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp)
		metrics.ObserveAPIRequest(method, metricPath(path), resp.StatusCode, time.Since(start).Seconds(), true)
		logging.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("Backend request failed")
		return apiErr
	}

	metrics.ObserveAPIRequest(method, metricPath(path), resp.StatusCode, time.Since(start).Seconds(), false)

	if resp.StatusCode == http.StatusNoContent || out == nil {
		drainBody(resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response for %s %s: %w", method, path, err)
	}
	return nil
}

// send builds and executes one HTTP attempt. The bearer token is read fresh
// on every call so a retry after refresh picks up the new token.
func (c *Client) send(ctx context.Context, method, path string, body *requestBody, skipAuth bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body.data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}
	if !skipAuth {
		if token, ok := c.store.AccessToken(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// sessionExpired clears stored tokens and notifies the registered hook.
// Matches the dead-session contract: a failed refresh (or rejected retry)
// forces a logout rather than leaving a token that can never authenticate.
func (c *Client) sessionExpired() {
	if err := c.store.Clear(); err != nil {
		logging.Warn().Err(err).Msg("Failed to clear tokens for expired session")
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// newAPIError captures a non-2xx response, keeping the decoded JSON body
// when there is one.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(raw) > 0 {
		var parsed map[string]interface{}
		if json.Unmarshal(raw, &parsed) == nil {
			apiErr.Body = parsed
		}
	}
	return apiErr
}

// metricPath reduces a request path to its first segment so metric label
// cardinality stays bounded regardless of resource IDs in the path.
func metricPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return "/" + trimmed
}

func drain(resp *http.Response) {
	drainBody(resp.Body)
	resp.Body.Close()
}

func drainBody(body io.Reader) {
	io.Copy(io.Discard, io.LimitReader(body, maxErrorBody))
}
