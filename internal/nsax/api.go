// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package nsax

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nsa-x/console/internal/models"
)

// Typed wrappers over the backend routes the console consumes. Paths are
// relative to the /api/v1 base the client prepends. List endpoints return
// bare arrays; the query layer wraps them into pages.

// Login performs the OAuth2 password grant against /auth/token and stores
// the issued tokens.
func (c *Client) Login(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("grant_type", "password")

	var tokens models.TokenResponse
	if err := c.PostForm(ctx, "/auth/token", form, &tokens); err != nil {
		return nil, err
	}
	if err := c.store.SetAccessToken(tokens.AccessToken); err != nil {
		return nil, fmt.Errorf("store access token: %w", err)
	}
	if tokens.RefreshToken != "" {
		if err := c.store.SetRefreshToken(tokens.RefreshToken); err != nil {
			return nil, fmt.Errorf("store refresh token: %w", err)
		}
	}
	return &tokens, nil
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.Get(ctx, "/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListEvents returns one page of security events.
func (c *Client) ListEvents(ctx context.Context, filters models.EventFilters) ([]models.Event, error) {
	var events []models.Event
	if err := c.Get(ctx, "/events?"+filters.Values().Encode(), &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent returns a single event.
func (c *Client) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := c.Get(ctx, "/events/"+url.PathEscape(id), &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// GetProcessedEvent returns the layer-2 processed form of an event.
func (c *Client) GetProcessedEvent(ctx context.Context, id string) (*models.ProcessedEvent, error) {
	var processed models.ProcessedEvent
	if err := c.Get(ctx, "/events/"+url.PathEscape(id)+"/processed", &processed); err != nil {
		return nil, err
	}
	return &processed, nil
}

// IngestEvent submits a new event through the full pipeline.
func (c *Client) IngestEvent(ctx context.Context, event models.EventCreate) (*models.PipelineResult, error) {
	var result models.PipelineResult
	if err := c.Post(ctx, "/events", event, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAlerts returns one page of alerts.
func (c *Client) ListAlerts(ctx context.Context, filters models.AlertFilters) ([]models.Alert, error) {
	var alerts []models.Alert
	if err := c.Get(ctx, "/alerts?"+filters.Values().Encode(), &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// GetAlert returns an alert with its full triage context.
func (c *Client) GetAlert(ctx context.Context, id string) (*models.AlertDetail, error) {
	var detail models.AlertDetail
	if err := c.Get(ctx, "/alerts/"+url.PathEscape(id), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdateAlertStatus transitions an alert's workflow status.
func (c *Client) UpdateAlertStatus(ctx context.Context, id string, status models.AlertStatus) (*models.Alert, error) {
	var alert models.Alert
	body := models.AlertStatusUpdate{Status: status}
	if err := c.Patch(ctx, "/alerts/"+url.PathEscape(id)+"/status", body, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

// CreateDecision records an analyst decision on an alert.
func (c *Client) CreateDecision(ctx context.Context, alertID string, req models.DecisionRequest) (*models.Decision, error) {
	var decision models.Decision
	if err := c.Post(ctx, "/alerts/"+url.PathEscape(alertID)+"/decisions", req, &decision); err != nil {
		return nil, err
	}
	return &decision, nil
}

// ListAudit returns one page of audit trail entries.
func (c *Client) ListAudit(ctx context.Context, filters models.AuditFilters) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	if err := c.Get(ctx, "/audit?"+filters.Values().Encode(), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Health returns backend health. The endpoint requires no auth so the status
// poller keeps working while logged out.
func (c *Client) Health(ctx context.Context) (*models.Health, error) {
	var health models.Health
	if err := c.GetNoAuth(ctx, "/system/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// ListRules returns all symbolic detection rules.
func (c *Client) ListRules(ctx context.Context) ([]models.Rule, error) {
	var rules []models.Rule
	if err := c.Get(ctx, "/system/rules", &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// GetRule returns a single rule.
func (c *Client) GetRule(ctx context.Context, id string) (*models.Rule, error) {
	var rule models.Rule
	if err := c.Get(ctx, "/system/rules/"+url.PathEscape(id), &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}
