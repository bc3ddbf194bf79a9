// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package models

// TokenResponse is the payload of POST /auth/token and POST /auth/refresh.
// The refresh endpoint returns only a new access token; refresh_token is
// populated on login and whenever the backend rotates the pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UserRole identifies the backend role of an authenticated user.
type UserRole string

const (
	RoleAnalyst UserRole = "analyst"
	RoleAdmin   UserRole = "admin"
)

// User is the profile returned by GET /auth/me.
type User struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	FullName  *string  `json:"full_name"`
	Role      UserRole `json:"role"`
	IsActive  bool     `json:"is_active"`
	CreatedAt string   `json:"created_at"`
	LastLogin *string  `json:"last_login"`
}
