// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package stubserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nsa-x/console/internal/models"
)

type contextKey string

const usernameKey contextKey = "stub-username"

// handleToken implements the OAuth2 password grant the backend exposes.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		fail(w, http.StatusBadRequest, "malformed form body")
		return
	}
	if grant := r.PostFormValue("grant_type"); grant != "" && grant != "password" {
		fail(w, http.StatusBadRequest, "unsupported grant_type")
		return
	}

	username := r.PostFormValue("username")
	password, ok := s.cfg.Users[username]
	if !ok || password != r.PostFormValue("password") {
		fail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	s.issueToken(w, username)
}

// handleRefresh re-issues a token for the bearer identity. The backend
// authenticates refresh with the current access token, so any request that
// passed requireBearer is entitled to a fresh one.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.issueToken(w, usernameFrom(r.Context()))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r.Context())
	respond(w, http.StatusOK, models.User{
		ID:        "user-" + username,
		Username:  username,
		Role:      models.RoleAnalyst,
		IsActive:  true,
		CreatedAt: s.startedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) issueToken(w http.ResponseWriter, username string) {
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.cfg.JWTSecret)
	if err != nil {
		fail(w, http.StatusInternalServerError, "token signing failed")
		return
	}
	respond(w, http.StatusOK, models.TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.cfg.TokenTTL.Seconds()),
	})
}

// requireBearer validates the Authorization header and stashes the token
// subject in the request context.
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			fail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return s.cfg.JWTSecret, nil
		})
		if err != nil || !token.Valid {
			fail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			fail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func usernameFrom(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey).(string)
	return username
}
