// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package nsax

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// Fixed storage keys for the token pair.
const (
	accessTokenKey  = "nsa_access_token"
	refreshTokenKey = "nsa_refresh_token"
)

// TokenStore holds the two opaque bearer tokens. No expiry tracking happens
// locally; token death is discovered by a failed authenticated call.
//
// Implementations must be safe for concurrent use: the refresh coordinator
// writes while pollers read.
type TokenStore interface {
	// AccessToken returns the stored access token, ok=false when absent.
	AccessToken() (token string, ok bool)

	// RefreshToken returns the stored refresh token, ok=false when absent.
	RefreshToken() (token string, ok bool)

	// SetAccessToken stores the access token.
	SetAccessToken(token string) error

	// SetRefreshToken stores the refresh token.
	SetRefreshToken(token string) error

	// Clear removes both tokens.
	Clear() error
}

// FileTokenStore persists the token pair as a JSON document of the two fixed
// keys, written 0600. When a sealer is provided the values are sealed at
// rest; a file that fails to unseal is treated as empty.
type FileTokenStore struct {
	path   string
	sealer *TokenSealer

	mu     sync.RWMutex
	tokens map[string]string
}

// NewFileTokenStore opens (or lazily creates) the token file at path.
// sealer may be nil for plaintext storage.
func NewFileTokenStore(path string, sealer *TokenSealer) (*FileTokenStore, error) {
	s := &FileTokenStore{
		path:   path,
		sealer: sealer,
		tokens: make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileTokenStore) load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read token file: %w", err)
	}

	var stored map[string]string
	if err := json.Unmarshal(raw, &stored); err != nil {
		// A corrupt token file means a fresh login, not a startup failure.
		return nil
	}

	for _, key := range []string{accessTokenKey, refreshTokenKey} {
		value, present := stored[key]
		if !present {
			continue
		}
		if s.sealer != nil {
			if value, err = s.sealer.Unseal(value); err != nil {
				continue
			}
		}
		s.tokens[key] = value
	}
	return nil
}

func (s *FileTokenStore) persist() error {
	stored := make(map[string]string, len(s.tokens))
	for key, value := range s.tokens {
		if s.sealer != nil {
			sealed, err := s.sealer.Seal(value)
			if err != nil {
				return fmt.Errorf("seal %s: %w", key, err)
			}
			value = sealed
		}
		stored[key] = value
	}

	raw, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// AccessToken implements TokenStore.
func (s *FileTokenStore) AccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[accessTokenKey]
	return token, ok && token != ""
}

// RefreshToken implements TokenStore.
func (s *FileTokenStore) RefreshToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[refreshTokenKey]
	return token, ok && token != ""
}

// SetAccessToken implements TokenStore.
func (s *FileTokenStore) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[accessTokenKey] = token
	return s.persist()
}

// SetRefreshToken implements TokenStore.
func (s *FileTokenStore) SetRefreshToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[refreshTokenKey] = token
	return s.persist()
}

// Clear implements TokenStore. Both keys are removed together; there is no
// state where only one of the pair survives a logout.
func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// MemoryTokenStore is a TokenStore without persistence, for tests and
// ephemeral sessions.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryTokenStore returns an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]string)}
}

// AccessToken implements TokenStore.
func (s *MemoryTokenStore) AccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[accessTokenKey]
	return token, ok && token != ""
}

// RefreshToken implements TokenStore.
func (s *MemoryTokenStore) RefreshToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[refreshTokenKey]
	return token, ok && token != ""
}

// SetAccessToken implements TokenStore.
func (s *MemoryTokenStore) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[accessTokenKey] = token
	return nil
}

// SetRefreshToken implements TokenStore.
func (s *MemoryTokenStore) SetRefreshToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[refreshTokenKey] = token
	return nil
}

// Clear implements TokenStore.
func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
	return nil
}
