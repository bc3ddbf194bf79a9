// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

// Token sealing for at-rest protection of the stored bearer tokens.
//
// Algorithm: AES-256-GCM with a 12-byte random nonce per seal, key derived
// from the configured console secret via HKDF-SHA256. The GCM tag gives
// integrity on top of confidentiality, so a tampered token file reads as
// absent tokens instead of garbage credentials.

package nsax

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	sealSalt    = "nsax-console-token-store"
	sealInfo    = "token-sealing-v1"
	sealKeySize = 32
)

var (
	// ErrEmptySecret is returned when a sealer is built from an empty secret.
	ErrEmptySecret = errors.New("sealing secret cannot be empty")

	// ErrUnsealFailed is returned for tampered or foreign ciphertext.
	ErrUnsealFailed = errors.New("unseal failed: invalid ciphertext or authentication tag")
)

// TokenSealer encrypts and decrypts token values for storage.
type TokenSealer struct {
	aead cipher.AEAD
}

// NewTokenSealer derives a 256-bit AES key from the secret and prepares the
// AEAD cipher.
func NewTokenSealer(secret string) (*TokenSealer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, sealKeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), []byte(sealSalt), []byte(sealInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init GCM: %w", err)
	}

	return &TokenSealer{aead: aead}, nil
}

// Seal encrypts plaintext and returns base64(nonce || ciphertext).
func (s *TokenSealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Unseal reverses Seal. Any tampering or wrong-secret input yields
// ErrUnsealFailed.
func (s *TokenSealer) Unseal(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrUnsealFailed
	}
	if len(raw) < s.aead.NonceSize() {
		return "", ErrUnsealFailed
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrUnsealFailed
	}
	return string(plaintext), nil
}
