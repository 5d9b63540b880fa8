// Package twofactor holds the ephemeral second-factor challenge state and
// the client-side rules for TOTP and backup codes.
//
// A challenge is the temp token + user id the server hands back when login
// requires a second factor. It lives in memory and in a reload-durable
// keyring slot so a page reload mid-challenge does not force the user to
// re-enter their password. The client never enforces the challenge TTL; the
// server rejecting an expired temp token is authoritative.
package twofactor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fleetsure/fleetsure-go/pkg/keyring"
)

// Challenge is an in-progress second-factor verification.
type Challenge struct {
	TempToken string    `json:"temp_token"`
	UserID    string    `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
}

// Manager owns the single live challenge. At most one challenge exists at a
// time; Begin fully overwrites any prior one.
type Manager struct {
	mu      sync.Mutex
	ring    keyring.Keyring
	current *Challenge
}

func NewManager(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// Begin records a new challenge in memory and in the durable slot,
// overwriting any prior challenge.
func (m *Manager) Begin(ctx context.Context, tempToken, userID string) (*Challenge, error) {
	ch := &Challenge{
		TempToken: tempToken,
		UserID:    userID,
		IssuedAt:  time.Now().UTC(),
	}

	raw, err := json.Marshal(ch)
	if err != nil {
		return nil, fmt.Errorf("encoding challenge: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ring.Set(ctx, keyring.KeyChallenge, raw); err != nil {
		return nil, fmt.Errorf("persisting challenge: %w", err)
	}
	m.current = ch
	return ch, nil
}

// Restore returns the live challenge, falling back to the durable slot when
// memory is empty (i.e. after a reload). Partial or malformed durable state
// is treated as absent and purged. Returns nil when no challenge exists.
func (m *Manager) Restore(ctx context.Context) (*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return m.current, nil
	}

	raw, err := m.ring.Get(ctx, keyring.KeyChallenge)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading challenge slot: %w", err)
	}

	var ch Challenge
	if err := json.Unmarshal(raw, &ch); err != nil || ch.TempToken == "" || ch.UserID == "" {
		_ = m.ring.Delete(ctx, keyring.KeyChallenge)
		return nil, nil
	}

	m.current = &ch
	return m.current, nil
}

// Complete clears the challenge from memory and from the durable slot.
// Called after a successful verification or an explicit cancellation;
// idempotent.
func (m *Manager) Complete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = nil
	return m.ring.Delete(ctx, keyring.KeyChallenge)
}
