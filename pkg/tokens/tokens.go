// Package tokens persists the access/refresh token pair in a keyring slot
// and answers expiry questions about the access token. It holds no session
// logic; pkg/session decides when tokens are trusted, refreshed or cleared.
package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fleetsure/fleetsure-go/pkg/authapi"
	"github.com/fleetsure/fleetsure-go/pkg/keyring"
)

// Store reads and writes the token pair through a Keyring. It is the only
// component allowed to touch the token slot.
type Store struct {
	ring keyring.Keyring
}

func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Get returns the stored token pair, or nil when none is stored. A stored
// value that fails to decode is purged and reported as absent.
func (s *Store) Get(ctx context.Context) (*authapi.TokenPair, error) {
	raw, err := s.ring.Get(ctx, keyring.KeyTokens)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token slot: %w", err)
	}

	var pair authapi.TokenPair
	if err := json.Unmarshal(raw, &pair); err != nil || pair.RefreshToken == "" {
		_ = s.ring.Delete(ctx, keyring.KeyTokens)
		return nil, nil
	}
	return &pair, nil
}

// Set replaces the stored token pair.
func (s *Store) Set(ctx context.Context, pair authapi.TokenPair) error {
	raw, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encoding token pair: %w", err)
	}
	if err := s.ring.Set(ctx, keyring.KeyTokens, raw); err != nil {
		return fmt.Errorf("writing token slot: %w", err)
	}
	return nil
}

// Clear removes the stored token pair. Idempotent.
func (s *Store) Clear(ctx context.Context) error {
	return s.ring.Delete(ctx, keyring.KeyTokens)
}
