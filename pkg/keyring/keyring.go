// Package keyring defines the narrow storage contract the session core uses
// for durable client-side state: the token pair, the cached session snapshot
// and the pending two-factor challenge.
//
// Drivers live under drivers/ (memory, sqlite, bolt). All values are opaque
// byte slices; callers own the serialization. Sealed wraps any driver with
// authenticated encryption for at-rest protection.
package keyring

import (
	"context"
	"errors"
)

// Well-known slot keys. Components must go through their owning type
// (tokens.Store, twofactor.Manager, session.Manager) rather than touching
// these slots directly.
const (
	KeyTokens    = "auth.tokens"
	KeySession   = "session.cached"
	KeyChallenge = "twofactor.challenge"
)

// ErrNotFound reports that a key has no stored value.
var ErrNotFound = errors.New("keyring: not found")

// Keyring is a durable key/value store for small client secrets and state.
type Keyring interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
