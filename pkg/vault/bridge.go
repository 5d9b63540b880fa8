package vault

import (
	"context"
	"errors"
)

// ErrUnavailable reports that the current target exposes no secure-storage
// bridge.
var ErrUnavailable = errors.New("vault: secure storage bridge unavailable")

// Credential is the opaque bundle that enables silent biometric
// re-authentication. It never leaves this package except through the vault's
// own operations.
type Credential struct {
	Account      string `json:"account"`
	RefreshToken string `json:"refresh_token"`
}

// Bridge is the platform-native secure-storage integration. Only some device
// targets provide one; Available must answer false (not fail) everywhere
// else. Implementations gate Retrieve behind the platform's biometric
// prompt.
type Bridge interface {
	// Available reports whether the target exposes secure biometric storage.
	Available() bool

	// Store replaces the stored credential.
	Store(ctx context.Context, cred Credential) error

	// Retrieve returns the stored credential, or nil when nothing is stored.
	Retrieve(ctx context.Context) (*Credential, error)

	// Delete removes the stored credential. Idempotent.
	Delete(ctx context.Context) error
}

// Unavailable is the Bridge for targets with no secure storage. Every probe
// answers false and every operation degrades without panicking.
type Unavailable struct{}

var _ Bridge = Unavailable{}

func (Unavailable) Available() bool { return false }

func (Unavailable) Store(context.Context, Credential) error { return ErrUnavailable }

func (Unavailable) Retrieve(context.Context) (*Credential, error) { return nil, nil }

func (Unavailable) Delete(context.Context) error { return nil }
