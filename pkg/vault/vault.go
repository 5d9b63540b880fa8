// Package vault stores the biometric re-authentication credential behind a
// platform secure-storage bridge. Biometric support is an optional
// capability: on targets without a bridge every operation degrades to
// "unavailable" instead of failing, and no other component may depend on the
// vault being usable.
package vault

import (
	"context"
	"log/slog"
)

// Vault wraps a Bridge with the credential lifecycle rules: enrollment
// requires an authenticated caller (enforced by pkg/session), the stored
// refresh token is rotated on every successful biometric login, and any
// failed exchange revokes the credential outright.
type Vault struct {
	bridge Bridge
	log    *slog.Logger
}

func New(bridge Bridge, log *slog.Logger) *Vault {
	if log == nil {
		log = slog.Default()
	}
	return &Vault{bridge: bridge, log: log}
}

// Available probes whether the target exposes a secure biometric bridge.
func (v *Vault) Available() bool {
	return v.bridge.Available()
}

// HasCredential reports whether the bridge is available and a credential was
// previously enrolled.
func (v *Vault) HasCredential(ctx context.Context) bool {
	if !v.bridge.Available() {
		return false
	}
	cred, err := v.bridge.Retrieve(ctx)
	if err != nil {
		v.log.Debug("vault probe failed", "error", err)
		return false
	}
	return cred != nil
}

// Enroll stores the credential bundle. It reports false, without an error,
// when the bridge is unavailable or storage fails; biometric login is a
// convenience, never a requirement.
func (v *Vault) Enroll(ctx context.Context, account, refreshToken string) bool {
	if !v.bridge.Available() {
		return false
	}
	err := v.bridge.Store(ctx, Credential{Account: account, RefreshToken: refreshToken})
	if err != nil {
		v.log.Debug("vault enroll failed", "error", err)
		return false
	}
	return true
}

// Retrieve returns the stored credential or nil. Absence is not an error.
func (v *Vault) Retrieve(ctx context.Context) *Credential {
	if !v.bridge.Available() {
		return nil
	}
	cred, err := v.bridge.Retrieve(ctx)
	if err != nil {
		v.log.Debug("vault retrieve failed", "error", err)
		return nil
	}
	return cred
}

// Rotate replaces the stored refresh token, keeping the account. The old
// token was consumed by the exchange that produced the new one, so a failed
// rotation purges the credential rather than leaving a dead token behind.
func (v *Vault) Rotate(ctx context.Context, refreshToken string) bool {
	cred := v.Retrieve(ctx)
	if cred == nil {
		return false
	}
	cred.RefreshToken = refreshToken
	if err := v.bridge.Store(ctx, *cred); err != nil {
		v.log.Debug("vault rotate failed, purging credential", "error", err)
		v.Clear(ctx)
		return false
	}
	return true
}

// Clear purges the stored credential. Idempotent, safe when nothing is
// stored.
func (v *Vault) Clear(ctx context.Context) {
	if err := v.bridge.Delete(ctx); err != nil {
		v.log.Debug("vault clear failed", "error", err)
	}
}
