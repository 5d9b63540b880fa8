package session

import (
	"context"

	"github.com/fleetsure/fleetsure-go/pkg/authapi"
)

// CheckBiometric probes biometric support: whether the platform exposes a
// secure-storage bridge at all, and whether a credential is enrolled.
func (m *Manager) CheckBiometric(ctx context.Context) (available, enrolled bool) {
	available = m.vault.Available()
	if available {
		enrolled = m.vault.HasCredential(ctx)
	}
	return available, enrolled
}

// EnrollBiometric stores the current refresh token behind the platform
// biometric bridge so the user can re-authenticate silently later. It
// requires an authenticated session and reports false, without error, when
// the bridge is unavailable.
func (m *Manager) EnrollBiometric(ctx context.Context) (bool, error) {
	m.mu.Lock()
	user := m.user
	authenticated := m.status == StatusAuthenticated
	m.mu.Unlock()

	if !authenticated || user == nil {
		return false, ErrNotAuthenticated
	}

	pair, err := m.tokens.Get(ctx)
	if err != nil {
		return false, err
	}
	if pair == nil {
		return false, ErrNotAuthenticated
	}

	ok := m.vault.Enroll(ctx, user.Email, pair.RefreshToken)
	if ok {
		m.notify()
	}
	return ok, nil
}

// LoginWithBiometric exchanges the vaulted refresh token for a fresh token
// pair and drives the session to Authenticated exactly as a normal login
// would, including the grace-period marker and refresh-token rotation.
//
// Any failure purges the stored credential: an unusable credential left
// behind would trap the user in a failing biometric loop, so a failed
// exchange is treated as revocation. Returns false when no credential is
// available or the exchange failed.
func (m *Manager) LoginWithBiometric(ctx context.Context) bool {
	cred := m.vault.Retrieve(ctx)
	if cred == nil {
		return false
	}

	ctx, done, err := m.requests.Track(ctx)
	if err != nil {
		return false
	}
	defer done()

	m.setTransient(StatusAuthenticating, true)

	v, err, _ := m.refresh.Do("refresh", func() (any, error) {
		return m.api.RefreshToken(ctx, cred.RefreshToken)
	})
	if err != nil || m.requests.LoggingOut() {
		m.log.Debug("biometric login failed, revoking credential", "error", err)
		m.vault.Clear(ctx)
		m.setTransient(StatusAnonymous, false)
		return false
	}
	result := v.(*authapi.AuthResult)

	if !m.vault.Rotate(ctx, result.Tokens.RefreshToken) {
		// Rotation failure already purged the credential; the session login
		// still proceeds on the freshly issued pair.
		m.log.Debug("biometric credential rotation failed")
	}

	if err := m.applyAuthResult(ctx, result); err != nil {
		m.vault.Clear(ctx)
		return false
	}
	return true
}
