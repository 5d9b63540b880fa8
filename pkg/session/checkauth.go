package session

import (
	"context"
	"errors"
	"time"

	"github.com/fleetsure/fleetsure-go/pkg/authapi"
	"github.com/fleetsure/fleetsure-go/pkg/inflight"
	"github.com/fleetsure/fleetsure-go/pkg/tokens"
)

// CheckAuth restores session state at process start and is the re-entry
// point after a reload.
//
// The decision ladder:
//  1. No stored token: Anonymous immediately.
//  2. Within the login grace period: trust the in-memory session as-is. The
//     just-issued tokens are trusted by construction; a verification racing
//     the login could be computed against pre-login state and wrongly reset
//     the session.
//  3. A cached identity exists (in memory, or restored from the durable
//     slot): unblock the UI as Authenticated immediately and verify in the
//     background; only an authoritative rejection may evict the user.
//  4. A token but no cached identity: block with a loading indicator and
//     fetch the profile synchronously; any failure here clears the tokens.
func (m *Manager) CheckAuth(ctx context.Context) error {
	pair, err := m.tokens.Get(ctx)
	if err != nil {
		return err
	}
	if pair == nil {
		m.clearMemory()
		return nil
	}

	if m.withinGrace() {
		m.mu.Lock()
		m.initialized = true
		m.mu.Unlock()
		m.notify()
		return nil
	}

	m.mu.Lock()
	haveIdentity := m.user != nil && m.status == StatusAuthenticated
	m.mu.Unlock()

	if !haveIdentity {
		if cached := m.restoreCached(ctx); cached != nil && cached.IsAuthenticated {
			m.mu.Lock()
			m.user = cached.User
			m.org = cached.Organization
			m.status = StatusAuthenticated
			m.mu.Unlock()
			haveIdentity = true
		}
	}

	if haveIdentity {
		m.mu.Lock()
		m.initialized = true
		m.mu.Unlock()
		m.notify()

		// Detached from the caller's context: navigation away must not
		// abort verification, only logout does.
		go m.backgroundVerify(context.Background())
		return nil
	}

	return m.resolveFromServer(ctx)
}

// clearMemory resets to Anonymous without touching storage (there is nothing
// stored to clear on this path).
func (m *Manager) clearMemory() {
	m.mu.Lock()
	m.user = nil
	m.org = nil
	m.status = StatusAnonymous
	m.initialized = true
	m.loading = false
	m.mu.Unlock()
	m.notify()
}

// resolveFromServer is the blocking cold-start path: a token exists but no
// cached identity does, so nothing can render until the server answers.
func (m *Manager) resolveFromServer(ctx context.Context) error {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()
	m.notify()

	ctx, done, err := m.requests.Track(ctx)
	if err != nil {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
		return err
	}
	defer done()

	token, err := m.ensureAccessToken(ctx)
	if err == nil {
		var profile *authapi.Profile
		profile, err = m.api.GetProfile(ctx, token)
		if err == nil && profile.User != nil {
			m.mu.Lock()
			m.user = profile.User
			m.org = profile.Organization
			m.status = StatusAuthenticated
			m.initialized = true
			m.loading = false
			m.mu.Unlock()

			m.persistCached(ctx)
			m.notify()
			return nil
		}
	}

	// No cached identity to fall back on: any failure means start over.
	m.clearSession(ctx)
	return err
}

// backgroundVerify confirms a restored session against the profile endpoint
// without blocking the UI. Transient failures retry exactly once after a
// fixed delay and then give up, leaving the user authenticated on cached
// data; only an authoritative 401/403 clears the session.
func (m *Manager) backgroundVerify(ctx context.Context) {
	if !m.verifyLimiter.Allow() {
		return
	}

	m.mu.Lock()
	current := m.user
	m.mu.Unlock()
	if current == nil {
		return
	}

	profile, err := m.fetchProfileFast(ctx)
	if err == nil {
		m.mergeProfile(ctx, current.ID, profile)
		return
	}
	if authapi.IsAuthoritative(err) {
		m.clearSession(ctx)
		return
	}
	if errors.Is(err, inflight.ErrLoggingOut) || ctx.Err() != nil {
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(m.cfg.VerifyRetryDelay):
	}

	profile, err = m.fetchProfileFast(ctx)
	switch {
	case err == nil:
		m.mergeProfile(ctx, current.ID, profile)
	case authapi.IsAuthoritative(err):
		m.clearSession(ctx)
	default:
		m.log.Debug("background verification failed, keeping cached session",
			"user_id", current.ID, "error", err)
	}
}

func (m *Manager) fetchProfileFast(ctx context.Context) (*authapi.Profile, error) {
	ctx, done, err := m.requests.Track(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	token, err := m.ensureAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return m.api.GetProfileFast(ctx, token)
}

// mergeProfile applies a successful verification, provided the session still
// belongs to the same user and no logout crept in between.
func (m *Manager) mergeProfile(ctx context.Context, wantUserID string, profile *authapi.Profile) {
	if m.requests.LoggingOut() {
		return
	}
	if profile == nil || profile.User == nil {
		return
	}

	m.mu.Lock()
	if m.status != StatusAuthenticated || m.user == nil || m.user.ID != wantUserID {
		m.mu.Unlock()
		return
	}
	if profile.User.ID != wantUserID {
		// The identity authority answered for a different user; the cached
		// session is definitively wrong.
		m.mu.Unlock()
		m.clearSession(ctx)
		return
	}
	m.user = profile.User
	if profile.Organization != nil {
		m.org = profile.Organization
	}
	m.mu.Unlock()

	m.persistCached(ctx)
	m.notify()
}

// ensureAccessToken returns an access token that is not about to expire,
// refreshing through the single-flight group when needed.
func (m *Manager) ensureAccessToken(ctx context.Context) (string, error) {
	pair, err := m.tokens.Get(ctx)
	if err != nil {
		return "", err
	}
	if pair == nil {
		return "", ErrNotAuthenticated
	}
	if !tokens.Expired(pair.AccessToken, m.cfg.RefreshExpiryBuffer) {
		return pair.AccessToken, nil
	}

	result, err := m.refreshTokens(ctx)
	if err != nil {
		return "", err
	}
	return result.Tokens.AccessToken, nil
}

// refreshTokens exchanges the refresh token for a new pair. At most one
// exchange is in flight at a time; concurrent callers await and share the
// same result, so a refresh token is never consumed twice.
func (m *Manager) refreshTokens(ctx context.Context) (*authapi.AuthResult, error) {
	v, err, _ := m.refresh.Do("refresh", func() (any, error) {
		pair, err := m.tokens.Get(ctx)
		if err != nil {
			return nil, err
		}
		if pair == nil {
			return nil, ErrNotAuthenticated
		}

		result, err := m.api.RefreshToken(ctx, pair.RefreshToken)
		if err != nil {
			return nil, err
		}
		if err := m.tokens.Set(ctx, result.Tokens); err != nil {
			return nil, err
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*authapi.AuthResult), nil
}
