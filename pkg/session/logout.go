package session

import (
	"context"
	"time"

	"github.com/fleetsure/fleetsure-go/pkg/keyring"
)

// serverLogoutTimeout bounds the detached server-side logout call.
const serverLogoutTimeout = 5 * time.Second

// Logout tears the session down fast, idempotently, and without waiting on
// the network. Concurrent calls collapse into one: the first raises the
// logging-out guard and does the work, later callers return immediately.
//
// Ordering matters here. The guard goes up first so nothing new starts,
// in-flight requests are cancelled so stale responses cannot write into the
// cleared session, then local state is torn down synchronously. The
// server-side revoke is fire-and-forget: the local session is already gone
// as far as the user is concerned, so its failure is logged and discarded.
func (m *Manager) Logout(ctx context.Context) error {
	if !m.requests.BeginLogout() {
		return nil
	}
	// Lowered unconditionally, even on panic, so the client can never be
	// stuck refusing all requests.
	defer m.requests.EndLogout()

	// Capture the token for the detached revoke before it is cleared.
	pair, _ := m.tokens.Get(ctx)

	m.requests.CancelAll()

	// Drop any in-flight refresh bookkeeping so a future login is not
	// poisoned by this session's leftovers.
	m.refresh.Forget("refresh")

	m.mu.Lock()
	m.lastAuth = time.Time{}
	m.mu.Unlock()

	m.vault.Clear(ctx)

	if pair != nil {
		accessToken := pair.AccessToken
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), serverLogoutTimeout)
			defer cancel()
			if err := m.api.Logout(ctx, accessToken); err != nil {
				m.log.Debug("server-side logout failed", "error", err)
			}
		}()
	}

	// Synchronous local teardown: tokens, challenge, cached snapshot,
	// in-memory identity. The UI sees Anonymous in the same tick.
	_ = m.tokens.Clear(ctx)
	_ = m.challenges.Complete(ctx)
	_ = m.ring.Delete(ctx, keyring.KeySession)

	m.mu.Lock()
	m.user = nil
	m.org = nil
	m.status = StatusAnonymous
	m.initialized = true
	m.loading = false
	m.mu.Unlock()
	m.notify()

	// Cached domain data clears off the critical path so it never delays
	// the logout-to-login-screen transition.
	if m.clearCache != nil {
		go m.clearCache()
	}
	return nil
}
