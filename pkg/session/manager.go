// Package session implements the client-side session state machine: login,
// two-factor completion, silent restore and verification, biometric
// re-authentication and coordinated logout.
//
// The Manager is the single writer of session state. Every other component
// (token store, challenge manager, credential vault, request coordinator)
// mutates only through its own narrow contract, driven from here, so the
// state machine's invariants stay checkable in one place.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/fleetsure/fleetsure-go/pkg/authapi"
	"github.com/fleetsure/fleetsure-go/pkg/inflight"
	"github.com/fleetsure/fleetsure-go/pkg/keyring"
	"github.com/fleetsure/fleetsure-go/pkg/tokens"
	"github.com/fleetsure/fleetsure-go/pkg/twofactor"
	"github.com/fleetsure/fleetsure-go/pkg/vault"
)

var (
	// ErrNoChallenge reports a second-factor submission with no live
	// challenge, in memory or in the durable slot.
	ErrNoChallenge = errors.New("session: no second-factor challenge in progress")

	// ErrNotAuthenticated reports an operation that requires an
	// authenticated session.
	ErrNotAuthenticated = errors.New("session: not authenticated")
)

// Options wires the manager's collaborators.
type Options struct {
	// API is the auth-service client. Required.
	API authapi.API

	// Keyring is the durable client storage for tokens, the cached session
	// and the pending challenge. Required.
	Keyring keyring.Keyring

	// Bridge is the platform secure-storage integration for biometric
	// credentials. Defaults to vault.Unavailable.
	Bridge vault.Bridge

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	Config Config

	// ClearCache, when set, is invoked from a detached task after logout to
	// drop cached domain data (claims, vehicles, policies). It must never
	// block the logout itself.
	ClearCache func()
}

// Manager drives the session state machine.
type Manager struct {
	api        authapi.API
	tokens     *tokens.Store
	challenges *twofactor.Manager
	vault      *vault.Vault
	requests   *inflight.Coordinator
	ring       keyring.Keyring
	cfg        Config
	log        *slog.Logger
	clearCache func()

	refresh       singleflight.Group
	verifyLimiter *rate.Limiter

	mu          sync.Mutex
	status      Status
	user        *authapi.User
	org         *authapi.Organization
	initialized bool
	loading     bool
	lastAuth    time.Time

	subMu sync.Mutex
	subs  []func(Snapshot)
}

// New builds a Manager. It starts in StatusAnonymous with initialized=false;
// call CheckAuth once at process start to restore any prior session.
func New(opts Options) (*Manager, error) {
	if opts.API == nil {
		return nil, errors.New("session: Options.API is required")
	}
	if opts.Keyring == nil {
		return nil, errors.New("session: Options.Keyring is required")
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	bridge := opts.Bridge
	if bridge == nil {
		bridge = vault.Unavailable{}
	}

	cfg := opts.Config.withDefaults()
	return &Manager{
		api:           opts.API,
		tokens:        tokens.NewStore(opts.Keyring),
		challenges:    twofactor.NewManager(opts.Keyring),
		vault:         vault.New(bridge, log),
		requests:      inflight.New(),
		ring:          opts.Keyring,
		cfg:           cfg,
		log:           log,
		clearCache:    opts.ClearCache,
		verifyLimiter: rate.NewLimiter(cfg.VerifyRate, cfg.VerifyBurst),
		status:        StatusAnonymous,
	}, nil
}

// Requests exposes the request coordinator so domain API callers share the
// logout guard and mass-cancellation.
func (m *Manager) Requests() *inflight.Coordinator { return m.requests }

// Vault exposes the credential vault (read-side probes only; mutations go
// through the manager's biometric operations).
func (m *Manager) Vault() *vault.Vault { return m.vault }

// Snapshot returns a copy of the observable session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	snap := Snapshot{
		User:            m.user,
		Organization:    m.org,
		Status:          m.status,
		IsAuthenticated: m.status == StatusAuthenticated,
		IsLoading:       m.loading,
		IsInitialized:   m.initialized,
	}
	m.mu.Unlock()

	if ch, err := m.challenges.Restore(context.Background()); err == nil && ch != nil {
		if snap.Status == StatusAwaitingSecondFactor {
			snap.TwoFactor = TwoFactorState{Required: true, TempToken: ch.TempToken, UserID: ch.UserID}
		}
	}

	snap.BiometricAvailable = m.vault.Available()
	snap.BiometricEnrolled = m.vault.HasCredential(context.Background())
	return snap
}

// OnChange registers fn to be called with a fresh snapshot after every state
// transition. Callbacks run synchronously on the mutating goroutine and must
// return quickly.
func (m *Manager) OnChange(fn func(Snapshot)) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subs = append(m.subs, fn)
}

func (m *Manager) notify() {
	m.subMu.Lock()
	subs := make([]func(Snapshot), len(m.subs))
	copy(subs, m.subs)
	m.subMu.Unlock()

	if len(subs) == 0 {
		return
	}
	snap := m.Snapshot()
	for _, fn := range subs {
		fn(snap)
	}
}

// Login submits primary credentials. On success the session becomes
// Authenticated. When the account requires a second factor the session moves
// to AwaitingSecondFactor, a challenge is persisted, and the returned error
// is a *authapi.TwoFactorRequiredError for the UI to branch on. Any other
// failure leaves the session Anonymous.
func (m *Manager) Login(ctx context.Context, creds authapi.Credentials) error {
	ctx, done, err := m.requests.Track(ctx)
	if err != nil {
		return err
	}
	defer done()

	m.setTransient(StatusAuthenticating, true)

	result, err := m.api.Login(ctx, creds)

	// Never resurrect state a concurrent logout already tore down.
	if m.requests.LoggingOut() {
		return inflight.ErrLoggingOut
	}

	var tfa *authapi.TwoFactorRequiredError
	switch {
	case errors.As(err, &tfa):
		if _, berr := m.challenges.Begin(ctx, tfa.TempToken, tfa.UserID); berr != nil {
			m.setTransient(StatusAnonymous, false)
			return berr
		}
		m.setTransient(StatusAwaitingSecondFactor, false)
		return tfa

	case err != nil:
		m.setTransient(StatusAnonymous, false)
		return err
	}

	return m.applyAuthResult(ctx, result)
}

// CompleteTwoFactor verifies a TOTP code against the live challenge. A wrong
// code leaves the challenge open for another attempt.
func (m *Manager) CompleteTwoFactor(ctx context.Context, code string) error {
	if err := twofactor.ValidateTOTPCode(code); err != nil {
		return err
	}
	return m.completeChallenge(ctx, func(ctx context.Context, tempToken string) (*authapi.AuthResult, error) {
		return m.api.ValidateSecondFactor(ctx, tempToken, code)
	})
}

// CompleteTwoFactorBackup verifies a backup code against the live challenge.
// Codes are case-insensitive; a wrong code leaves the challenge open.
func (m *Manager) CompleteTwoFactorBackup(ctx context.Context, code string) error {
	normalized, err := twofactor.NormalizeBackupCode(code)
	if err != nil {
		return err
	}
	return m.completeChallenge(ctx, func(ctx context.Context, tempToken string) (*authapi.AuthResult, error) {
		return m.api.UseBackupCode(ctx, tempToken, normalized)
	})
}

func (m *Manager) completeChallenge(
	ctx context.Context,
	verify func(ctx context.Context, tempToken string) (*authapi.AuthResult, error),
) error {
	ctx, done, err := m.requests.Track(ctx)
	if err != nil {
		return err
	}
	defer done()

	ch, err := m.challenges.Restore(ctx)
	if err != nil {
		return err
	}
	if ch == nil {
		return ErrNoChallenge
	}

	result, err := verify(ctx, ch.TempToken)
	if err != nil {
		// Challenge stays live so the user may retry.
		return err
	}

	if m.requests.LoggingOut() {
		return inflight.ErrLoggingOut
	}

	if err := m.challenges.Complete(ctx); err != nil {
		m.log.Warn("clearing completed challenge failed", "error", err)
	}
	return m.applyAuthResult(ctx, result)
}

// CancelTwoFactor abandons the pending challenge and returns the session to
// Anonymous. Idempotent.
func (m *Manager) CancelTwoFactor(ctx context.Context) error {
	if err := m.challenges.Complete(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	if m.status == StatusAwaitingSecondFactor {
		m.status = StatusAnonymous
	}
	m.mu.Unlock()

	m.notify()
	return nil
}

// applyAuthResult lands a token-issuing response: persist the pair, adopt
// the identity, record the grace-period marker and mark the machine
// initialized.
func (m *Manager) applyAuthResult(ctx context.Context, result *authapi.AuthResult) error {
	if result == nil || result.User == nil {
		return fmt.Errorf("session: auth response missing user")
	}

	if err := m.tokens.Set(ctx, result.Tokens); err != nil {
		m.setTransient(StatusAnonymous, false)
		return err
	}

	m.mu.Lock()
	m.user = result.User
	m.org = result.Organization
	m.status = StatusAuthenticated
	m.lastAuth = time.Now()
	m.initialized = true
	m.loading = false
	m.mu.Unlock()

	m.persistCached(ctx)
	m.notify()
	return nil
}

// persistCached writes the fast-cold-start snapshot.
func (m *Manager) persistCached(ctx context.Context) {
	m.mu.Lock()
	cached := cachedSession{
		User:            m.user,
		Organization:    m.org,
		IsAuthenticated: m.status == StatusAuthenticated,
	}
	m.mu.Unlock()

	raw, err := json.Marshal(cached)
	if err != nil {
		return
	}
	if err := m.ring.Set(ctx, keyring.KeySession, raw); err != nil {
		m.log.Debug("persisting cached session failed", "error", err)
	}
}

// restoreCached reads the fast-cold-start snapshot, purging malformed state.
func (m *Manager) restoreCached(ctx context.Context) *cachedSession {
	raw, err := m.ring.Get(ctx, keyring.KeySession)
	if err != nil {
		return nil
	}

	var cached cachedSession
	if err := json.Unmarshal(raw, &cached); err != nil || cached.User == nil {
		_ = m.ring.Delete(ctx, keyring.KeySession)
		return nil
	}
	return &cached
}

// clearSession tears down identity, tokens and cached state after an
// authoritative rejection.
func (m *Manager) clearSession(ctx context.Context) {
	_ = m.tokens.Clear(ctx)
	_ = m.ring.Delete(ctx, keyring.KeySession)

	m.mu.Lock()
	m.user = nil
	m.org = nil
	m.status = StatusAnonymous
	m.lastAuth = time.Time{}
	m.initialized = true
	m.loading = false
	m.mu.Unlock()

	m.notify()
}

// setTransient updates status and the loading flag together.
func (m *Manager) setTransient(status Status, loading bool) {
	m.mu.Lock()
	m.status = status
	m.loading = loading
	m.mu.Unlock()
	m.notify()
}

// withinGrace reports whether the last successful authentication is recent
// enough to trust without re-verification.
func (m *Manager) withinGrace() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.lastAuth.IsZero() && time.Since(m.lastAuth) < m.cfg.GracePeriod
}
