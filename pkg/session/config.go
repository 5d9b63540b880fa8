package session

import (
	"time"

	"golang.org/x/time/rate"
)

// Config tunes the session manager's timing behavior. The zero value gets
// sensible defaults; the constants behind them are deliberately tunable
// rather than baked in.
type Config struct {
	// GracePeriod is the window after a successful login or second-factor
	// completion during which CheckAuth trusts the in-memory session without
	// a server round trip. Must be much longer than one network round trip.
	GracePeriod time.Duration

	// VerifyRetryDelay is the fixed pause before the single retry of a
	// failed background verification. Long enough to ride out a brief
	// outage.
	VerifyRetryDelay time.Duration

	// RefreshExpiryBuffer refreshes the access token this long before its
	// actual expiry so requests never race the cutoff.
	RefreshExpiryBuffer time.Duration

	// VerifyRate and VerifyBurst bound how often background verification may
	// hit the profile endpoint, so a hot reload loop cannot hammer it.
	VerifyRate  rate.Limit
	VerifyBurst int
}

const (
	defaultGracePeriod      = 10 * time.Second
	defaultVerifyRetryDelay = 5 * time.Second
	defaultExpiryBuffer     = 30 * time.Second
	defaultVerifyBurst      = 5
)

func (c Config) withDefaults() Config {
	if c.GracePeriod <= 0 {
		c.GracePeriod = defaultGracePeriod
	}
	if c.VerifyRetryDelay <= 0 {
		c.VerifyRetryDelay = defaultVerifyRetryDelay
	}
	if c.RefreshExpiryBuffer <= 0 {
		c.RefreshExpiryBuffer = defaultExpiryBuffer
	}
	if c.VerifyRate <= 0 {
		c.VerifyRate = rate.Every(time.Second)
	}
	if c.VerifyBurst <= 0 {
		c.VerifyBurst = defaultVerifyBurst
	}
	return c
}
