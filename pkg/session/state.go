package session

import (
	"github.com/fleetsure/fleetsure-go/pkg/authapi"
)

// Status is the session state machine's current state.
type Status int

const (
	// StatusAnonymous is the quiescent logged-out state.
	StatusAnonymous Status = iota

	// StatusAuthenticating means a login call is in flight.
	StatusAuthenticating

	// StatusAwaitingSecondFactor means login succeeded up to the second
	// factor and a live challenge exists.
	StatusAwaitingSecondFactor

	// StatusAuthenticated is the quiescent logged-in state; User is never
	// nil here.
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAwaitingSecondFactor:
		return "awaiting_second_factor"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// TwoFactorState is the challenge portion of a snapshot, shaped for the 2FA
// screen.
type TwoFactorState struct {
	Required  bool
	TempToken string
	UserID    string
}

// Snapshot is a point-in-time copy of the observable session state. The UI
// renders from snapshots; it never reads manager internals.
type Snapshot struct {
	User         *authapi.User
	Organization *authapi.Organization
	Status       Status

	IsAuthenticated bool
	IsLoading       bool
	IsInitialized   bool

	TwoFactor TwoFactorState

	BiometricAvailable bool
	BiometricEnrolled  bool
}

// cachedSession is the durable fast-cold-start payload: enough identity to
// render the shell immediately while background verification runs.
type cachedSession struct {
	User            *authapi.User         `json:"user"`
	Organization    *authapi.Organization `json:"organization,omitempty"`
	IsAuthenticated bool                  `json:"is_authenticated"`
}
