package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry reports an access token without an exp claim.
var ErrNoExpiry = errors.New("tokens: access token has no expiry claim")

// ExpiresAt peeks the exp claim of an access token without verifying its
// signature. The client never trusts the token's contents for authorization,
// it only uses the expiry to schedule refreshes, so an unverified parse is
// sufficient.
func ExpiresAt(accessToken string) (time.Time, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, err
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// Expired reports whether the access token expires within buffer from now.
// Tokens that cannot be parsed are treated as expired so the caller falls
// back to a refresh.
func Expired(accessToken string, buffer time.Duration) bool {
	exp, err := ExpiresAt(accessToken)
	if err != nil {
		return true
	}
	return time.Now().Add(buffer).After(exp)
}
