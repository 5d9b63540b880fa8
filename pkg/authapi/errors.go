package authapi

import (
	"errors"
	"fmt"
	"net/http"
)

// API error codes returned by the auth service.
const (
	ErrorCodeInvalidCredentials   = "invalid_credentials"
	ErrorCodeInvalidCode          = "invalid_code"
	ErrorCodeInvalidToken         = "invalid_token"
	ErrorCodeSecondFactorRequired = "second_factor_required"
	ErrorCodeServerError          = "server_error"
)

// APIError is a structured error response from the auth service. It carries
// the HTTP status code so callers can distinguish authoritative rejections
// (401/403) from everything else.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// TwoFactorRequiredError is returned by Login when the primary factor
// succeeded but the account has two-factor authentication enabled. The
// server answers 409 Conflict with a single-use temp token to be presented
// alongside a TOTP or backup code.
type TwoFactorRequiredError struct {
	TempToken string
	UserID    string
	Methods   []string
}

func (e *TwoFactorRequiredError) Error() string {
	return fmt.Sprintf("second factor required: available methods=%v", e.Methods)
}

// IsAuthoritative reports whether err is a definitive rejection of the
// presented credential (HTTP 401 or 403). Only authoritative rejections may
// evict an established session; every other failure is transient.
func IsAuthoritative(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized ||
		apiErr.StatusCode == http.StatusForbidden
}
