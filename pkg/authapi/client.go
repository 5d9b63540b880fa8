package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// API is the auth-service surface the session core consumes. Tests substitute
// fakes; Client is the production implementation.
type API interface {
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	ValidateSecondFactor(ctx context.Context, tempToken, totpCode string) (*AuthResult, error)
	UseBackupCode(ctx context.Context, tempToken, backupCode string) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error)
	GetProfile(ctx context.Context, accessToken string) (*Profile, error)
	GetProfileFast(ctx context.Context, accessToken string) (*Profile, error)
	Logout(ctx context.Context, accessToken string) error
}

// Client is an HTTP client for the Fleetsure auth service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

var _ API = (*Client)(nil)

// NewClient creates a client for the auth service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login performs a primary-factor login. When the account has two-factor
// authentication enabled the error is a *TwoFactorRequiredError carrying the
// challenge temp token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	var result AuthResult
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/login", "", creds, &result, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ValidateSecondFactor exchanges a challenge temp token plus a TOTP code for
// a full token pair.
func (c *Client) ValidateSecondFactor(ctx context.Context, tempToken, totpCode string) (*AuthResult, error) {
	body := map[string]string{"temp_token": tempToken, "code": totpCode}

	var result AuthResult
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/2fa/validate", "", body, &result, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UseBackupCode exchanges a challenge temp token plus a single-use backup
// code for a full token pair.
func (c *Client) UseBackupCode(ctx context.Context, tempToken, backupCode string) (*AuthResult, error) {
	body := map[string]string{"temp_token": tempToken, "backup_code": backupCode}

	var result AuthResult
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/2fa/backup", "", body, &result, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RefreshToken exchanges a refresh token for a new token pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	body := map[string]string{"refresh_token": refreshToken}

	var result AuthResult
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/refresh", "", body, &result, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetProfile fetches the full profile of the token's owner.
func (c *Client) GetProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var profile Profile
	err := c.doJSON(ctx, http.MethodGet, "/v1/profile", accessToken, nil, &profile, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfileFast fetches the lightweight identity-only profile used by
// background session verification.
func (c *Client) GetProfileFast(ctx context.Context, accessToken string) (*Profile, error) {
	var profile Profile
	err := c.doJSON(ctx, http.MethodGet, "/v1/profile/fast", accessToken, nil, &profile, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Logout tells the server to revoke the session. Callers treat this as
// best-effort; the local session is torn down regardless of the outcome.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/auth/logout", accessToken, nil, nil, http.StatusNoContent)
}

// doJSON performs a JSON request and decodes the response into target (which
// may be nil for empty responses). Non-expected statuses are parsed into
// typed errors.
func (c *Client) doJSON(
	ctx context.Context,
	method, path, bearer string,
	body, target any,
	expectedStatus int,
) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, raw)
	}

	if target != nil {
		if err := json.Unmarshal(raw, target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// parseErrorResponse turns an HTTP error response into a typed error. A 409
// with a temp token is a second-factor challenge; everything else becomes an
// *APIError carrying the status code.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		if resp.StatusCode == http.StatusConflict &&
			errResp.Error == ErrorCodeSecondFactorRequired && errResp.TempToken != "" {
			return &TwoFactorRequiredError{
				TempToken: errResp.TempToken,
				UserID:    errResp.UserID,
				Methods:   errResp.Methods,
			}
		}
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
