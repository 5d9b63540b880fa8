package authapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// newFakeAuthServer stands in for the Fleetsure auth service. The single
// seeded account requires a second factor, and the 2FA endpoint validates
// real TOTP codes against the shared secret.
func newFakeAuthServer(t *testing.T, totpSecret string) *httptest.Server {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, status int, body any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}

	authResult := AuthResult{
		User:         &User{ID: "u1", Email: "driver@example.com", Name: "Sam Driver", Role: "manager"},
		Organization: &Organization{ID: "org1", Name: "Acme Haulage"},
		Tokens:       TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))

		if creds.Password != "correct-horse" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":             ErrorCodeInvalidCredentials,
				"error_description": "invalid email or password",
			})
			return
		}
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      ErrorCodeSecondFactorRequired,
			"temp_token": "temp-abc",
			"user_id":    "u1",
			"methods":    []string{"totp", "backup_codes"},
		})
	})
	mux.HandleFunc("POST /v1/auth/2fa/validate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TempToken string `json:"temp_token"`
			Code      string `json:"code"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.TempToken != "temp-abc" || !totp.Validate(req.Code, totpSecret) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":             ErrorCodeInvalidCode,
				"error_description": "invalid code",
			})
			return
		}
		writeJSON(w, http.StatusOK, authResult)
	})
	mux.HandleFunc("POST /v1/auth/2fa/backup", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TempToken  string `json:"temp_token"`
			BackupCode string `json:"backup_code"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.TempToken != "temp-abc" || req.BackupCode != "AB12CD34" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":             ErrorCodeInvalidCode,
				"error_description": "invalid backup code",
			})
			return
		}
		writeJSON(w, http.StatusOK, authResult)
	})
	mux.HandleFunc("POST /v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.RefreshToken != "refresh-1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":             ErrorCodeInvalidToken,
				"error_description": "refresh token revoked",
			})
			return
		}
		rotated := authResult
		rotated.Tokens = TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"}
		writeJSON(w, http.StatusOK, rotated)
	})
	mux.HandleFunc("GET /v1/profile/fast", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":             ErrorCodeInvalidToken,
				"error_description": "access token invalid",
			})
			return
		}
		writeJSON(w, http.StatusOK, Profile{User: authResult.User, Organization: authResult.Organization})
	})
	mux.HandleFunc("POST /v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestLoginSurfacesSecondFactorChallenge(t *testing.T) {
	t.Parallel()

	server := newFakeAuthServer(t, "")
	client := NewClient(server.URL)

	_, err := client.Login(context.Background(),
		Credentials{Email: "driver@example.com", Password: "correct-horse"})

	var tfa *TwoFactorRequiredError
	require.ErrorAs(t, err, &tfa)
	require.Equal(t, "temp-abc", tfa.TempToken)
	require.Equal(t, "u1", tfa.UserID)
	require.Contains(t, tfa.Methods, "totp")
	require.False(t, IsAuthoritative(err))
}

func TestLoginRejection(t *testing.T) {
	t.Parallel()

	server := newFakeAuthServer(t, "")
	client := NewClient(server.URL)

	_, err := client.Login(context.Background(),
		Credentials{Email: "driver@example.com", Password: "wrong"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, ErrorCodeInvalidCredentials, apiErr.Code)
	require.True(t, IsAuthoritative(err))
}

func TestValidateSecondFactorWithRealTOTP(t *testing.T) {
	t.Parallel()

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "Fleetsure", AccountName: "driver@example.com"})
	require.NoError(t, err)

	server := newFakeAuthServer(t, key.Secret())
	client := NewClient(server.URL)
	ctx := context.Background()

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)

	result, err := client.ValidateSecondFactor(ctx, "temp-abc", code)
	require.NoError(t, err)
	require.Equal(t, "u1", result.User.ID)
	require.Equal(t, "refresh-1", result.Tokens.RefreshToken)

	t.Run("wrong code is rejected", func(t *testing.T) {
		_, err := client.ValidateSecondFactor(ctx, "temp-abc", "000000")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, ErrorCodeInvalidCode, apiErr.Code)
	})

	t.Run("stale temp token is rejected", func(t *testing.T) {
		_, err := client.ValidateSecondFactor(ctx, "temp-stale", code)
		require.Error(t, err)
	})
}

func TestUseBackupCode(t *testing.T) {
	t.Parallel()

	server := newFakeAuthServer(t, "")
	client := NewClient(server.URL)

	result, err := client.UseBackupCode(context.Background(), "temp-abc", "AB12CD34")
	require.NoError(t, err)
	require.Equal(t, "u1", result.User.ID)
}

func TestRefreshTokenRotation(t *testing.T) {
	t.Parallel()

	server := newFakeAuthServer(t, "")
	client := NewClient(server.URL)
	ctx := context.Background()

	result, err := client.RefreshToken(ctx, "refresh-1")
	require.NoError(t, err)
	require.Equal(t, "access-2", result.Tokens.AccessToken)
	require.Equal(t, "refresh-2", result.Tokens.RefreshToken)

	_, err = client.RefreshToken(ctx, "refresh-revoked")
	require.True(t, IsAuthoritative(err))
}

func TestGetProfileFast(t *testing.T) {
	t.Parallel()

	server := newFakeAuthServer(t, "")
	client := NewClient(server.URL)
	ctx := context.Background()

	profile, err := client.GetProfileFast(ctx, "access-1")
	require.NoError(t, err)
	require.Equal(t, "u1", profile.User.ID)
	require.Equal(t, "Acme Haulage", profile.Organization.Name)

	_, err = client.GetProfileFast(ctx, "access-stale")
	require.True(t, IsAuthoritative(err))
}

func TestLogout(t *testing.T) {
	t.Parallel()

	server := newFakeAuthServer(t, "")
	client := NewClient(server.URL)

	require.NoError(t, client.Logout(context.Background(), "access-1"))
}

func TestNetworkErrorIsNotAuthoritative(t *testing.T) {
	t.Parallel()

	// A connection refused must classify as transient, never authoritative.
	client := NewClient("http://127.0.0.1:1")
	_, err := client.GetProfileFast(context.Background(), "access-1")
	require.Error(t, err)
	require.False(t, IsAuthoritative(err))
}

func TestUnparseableErrorBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL)
	_, err := client.GetProfileFast(context.Background(), "access-1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, ErrorCodeServerError, apiErr.Code)
	require.False(t, IsAuthoritative(err))
}
