/*
Package authapi is the typed HTTP client for the Fleetsure authentication
service. It covers the credential flows the session core drives: password
login, second-factor validation (TOTP and backup codes), refresh-token
exchange, profile fetches and best-effort logout.

The package deliberately contains no session logic. It translates HTTP
responses into typed results and typed errors so the session state machine
(pkg/session) can classify failures:

  - *TwoFactorRequiredError: login succeeded up to the second factor; carry
    the temp token into ValidateSecondFactor or UseBackupCode.
  - *APIError with status 401/403: authoritative rejection, the credential is
    definitively invalid.
  - Anything else (network errors, 5xx): transient, the caller must not treat
    the session as invalid.

Create a client and log in:

	client := authapi.NewClient("https://api.fleetsure.example")
	result, err := client.Login(ctx, authapi.Credentials{Email: email, Password: password})
	var tfa *authapi.TwoFactorRequiredError
	if errors.As(err, &tfa) {
		result, err = client.ValidateSecondFactor(ctx, tfa.TempToken, code)
	}
*/
package authapi
