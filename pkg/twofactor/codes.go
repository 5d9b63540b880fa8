package twofactor

import (
	"errors"
	"strings"
)

const (
	// TOTPCodeLength is the exact digit count of a TOTP code.
	TOTPCodeLength = 6

	// BackupCodeLength is the exact character count of a backup code.
	BackupCodeLength = 8
)

var (
	// ErrInvalidTOTPCode reports TOTP input that is not exactly six digits.
	ErrInvalidTOTPCode = errors.New("twofactor: code must be exactly 6 digits")

	// ErrInvalidBackupCode reports backup-code input that is not exactly
	// eight characters.
	ErrInvalidBackupCode = errors.New("twofactor: backup code must be exactly 8 characters")
)

// ValidateTOTPCode rejects partial or non-numeric TOTP input before any
// network call is made.
func ValidateTOTPCode(code string) error {
	if len(code) != TOTPCodeLength {
		return ErrInvalidTOTPCode
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ErrInvalidTOTPCode
		}
	}
	return nil
}

// NormalizeBackupCode trims surrounding whitespace and uppercases the code.
// Backup codes are case-insensitive on the wire; normalizing client-side
// keeps retries byte-identical.
func NormalizeBackupCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if len(code) != BackupCodeLength {
		return "", ErrInvalidBackupCode
	}
	return strings.ToUpper(code), nil
}
