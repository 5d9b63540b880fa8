package twofactor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateTOTPCode(t *testing.T) {
	t.Parallel()

	t.Run("accepts six digits", func(t *testing.T) {
		require.NoError(t, ValidateTOTPCode("123456"))
		require.NoError(t, ValidateTOTPCode("000000"))
	})

	t.Run("rejects partial input", func(t *testing.T) {
		require.ErrorIs(t, ValidateTOTPCode("123"), ErrInvalidTOTPCode)
		require.ErrorIs(t, ValidateTOTPCode(""), ErrInvalidTOTPCode)
		require.ErrorIs(t, ValidateTOTPCode("1234567"), ErrInvalidTOTPCode)
	})

	t.Run("rejects non-numeric input", func(t *testing.T) {
		require.ErrorIs(t, ValidateTOTPCode("12a456"), ErrInvalidTOTPCode)
		require.ErrorIs(t, ValidateTOTPCode("12 456"), ErrInvalidTOTPCode)
		require.ErrorIs(t, ValidateTOTPCode("12345½"), ErrInvalidTOTPCode)
	})
}

func TestNormalizeBackupCode(t *testing.T) {
	t.Parallel()

	t.Run("uppercases", func(t *testing.T) {
		got, err := NormalizeBackupCode("ab12cd34")
		require.NoError(t, err)
		require.Equal(t, "AB12CD34", got)
	})

	t.Run("case variants are equivalent", func(t *testing.T) {
		lower, err := NormalizeBackupCode("ab12cd34")
		require.NoError(t, err)
		upper, err := NormalizeBackupCode("AB12CD34")
		require.NoError(t, err)
		require.Equal(t, upper, lower)
	})

	t.Run("trims whitespace", func(t *testing.T) {
		got, err := NormalizeBackupCode("  ab12cd34\n")
		require.NoError(t, err)
		require.Equal(t, "AB12CD34", got)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := NormalizeBackupCode("ab12cd3")
		require.ErrorIs(t, err, ErrInvalidBackupCode)
		_, err = NormalizeBackupCode("ab12cd345")
		require.ErrorIs(t, err, ErrInvalidBackupCode)
		_, err = NormalizeBackupCode("")
		require.ErrorIs(t, err, ErrInvalidBackupCode)
	})
}
