package twofactor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntryPasteAutoSubmits(t *testing.T) {
	t.Parallel()

	var submissions []string
	entry := NewEntry(func(code string) { submissions = append(submissions, code) })

	// Pasting a full code into the first cell fills every cell and submits
	// exactly once.
	require.NoError(t, entry.Input(0, "123456"))
	require.Equal(t, []string{"123456"}, submissions)
	require.Equal(t, "123456", entry.Code())
}

func TestEntryPasteIntoMiddleCell(t *testing.T) {
	t.Parallel()

	var submissions []string
	entry := NewEntry(func(code string) { submissions = append(submissions, code) })

	require.NoError(t, entry.Input(3, "654321"))
	require.Equal(t, []string{"654321"}, submissions)
}

func TestEntryDigitByDigit(t *testing.T) {
	t.Parallel()

	var submissions []string
	entry := NewEntry(func(code string) { submissions = append(submissions, code) })

	digits := "123456"
	for i := 0; i < len(digits); i++ {
		require.NoError(t, entry.Input(i, string(digits[i])))
	}

	// Exactly one verification with the full string, never six partials.
	require.Equal(t, []string{"123456"}, submissions)
}

func TestEntryRejectsNonNumeric(t *testing.T) {
	t.Parallel()

	entry := NewEntry(nil)
	require.ErrorIs(t, entry.Input(0, "a"), ErrInvalidTOTPCode)
	require.ErrorIs(t, entry.Input(0, "abcdef"), ErrInvalidTOTPCode)
	require.Empty(t, entry.Code())
}

func TestEntryOutOfRangeCell(t *testing.T) {
	t.Parallel()

	entry := NewEntry(nil)
	require.Error(t, entry.Input(-1, "1"))
	require.Error(t, entry.Input(6, "1"))
}

func TestEntryResetAllowsRetry(t *testing.T) {
	t.Parallel()

	var submissions []string
	entry := NewEntry(func(code string) { submissions = append(submissions, code) })

	require.NoError(t, entry.Input(0, "111111"))
	require.ErrorIs(t, entry.Input(0, "2"), ErrEntryComplete)

	entry.Reset()
	require.Empty(t, entry.Code())
	require.NoError(t, entry.Input(0, "222222"))

	require.Equal(t, []string{"111111", "222222"}, submissions)
}

func TestEntryOverwriteCellDoesNotDoubleCount(t *testing.T) {
	t.Parallel()

	var submissions []string
	entry := NewEntry(func(code string) { submissions = append(submissions, code) })

	require.NoError(t, entry.Input(0, "1"))
	require.NoError(t, entry.Input(0, "9")) // correcting the same cell
	for i := 1; i < 6; i++ {
		require.NoError(t, entry.Input(i, "0"))
	}

	require.Equal(t, []string{"900000"}, submissions)
}
