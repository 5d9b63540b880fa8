package keyring_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fleetsure/fleetsure-go/pkg/keyring"
	"github.com/fleetsure/fleetsure-go/pkg/keyring/drivers/memory"
)

func TestSealedRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	key, err := keyring.NewSealingKey()
	require.NoError(t, err)

	inner := memory.New()
	sealed := keyring.NewSealed(inner, key)

	require.NoError(t, sealed.Set(ctx, "slot", []byte("secret value")))

	got, err := sealed.Get(ctx, "slot")
	require.NoError(t, err)
	require.Equal(t, []byte("secret value"), got)

	// The inner store never sees plaintext.
	raw, err := inner.Get(ctx, "slot")
	require.NoError(t, err)
	require.NotEqual(t, []byte("secret value"), raw)
	require.NotContains(t, string(raw), "secret value")
}

func TestSealedWrongKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	keyA, err := keyring.NewSealingKey()
	require.NoError(t, err)
	keyB, err := keyring.NewSealingKey()
	require.NoError(t, err)

	inner := memory.New()
	require.NoError(t, keyring.NewSealed(inner, keyA).Set(ctx, "slot", []byte("v")))

	_, err = keyring.NewSealed(inner, keyB).Get(ctx, "slot")
	require.Error(t, err)
}

func TestSealedBindsSlotKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	key, err := keyring.NewSealingKey()
	require.NoError(t, err)

	inner := memory.New()
	sealed := keyring.NewSealed(inner, key)
	require.NoError(t, sealed.Set(ctx, "tokens", []byte("v")))

	// Copying ciphertext into another slot must fail to open.
	raw, err := inner.Get(ctx, "tokens")
	require.NoError(t, err)
	require.NoError(t, inner.Set(ctx, "other", raw))

	_, err = sealed.Get(ctx, "other")
	require.Error(t, err)
}

func TestSealedDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	key, err := keyring.NewSealingKey()
	require.NoError(t, err)

	sealed := keyring.NewSealed(memory.New(), key)
	require.NoError(t, sealed.Set(ctx, "slot", []byte("v")))
	require.NoError(t, sealed.Delete(ctx, "slot"))

	_, err = sealed.Get(ctx, "slot")
	require.ErrorIs(t, err, keyring.ErrNotFound)

	// Deleting again is fine.
	require.NoError(t, sealed.Delete(ctx, "slot"))
}
