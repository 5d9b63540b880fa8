package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/fleetsure/fleetsure-go/pkg/authapi"
	"github.com/fleetsure/fleetsure-go/pkg/keyring"
	"github.com/fleetsure/fleetsure-go/pkg/keyring/drivers/memory"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return signed
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := NewStore(memory.New())

	pair, err := s.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, pair)

	want := authapi.TokenPair{AccessToken: "access", RefreshToken: "refresh"}
	require.NoError(t, s.Set(ctx, want))

	pair, err = s.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, &want, pair)

	require.NoError(t, s.Clear(ctx))
	pair, err = s.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, pair)

	// Clear is idempotent.
	require.NoError(t, s.Clear(ctx))
}

func TestStorePurgesMalformedSlot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ring := memory.New()
	require.NoError(t, ring.Set(ctx, keyring.KeyTokens, []byte("not json")))

	s := NewStore(ring)
	pair, err := s.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, pair)

	_, err = ring.Get(ctx, keyring.KeyTokens)
	require.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestStorePurgesPairWithoutRefreshToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ring := memory.New()
	require.NoError(t, ring.Set(ctx, keyring.KeyTokens, []byte(`{"access_token":"a"}`)))

	s := NewStore(ring)
	pair, err := s.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, pair)
}

func TestExpiresAt(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, err := ExpiresAt(signedToken(t, exp))
	require.NoError(t, err)
	require.WithinDuration(t, exp, got, time.Second)
}

func TestExpiresAtMalformed(t *testing.T) {
	t.Parallel()

	_, err := ExpiresAt("not-a-jwt")
	require.Error(t, err)
}

func TestExpired(t *testing.T) {
	t.Parallel()

	t.Run("fresh token", func(t *testing.T) {
		token := signedToken(t, time.Now().Add(time.Hour))
		require.False(t, Expired(token, 30*time.Second))
	})

	t.Run("expired token", func(t *testing.T) {
		token := signedToken(t, time.Now().Add(-time.Minute))
		require.True(t, Expired(token, 30*time.Second))
	})

	t.Run("inside the buffer counts as expired", func(t *testing.T) {
		token := signedToken(t, time.Now().Add(10*time.Second))
		require.True(t, Expired(token, 30*time.Second))
	})

	t.Run("unparseable counts as expired", func(t *testing.T) {
		require.True(t, Expired("garbage", 30*time.Second))
	})
}
