package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fleetsure/fleetsure-go/pkg/keyring"
)

func TestBoltStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "keyring.db")
	s, err := NewStore(path, nil)
	require.NoError(t, err)
	defer s.Close()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "absent")
		require.ErrorIs(t, err, keyring.ErrNotFound)
	})

	t.Run("set get delete", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "k", []byte("v1")))
		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v1"), got)

		require.NoError(t, s.Set(ctx, "k", []byte("v2")))
		got, err = s.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v2"), got)

		require.NoError(t, s.Delete(ctx, "k"))
		_, err = s.Get(ctx, "k")
		require.ErrorIs(t, err, keyring.ErrNotFound)
		require.NoError(t, s.Delete(ctx, "k"))
	})
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "keyring.db")
	s, err := NewStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "durable", []byte("survives")))
	require.NoError(t, s.Close())

	reopened, err := NewStore(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "durable")
	require.NoError(t, err)
	require.Equal(t, []byte("survives"), got)
}
