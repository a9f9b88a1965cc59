package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_PathIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := OpenBackend(file, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestBackendUpdate(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	key := []byte("k")

	t.Run("commits on success", func(t *testing.T) {
		err := backend.update(ctx, func(tx *badger.Txn) error {
			return tx.Set(key, []byte("v"))
		})
		require.NoError(t, err)

		err = backend.view(ctx, func(tx *badger.Txn) error {
			_, err := tx.Get(key)
			return err
		})
		assert.NoError(t, err)
	})

	t.Run("discards on failure", func(t *testing.T) {
		other := []byte("other")
		err := backend.update(ctx, func(tx *badger.Txn) error {
			if err := tx.Set(other, []byte("v")); err != nil {
				return err
			}
			return assert.AnError
		})
		assert.Equal(t, assert.AnError, err)

		err = backend.view(ctx, func(tx *badger.Txn) error {
			_, err := tx.Get(other)
			return err
		})
		assert.ErrorIs(t, err, badger.ErrKeyNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := backend.update(cctx, func(tx *badger.Txn) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNextIDSkipsZero(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	seq, err := backend.GetSequence("test_sequence")
	require.NoError(t, err)
	defer seq.Release()

	id1, err := nextID(seq)
	require.NoError(t, err)
	id2, err := nextID(seq)
	require.NoError(t, err)

	assert.NotZero(t, id1)
	assert.Greater(t, id2, id1)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(badger.ErrConflict))
	assert.True(t, IsRetryable(fmt.Errorf("commit: %w", badger.ErrConflict)))
	assert.True(t, IsRetryable(badger.ErrBlockedWrites))
	assert.False(t, IsRetryable(badger.ErrTxnTooBig))
	assert.False(t, IsRetryable(fmt.Errorf("commit: %w", badger.ErrTxnTooBig)))
	assert.False(t, IsRetryable(badger.ErrKeyNotFound))
	assert.False(t, IsRetryable(errors.New("boom")))
}
