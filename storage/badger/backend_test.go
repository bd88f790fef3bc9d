package badger

import (
	"bytes"
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
	tmpDir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(tmpDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_FilePath(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0644))

	backend, err := OpenBackend(tmpFile, false)
	assert.Error(t, err)
	assert.Nil(t, backend)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestWithTx(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	t.Run("write commits", func(t *testing.T) {
		err := backend.WithTx(func(tx *badger.Txn) error {
			return tx.Set([]byte("k"), []byte("v"))
		}, true)
		require.NoError(t, err)

		err = backend.WithTx(func(tx *badger.Txn) error {
			_, err := tx.Get([]byte("k"))
			return err
		}, false)
		assert.NoError(t, err)
	})

	t.Run("error discards", func(t *testing.T) {
		err := backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Set([]byte("gone"), []byte("v")); err != nil {
				return err
			}
			return assert.AnError
		}, true)
		assert.ErrorIs(t, err, assert.AnError)

		err = backend.WithTx(func(tx *badger.Txn) error {
			_, err := tx.Get([]byte("gone"))
			return err
		}, false)
		assert.ErrorIs(t, err, badger.ErrKeyNotFound)
	})
}

func TestWithBatchAndDeletePrefix(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	err = backend.WithBatch(func(wb *badger.WriteBatch) error {
		for _, k := range []string{"a/1", "a/2", "b/1"} {
			if err := wb.Set([]byte(k), []byte("v")); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	deleted, err := backend.DeletePrefix([]byte("a/"))
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	err = backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get([]byte("a/1"))
		assert.ErrorIs(t, err, badger.ErrKeyNotFound)
		_, err = tx.Get([]byte("b/1"))
		return err
	}, false)
	assert.NoError(t, err)
}

func TestMakeEntryKey_OrdersByID(t *testing.T) {
	k1 := makeEntryKey("doc_a", 2)
	k2 := makeEntryKey("doc_a", 256)
	assert.Less(t, string(k1), string(k2))
	assert.True(t, len(k1) > len(makeEntryPrefix("doc_a")))
	assert.False(t, bytes.HasPrefix(makeEntryKey("doc_ab", 1), makeEntryPrefix("doc_a")))
}
