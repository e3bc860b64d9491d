package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niksmo/producthub/internal/core/port"
)

func testKV(t *testing.T, kv port.KV) {
	t.Helper()
	ctx := t.Context()

	_, err := kv.Get(ctx, "favorites-storage:missing")
	require.ErrorIs(t, err, port.ErrKeyNotFound)

	doc := []byte(`{"state":{"favorites":[1,2]},"version":0}`)
	require.NoError(t, kv.Set(ctx, "favorites-storage:abc", doc))

	got, err := kv.Get(ctx, "favorites-storage:abc")
	require.NoError(t, err)
	assert.JSONEq(t, string(doc), string(got))

	doc = []byte(`{"state":{"favorites":[]},"version":0}`)
	require.NoError(t, kv.Set(ctx, "favorites-storage:abc", doc))
	got, err = kv.Get(ctx, "favorites-storage:abc")
	require.NoError(t, err)
	assert.JSONEq(t, string(doc), string(got))

	_, err = kv.Get(ctx, "theme-storage:abc")
	assert.ErrorIs(t, err, port.ErrKeyNotFound, "keys are independent")
}

func TestFileKV(t *testing.T) {
	fsys := afero.NewMemMapFs()
	kv, err := NewFileKV(fsys, "/var/producthub")
	require.NoError(t, err)
	testKV(t, kv)

	ok, err := afero.Exists(fsys, "/var/producthub/favorites-storage:abc.json")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = afero.Exists(fsys, "/var/producthub/favorites-storage:abc.json.tmp")
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("KeyCannotEscapeDir", func(t *testing.T) {
		require.NoError(t, kv.Set(t.Context(), "../evil", []byte("x")))
		ok, err := afero.Exists(fsys, "/var/evil.json")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		assert.ErrorIs(t, kv.Set(ctx, "k", []byte("v")), context.Canceled)
	})
}

func TestRedisKV(t *testing.T) {
	mr := miniredis.RunT(t)
	kv, err := NewRedisKV(t.Context(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(kv.Close)

	testKV(t, kv)
	assert.True(t, mr.Exists("favorites-storage:abc"))

	t.Run("Unavailable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, err := NewRedisKV(t.Context(), addr)
		assert.Error(t, err)
	})
}

func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "producthub.db")
	kv, err := NewSQLiteKV(t.Context(), path)
	require.NoError(t, err)
	testKV(t, kv)
	kv.Close()

	t.Run("Reopen", func(t *testing.T) {
		kv, err := NewSQLiteKV(t.Context(), path)
		require.NoError(t, err)
		t.Cleanup(kv.Close)

		got, err := kv.Get(t.Context(), "favorites-storage:abc")
		require.NoError(t, err)
		assert.JSONEq(t, `{"state":{"favorites":[]},"version":0}`, string(got))
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := NewSQLiteKV(t.Context(), "")
		assert.Error(t, err)
	})
}

func TestOpen(t *testing.T) {
	_, err := Open(t.Context(), Config{Driver: "etcd"})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	kv, err := Open(t.Context(), Config{Driver: DriverFile, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileKV{}, kv)
	kv.Close()
}
