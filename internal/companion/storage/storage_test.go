package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBackends(t *testing.T) map[string]Backend {
	t.Helper()
	ctx := context.Background()

	file, err := NewFile(t.TempDir())
	require.NoError(t, err)

	sqlite, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "companion.db"))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb, err := NewRedis(ctx, mr.Addr(), "", 0, "test:")
	require.NoError(t, err)

	backends := map[string]Backend{
		KindFile:   file,
		KindSQLite: sqlite,
		KindRedis:  rdb,
		KindMemory: NewMemory(),
	}
	t.Cleanup(func() {
		for _, b := range backends {
			b.Close()
		}
	})
	return backends
}

func TestBackends_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, b := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := b.Get(ctx, "missing")
			assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)

			require.NoError(t, b.Put(ctx, "conversations", []byte(`[{"id":"a"}]`), 0))
			got, err := b.Get(ctx, "conversations")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":"a"}]`, string(got))

			// Last writer wins.
			require.NoError(t, b.Put(ctx, "conversations", []byte(`[]`), 0))
			got, err = b.Get(ctx, "conversations")
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(got))

			require.NoError(t, b.Delete(ctx, "conversations"))
			_, err = b.Get(ctx, "conversations")
			assert.True(t, errors.Is(err, ErrNotFound))

			// Deleting twice is fine.
			assert.NoError(t, b.Delete(ctx, "conversations"))
		})
	}
}

func TestBackends_EmptyKey(t *testing.T) {
	ctx := context.Background()
	for name, b := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, b.Put(ctx, "", []byte("x"), 0))
			_, err := b.Get(ctx, "")
			assert.Error(t, err)
		})
	}
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.SetClock(func() time.Time { return now })

	require.NoError(t, m.Put(ctx, "token", []byte("abc"), time.Hour))
	_, err := m.Get(ctx, "token")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = m.Get(ctx, "token")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_TTL(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "ttl.db"))
	require.NoError(t, err)
	defer s.Close()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "token", []byte("abc"), time.Minute))
	got, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, "token")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedis_TTLAndPrefix(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	r, err := NewRedis(ctx, mr.Addr(), "", 0, "companion:")
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Put(ctx, "token", []byte("abc"), time.Minute))
	assert.True(t, mr.Exists("companion:token"))

	mr.FastForward(2 * time.Minute)
	_, err = r.Get(ctx, "token")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNewRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(context.Background(), addr, "", 0, "")
	assert.Error(t, err)
}

func TestFile_RejectsPathKeys(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"../escape", "a/b", ".."} {
		assert.Error(t, f.Put(context.Background(), key, []byte("x"), 0), key)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "default is file", opts: Options{Dir: t.TempDir()}},
		{name: "memory", opts: Options{Kind: KindMemory}},
		{name: "sqlite", opts: Options{Kind: KindSQLite, SQLitePath: filepath.Join(t.TempDir(), "x.db")}},
		{name: "file without dir", opts: Options{Kind: KindFile}, wantErr: true},
		{name: "redis without addr", opts: Options{Kind: KindRedis}, wantErr: true},
		{name: "unknown", opts: Options{Kind: "etcd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Open(ctx, tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, b.Close())
		})
	}
}
