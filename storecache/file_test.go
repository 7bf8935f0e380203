package storecache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageReopen(t *testing.T) {
	tests := []struct {
		name       string
		compress   bool
		wantHeader byte
	}{
		{"plain", false, 'M'},
		{"brotli", true, 'B'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cfg := FileConfig{
				Path:     filepath.Join(t.TempDir(), "nested", "cache.db"),
				Compress: tt.compress,
			}

			store, err := OpenFile(cfg)
			require.NoError(t, err)

			require.NoError(t, store.SetItem(ctx, "a", "1"))
			require.NoError(t, store.SetItem(ctx, "b", "2"))
			require.NoError(t, store.SetItem(ctx, "c", "3"))
			require.NoError(t, store.RemoveItem(ctx, "b"))
			require.NoError(t, store.RemoveItem(ctx, "missing"))

			data, err := os.ReadFile(cfg.Path)
			require.NoError(t, err)
			require.NotEmpty(t, data)
			assert.Equal(t, tt.wantHeader, data[0])

			_, err = os.Stat(cfg.Path + ".tmp")
			assert.True(t, os.IsNotExist(err), "temporary file must not be left behind")

			reopened, err := OpenFile(cfg)
			require.NoError(t, err)

			keys, err := reopened.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "c"}, keys)

			v, ok, err := reopened.GetItem(ctx, "c")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "3", v)
		})
	}
}

func TestFileStorageFailedWriteLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	cfg := FileConfig{Path: filepath.Join(t.TempDir(), "store.bin")}

	store, err := OpenFile(cfg)
	require.NoError(t, err)
	require.NoError(t, store.SetItem(ctx, "a", "1"))

	// a directory in the way of the temporary file makes every save fail
	require.NoError(t, os.Mkdir(cfg.Path+".tmp", 0o755))

	var storageErr *StorageError

	err = store.SetItem(ctx, "a", "2")
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "save", storageErr.Op)

	err = store.SetItem(ctx, "b", "x")
	require.ErrorAs(t, err, &storageErr)

	err = store.RemoveItem(ctx, "a")
	require.ErrorAs(t, err, &storageErr)

	v, ok, err := store.GetItem(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok, err = store.GetItem(ctx, "b")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keys)

	require.NoError(t, os.Remove(cfg.Path+".tmp"))

	reopened, err := OpenFile(cfg)
	require.NoError(t, err)

	v, ok, err = reopened.GetItem(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	keys, err = reopened.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keys)
}

func TestFileStorageCacheSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	cfg := FileConfig{Path: filepath.Join(t.TempDir(), "cache.db"), Compress: true}

	store, err := OpenFile(cfg)
	require.NoError(t, err)

	c := newTestCache(t, store, clock, time.Hour)
	require.NoError(t, c.Set(ctx, "session", "abc"))
	require.NoError(t, c.Set(ctx, "short", "x", Timeout(time.Minute)))

	clock.Advance(10 * time.Minute)

	store, err = OpenFile(cfg)
	require.NoError(t, err)
	c = newTestCache(t, store, clock, time.Hour)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"session"}, keys, "expired entry is swept on construction")

	v, ok, err := GetAs[string](ctx, c, "session")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
}

func TestFileStorageCorrupted(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"unknown header", []byte("Xabc")},
		{"bad msgpack", []byte{'M', 0xc1}},
		{"bad brotli", []byte("Bnot brotli at all")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cache.db")
			require.NoError(t, os.WriteFile(path, tt.data, 0o644))

			_, err := OpenFile(FileConfig{Path: path})
			assert.ErrorIs(t, err, ErrStorageCorrupted)

			var serr *StorageError
			assert.ErrorAs(t, err, &serr)
		})
	}
}

func TestFileStorageEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	store, err := OpenFile(FileConfig{Path: path})
	require.NoError(t, err)

	keys, err := store.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFileStorageRequiresPath(t *testing.T) {
	_, err := OpenFile(FileConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFileConfigFromEnv(t *testing.T) {
	t.Setenv("RXTEST_FILE_PATH", "/tmp/rx.db")
	t.Setenv("RXTEST_FILE_COMPRESS", "true")
	t.Setenv("RXTEST_FILE_COMPRESS_LEVEL", "9")

	cfg := FileConfigFromEnv("RXTEST")
	assert.Equal(t, FileConfig{Path: "/tmp/rx.db", Compress: true, CompressLevel: 9}, cfg)
}
