package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindbloom/backend/internal/config"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()

	file, err := NewFile(t.TempDir())
	require.NoError(t, err)

	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]KV{
		"memory": NewMemory(),
		"file":   file,
		"sqlite": sqlite,
	}
}

func TestKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get(ctx, "mindbloom_mood_logs")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, kv.Set(ctx, "mindbloom_mood_logs", []byte(`[1]`)))
			require.NoError(t, kv.Set(ctx, "mindbloom_mood_logs", []byte(`[1,2]`)))

			got, err := kv.Get(ctx, "mindbloom_mood_logs")
			require.NoError(t, err)
			assert.Equal(t, `[1,2]`, string(got))

			require.NoError(t, kv.Delete(ctx, "mindbloom_mood_logs"))
			require.NoError(t, kv.Delete(ctx, "mindbloom_mood_logs"))

			_, err = kv.Get(ctx, "mindbloom_mood_logs")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestFileRejectsPathKeys(t *testing.T) {
	kv, err := NewFile(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, kv.Set(context.Background(), "../escape", []byte("x")))
	assert.Error(t, kv.Set(context.Background(), "", []byte("x")))
}

func TestFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, kv.Set(context.Background(), "profile", []byte(`{}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "profile.json", entries[0].Name())
}

func TestMemoryCopiesValues(t *testing.T) {
	kv := NewMemory()
	value := []byte("abc")
	require.NoError(t, kv.Set(context.Background(), "k", value))
	value[0] = 'z'

	got, err := kv.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestOpenSelectsDriver(t *testing.T) {
	kv, closer, err := Open(config.StorageConfig{Driver: config.StorageMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, kv)
	assert.NoError(t, closer.Close())

	_, _, err = Open(config.StorageConfig{Driver: "redis"})
	assert.Error(t, err)
}
