// FILE: lixenwraith/optcfg/watch_test.go
package optcfg

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastWatch = WatchOptions{
	PollInterval:      MinPollInterval,
	Debounce:          20 * time.Millisecond,
	VerifyPermissions: true,
}

func nextEvent(t *testing.T, w *FileWatcher) FileEvent {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		require.True(t, ok, "event channel closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for file event")
	}
	return FileEvent{}
}

// TestFileWatcher tests change detection and reloading
func TestFileWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.ini")
	require.NoError(t, os.WriteFile(path, []byte("[db]\nhost = a\n"), 0600))

	db := newDBConfig()
	src, err := ReadSource(path)
	require.NoError(t, err)
	require.NoError(t, db.LoadConfig(src, ""))

	w, err := WatchFile(context.Background(), path, fastWatch)
	require.NoError(t, err)
	defer w.Stop()

	t.Run("Change", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("[db]\nhost = b\nport = 6000\n"), 0600))

		ev := nextEvent(t, w)
		require.NoError(t, ev.Err)
		assert.Equal(t, path, ev.Path)

		changed, err := db.Reload(ev)
		require.NoError(t, err)
		assert.Equal(t, []string{"db.host", "db.port"}, changed)

		port, _ := db.Int64("port")
		assert.Equal(t, int64(6000), port)
	})

	t.Run("Permissions", func(t *testing.T) {
		require.NoError(t, os.Chmod(path, 0644))

		ev := nextEvent(t, w)
		require.Error(t, ev.Err)
		assert.NotErrorIs(t, ev.Err, ErrConfigNotFound)

		_, err := db.Reload(ev)
		assert.Error(t, err)
	})

	t.Run("Removed", func(t *testing.T) {
		require.NoError(t, os.Remove(path))

		ev := nextEvent(t, w)
		assert.ErrorIs(t, ev.Err, ErrConfigNotFound)
	})
}

// TestFileWatcherLifecycle tests startup failures and shutdown
func TestFileWatcherLifecycle(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := WatchFile(context.Background(), filepath.Join(t.TempDir(), "absent.ini"), fastWatch)
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("StopClosesEvents", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.ini")
		require.NoError(t, os.WriteFile(path, []byte("[app]\n"), 0600))

		w, err := WatchFile(context.Background(), path, DefaultWatchOptions())
		require.NoError(t, err)
		w.Stop()
		w.Stop()

		_, ok := <-w.Events()
		assert.False(t, ok)
	})

	t.Run("ContextCancel", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.ini")
		require.NoError(t, os.WriteFile(path, []byte("[app]\n"), 0600))

		ctx, cancel := context.WithCancel(context.Background())
		w, err := WatchFile(ctx, path, fastWatch)
		require.NoError(t, err)
		cancel()

		for range w.Events() {
		}
		w.Stop()
	})
}
