// FILE: lixenwraith/configurations/watch_test.go
package configurations

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastWatchOptions() WatchOptions {
	opts := DefaultWatchOptions()
	opts.PollInterval = MinPollInterval
	opts.Debounce = 10 * time.Millisecond
	opts.ReloadTimeout = time.Second
	return opts
}

// waitForEvent drains ch until an event matches or the timeout expires.
func waitForEvent(t *testing.T, ch <-chan string, match func(string) bool) string {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case event, ok := <-ch:
			require.True(t, ok, "subscriber channel closed early")
			if match(event) {
				return event
			}
		case <-timeout:
			t.Fatal("timed out waiting for watch event")
			return ""
		}
	}
}

func eventIs(want string) func(string) bool {
	return func(event string) bool { return event == want }
}

func writeWatched(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "watched.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestWatch(t *testing.T) {
	t.Run("ReloadsChangedFile", func(t *testing.T) {
		path := writeWatched(t, "[server]\nport = 8080\n")
		h := loaderHost(t)

		w, err := h.Watch(context.Background(), path, fastWatchOptions())
		require.NoError(t, err)
		defer w.Stop()
		assert.True(t, w.IsWatching())

		v, err := h.Configuration().Lookup("server.port")
		require.NoError(t, err)
		assert.Equal(t, 8080, v)

		changes := w.Subscribe()
		assert.Equal(t, 1, w.SubscriberCount())

		require.NoError(t, os.WriteFile(path, []byte("name = \"reloaded\"\n[server]\nport = 9091\n"), 0600))
		waitForEvent(t, changes, eventIs("server.port"))

		v, err = h.Configuration().Lookup("server.port")
		require.NoError(t, err)
		assert.Equal(t, 9091, v)

		v, err = h.Configuration().Get("name")
		require.NoError(t, err)
		assert.Equal(t, "reloaded", v)
	})

	t.Run("ReappliesConfigureFunc", func(t *testing.T) {
		path := writeWatched(t, "name = \"file\"\n")
		h := loaderHost(t)

		opts := fastWatchOptions()
		opts.Configure = func(c *Configuration) error {
			return c.Set("debug", true)
		}
		w, err := h.Watch(context.Background(), path, opts)
		require.NoError(t, err)
		defer w.Stop()
		changes := w.Subscribe()

		require.NoError(t, os.WriteFile(path, []byte("name = \"changed file\"\n"), 0600))
		waitForEvent(t, changes, eventIs("name"))

		c := h.Configuration()
		v, err := c.Get("debug")
		require.NoError(t, err)
		assert.Equal(t, true, v)
	})

	t.Run("ReloadErrorKeepsConfiguration", func(t *testing.T) {
		path := writeWatched(t, "[server]\nport = 8080\n")
		h := loaderHost(t)

		w, err := h.Watch(context.Background(), path, fastWatchOptions())
		require.NoError(t, err)
		defer w.Stop()
		before := h.Configuration()
		changes := w.Subscribe()

		require.NoError(t, os.WriteFile(path, []byte("[server]\nport = \"not a port\"\n"), 0600))
		event := waitForEvent(t, changes, func(e string) bool { return strings.HasPrefix(e, EventReloadErrorPrefix) })
		assert.Contains(t, event, "server.port")
		assert.Same(t, before, h.Configuration())
	})

	t.Run("FileDeleted", func(t *testing.T) {
		path := writeWatched(t, "name = \"x\"\n")
		h := loaderHost(t)

		w, err := h.Watch(context.Background(), path, fastWatchOptions())
		require.NoError(t, err)
		defer w.Stop()
		changes := w.Subscribe()

		require.NoError(t, os.Remove(path))
		waitForEvent(t, changes, eventIs(EventFileDeleted))
	})

	t.Run("PermissionsChanged", func(t *testing.T) {
		path := writeWatched(t, "name = \"x\"\n")
		h := loaderHost(t)

		w, err := h.Watch(context.Background(), path, fastWatchOptions())
		require.NoError(t, err)
		defer w.Stop()
		changes := w.Subscribe()

		require.NoError(t, os.Chmod(path, 0644))
		waitForEvent(t, changes, eventIs(EventPermissionsChanged))
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := loaderHost(t).Watch(context.Background(), filepath.Join(t.TempDir(), "missing.toml"), fastWatchOptions())
		assert.True(t, errors.Is(err, ErrConfigNotFound))
	})

	t.Run("SubscriberLimit", func(t *testing.T) {
		path := writeWatched(t, "name = \"x\"\n")
		opts := fastWatchOptions()
		opts.MaxWatchers = 1

		w, err := loaderHost(t).Watch(context.Background(), path, opts)
		require.NoError(t, err)
		defer w.Stop()

		w.Subscribe()
		_, ok := <-w.Subscribe()
		assert.False(t, ok)
		assert.Equal(t, 1, w.SubscriberCount())
	})

	t.Run("StopClosesSubscribers", func(t *testing.T) {
		path := writeWatched(t, "name = \"x\"\n")
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		w, err := loaderHost(t).Watch(ctx, path, fastWatchOptions())
		require.NoError(t, err)
		changes := w.Subscribe()

		w.Stop()
		assert.Eventually(t, func() bool { return !w.IsWatching() }, time.Second, SpinWaitInterval)
		assert.Eventually(t, func() bool {
			select {
			case _, ok := <-changes:
				return !ok
			default:
				return false
			}
		}, time.Second, SpinWaitInterval)
		assert.Equal(t, 0, w.SubscriberCount())

		_, ok := <-w.Subscribe()
		assert.False(t, ok)
	})

	t.Run("ContextCancelStops", func(t *testing.T) {
		path := writeWatched(t, "name = \"x\"\n")
		ctx, cancel := context.WithCancel(context.Background())

		w, err := loaderHost(t).Watch(ctx, path, fastWatchOptions())
		require.NoError(t, err)
		cancel()
		assert.Eventually(t, func() bool { return !w.IsWatching() }, time.Second, SpinWaitInterval)
	})
}
