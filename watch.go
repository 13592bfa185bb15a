// FILE: lixenwraith/configurations/watch.go
package configurations

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMaxWatchers caps subscriber channels per watcher.
const DefaultMaxWatchers = 100

// Watch notification events besides changed property paths.
const (
	EventFileDeleted        = "file_deleted"
	EventPermissionsChanged = "permissions_changed"
	EventReloadTimeout      = "reload_timeout"
	EventReloadErrorPrefix  = "reload_error:"
)

// WatchOptions tunes a Watcher. Host.Watch replaces a non-positive
// ReloadTimeout or MaxWatchers with its default; a zero Debounce reloads on
// the next timer tick.
type WatchOptions struct {
	PollInterval  time.Duration // at least MinPollInterval
	Debounce      time.Duration
	ReloadTimeout time.Duration
	MaxWatchers   int

	// VerifyPermissions skips reloads when group or world permissions change.
	VerifyPermissions bool

	// Configure runs after the file was loaded on every reload, e.g. to apply
	// environment or command-line overrides again.
	Configure ConfigureFunc
}

// DefaultWatchOptions polls every second, debounces for half a second and
// skips reloads after permission changes.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval:      DefaultPollInterval,
		Debounce:          DefaultDebounce,
		MaxWatchers:       DefaultMaxWatchers,
		ReloadTimeout:     DefaultReloadTimeout,
		VerifyPermissions: true,
	}
}

// Watcher polls a configuration file and republishes the host configuration
// when it changes. Subscribers receive the dotted paths whose values changed.
type Watcher struct {
	host             *Host
	mu               sync.RWMutex
	ctx              context.Context
	cancel           context.CancelFunc
	opts             WatchOptions
	filePath         string
	lastModTime      time.Time
	lastSize         int64
	lastMode         os.FileMode
	watching         atomic.Bool
	reloadInProgress atomic.Bool
	subscribers      map[int64]chan string
	subscriberID     atomic.Int64
	debounceTimer    *time.Timer
}

// Watch configures the host from the file at path and keeps reconfiguring it
// whenever the file changes, until ctx is done or Stop is called.
func (h *Host) Watch(ctx context.Context, path string, opts WatchOptions) (*Watcher, error) {
	if opts.PollInterval < MinPollInterval {
		opts.PollInterval = MinPollInterval
	}
	if opts.MaxWatchers <= 0 {
		opts.MaxWatchers = DefaultMaxWatchers
	}
	if opts.ReloadTimeout <= 0 {
		opts.ReloadTimeout = DefaultReloadTimeout
	}

	if _, err := h.Configure(h.fileConfigure(path, opts.Configure)); err != nil {
		return nil, fmt.Errorf("failed to load file for watching: %w", err)
	}

	wctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		host:        h,
		ctx:         wctx,
		cancel:      cancel,
		opts:        opts,
		filePath:    path,
		subscribers: make(map[int64]chan string),
	}
	if info, err := os.Stat(path); err == nil {
		w.lastModTime = info.ModTime()
		w.lastSize = info.Size()
		w.lastMode = info.Mode()
	}

	w.watching.Store(true)
	go w.watchLoop()
	h.logger.Debug("watching configuration file", "path", path, "interval", opts.PollInterval)
	return w, nil
}

func (h *Host) fileConfigure(path string, extra ConfigureFunc) ConfigureFunc {
	return func(c *Configuration) error {
		if err := c.LoadFile(path); err != nil {
			return err
		}
		if extra != nil {
			return extra(c)
		}
		return nil
	}
}

// IsWatching reports whether the poll loop is running.
func (w *Watcher) IsWatching() bool {
	return w.watching.Load()
}

// SubscriberCount returns the number of active subscriber channels
func (w *Watcher) SubscriberCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.subscribers)
}

// watchLoop is the main file watching loop
func (w *Watcher) watchLoop() {
	defer w.watching.Store(false)

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.checkAndReload()
		}
	}
}

// checkAndReload checks if file changed and triggers reload
func (w *Watcher) checkAndReload() {
	info, err := os.Stat(w.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			w.notify(EventFileDeleted)
		}
		return
	}

	changed := !info.ModTime().Equal(w.lastModTime) || info.Size() != w.lastSize

	if w.opts.VerifyPermissions && w.lastMode != 0 && info.Mode() != w.lastMode {
		if (info.Mode() & 0077) != (w.lastMode & 0077) {
			// Don't reload on group or world permission changes
			w.host.logger.Warn("configuration file permissions changed", "path", w.filePath, "mode", info.Mode())
			w.notify(EventPermissionsChanged)
			return
		}
	}

	if changed {
		w.lastModTime = info.ModTime()
		w.lastSize = info.Size()
		w.lastMode = info.Mode()

		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.debounceTimer = time.AfterFunc(w.opts.Debounce, w.performReload)
		w.mu.Unlock()
	}
}

// performReload reconfigures the host from the file and notifies changed paths
func (w *Watcher) performReload() {
	if !w.reloadInProgress.CompareAndSwap(false, true) {
		return
	}
	defer w.reloadInProgress.Store(false)

	ctx, cancel := context.WithTimeout(w.ctx, w.opts.ReloadTimeout)
	defer cancel()

	oldValues := snapshot(w.host.current.Load())

	done := make(chan error, 1)
	go func() {
		_, err := w.host.Configure(w.host.fileConfigure(w.filePath, w.opts.Configure))
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			w.host.logger.Warn("configuration reload failed", "path", w.filePath, "error", err)
			w.notify(EventReloadErrorPrefix + err.Error())
			return
		}

		newValues := snapshot(w.host.current.Load())
		var changed int
		for path, newVal := range newValues {
			if oldVal, existed := oldValues[path]; !existed || !reflect.DeepEqual(oldVal, newVal) {
				w.notify(path)
				changed++
			}
		}
		for path := range oldValues {
			if _, exists := newValues[path]; !exists {
				w.notify(path)
				changed++
			}
		}
		w.host.logger.Debug("configuration reloaded", "path", w.filePath, "changed", changed)

	case <-ctx.Done():
		w.host.logger.Warn("configuration reload timed out", "path", w.filePath, "timeout", w.opts.ReloadTimeout)
		w.notify(EventReloadTimeout)
	}
}

// Subscribe returns a channel receiving change notifications. It is closed when the watcher stops.
func (w *Watcher) Subscribe() <-chan string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.subscribers) >= w.opts.MaxWatchers || w.ctx.Err() != nil {
		ch := make(chan string)
		close(ch)
		return ch
	}

	ch := make(chan string, 10)
	id := w.subscriberID.Add(1)
	w.subscribers[id] = ch

	go func() {
		<-w.ctx.Done()
		w.mu.Lock()
		delete(w.subscribers, id)
		close(ch)
		w.mu.Unlock()
	}()

	return ch
}

// notify sends a notification to all subscribers without blocking
func (w *Watcher) notify(event string) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, ch := range w.subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscriber, drop
		}
	}
}

// Stop terminates the watcher and closes all subscriber channels.
func (w *Watcher) Stop() {
	w.cancel()

	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.mu.Unlock()

	deadline := time.Now().Add(ShutdownTimeout)
	for w.watching.Load() && time.Now().Before(deadline) {
		time.Sleep(SpinWaitInterval)
	}
}

// snapshot flattens a configuration into dotted paths
func snapshot(c *Configuration) map[string]any {
	if c == nil {
		return map[string]any{}
	}
	return flattenMap(c.ToHash(), "")
}
