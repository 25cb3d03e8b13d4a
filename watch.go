// FILE: lixenwraith/optcfg/watch.go
package optcfg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchOptions configures file watching behavior
type WatchOptions struct {
	// PollInterval for file stat checks (minimum MinPollInterval)
	PollInterval time.Duration

	// Debounce duration to avoid rapid reloads
	Debounce time.Duration

	// VerifyPermissions refuses reloads after group or world permission changes
	VerifyPermissions bool
}

// DefaultWatchOptions returns sensible defaults for file watching
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval:      DefaultPollInterval,
		Debounce:          DefaultDebounce,
		VerifyPermissions: true,
	}
}

// FileEvent reports a changed configuration file. Source holds the freshly
// read content; Err is set when the file vanished or could not be read.
type FileEvent struct {
	Path   string
	Source Source
	Err    error
}

// FileWatcher polls a configuration file and emits a FileEvent for every
// settled change. When fsnotify is available, directory notifications
// trigger the check ahead of the next poll. Applying the event to a Config is left to the receiver, so
// the Config stays with a single goroutine.
type FileWatcher struct {
	path   string
	opts   WatchOptions
	events chan FileEvent
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	notify *fsnotify.Watcher

	lastModTime time.Time
	lastSize    int64
	lastMode    os.FileMode
}

// WatchFile starts watching path until ctx is done or Stop is called.
func WatchFile(ctx context.Context, path string, opts WatchOptions) (*FileWatcher, error) {
	if opts.PollInterval < MinPollInterval {
		opts.PollInterval = MinPollInterval
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("cannot watch '%s': %w", path, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &FileWatcher{
		path:        path,
		opts:        opts,
		events:      make(chan FileEvent, 1),
		cancel:      cancel,
		done:        make(chan struct{}),
		lastModTime: info.ModTime(),
		lastSize:    info.Size(),
		lastMode:    info.Mode(),
	}
	w.notify = startNotify(path)
	go w.watchLoop(ctx)
	return w, nil
}

// Events returns the event channel. It is closed when the watcher stops.
func (w *FileWatcher) Events() <-chan FileEvent { return w.events }

// Stop terminates the watcher and waits for its loop to exit.
func (w *FileWatcher) Stop() {
	w.once.Do(w.cancel)
	<-w.done
}

// startNotify watches the file's directory, so atomic replacements are seen.
// Nil means polling only.
func startNotify(path string) *fsnotify.Watcher {
	nw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil
	}
	if err := nw.Add(filepath.Dir(path)); err != nil {
		nw.Close()
		return nil
	}
	return nw
}

func (w *FileWatcher) watchLoop(ctx context.Context) {
	defer close(w.done)
	defer close(w.events)

	var (
		notifyEvents <-chan fsnotify.Event
		notifyErrors <-chan error
	)
	if w.notify != nil {
		defer w.notify.Close()
		notifyEvents = w.notify.Events
		notifyErrors = w.notify.Errors
	}
	base := filepath.Base(w.path)

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	var (
		settle  <-chan time.Time
		missing bool
	)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-notifyEvents:
			if !ok {
				notifyEvents = nil
				continue
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			// The change is picked up by the check on the next tick.
			ticker.Reset(MinPollInterval)
		case _, ok := <-notifyErrors:
			if !ok {
				notifyErrors = nil
			}
		case <-ticker.C:
			ticker.Reset(w.opts.PollInterval)
			changed, err := w.check()
			switch {
			case err != nil:
				if os.IsNotExist(err) {
					if missing {
						continue
					}
					missing = true
					err = fmt.Errorf("%w: %s", ErrConfigNotFound, w.path)
				}
				settle = nil
				w.send(ctx, FileEvent{Path: w.path, Err: err})
			case changed:
				missing = false
				settle = time.After(w.opts.Debounce)
			}
		case <-settle:
			settle = nil
			src, err := ReadSource(w.path)
			w.send(ctx, FileEvent{Path: w.path, Source: src, Err: err})
		}
	}
}

// check compares the file state with the last one seen.
func (w *FileWatcher) check() (bool, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return false, err
	}

	if w.opts.VerifyPermissions && info.Mode()&0077 != w.lastMode&0077 {
		w.lastMode = info.Mode()
		return false, fmt.Errorf("permissions of '%s' changed to %s, reload refused", w.path, info.Mode())
	}

	if info.ModTime().Equal(w.lastModTime) && info.Size() == w.lastSize {
		return false, nil
	}
	w.lastModTime = info.ModTime()
	w.lastSize = info.Size()
	w.lastMode = info.Mode()
	return true, nil
}

func (w *FileWatcher) send(ctx context.Context, ev FileEvent) {
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

// Reload loads ev into c and returns the dotted paths of options whose value
// changed. An event carrying an error is returned as is.
func (c *Config) Reload(ev FileEvent) ([]string, error) {
	if ev.Err != nil {
		return nil, ev.Err
	}
	before := c.valueTexts()
	if err := c.LoadConfig(ev.Source, ""); err != nil {
		return nil, err
	}
	after := c.valueTexts()

	var changed []string
	for path, text := range after {
		if old, ok := before[path]; !ok || old != text {
			changed = append(changed, path)
		}
	}
	for path := range before {
		if _, ok := after[path]; !ok {
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	c.log().Debug("Configuration reloaded", "path", ev.Path, "changed", len(changed))
	return changed, nil
}

// valueTexts maps every option path to its compact text form.
func (c *Config) valueTexts() map[string]string {
	texts := make(map[string]string)
	c.walkOptions("", func(path string, opt Option) {
		if opt.HasValue() {
			texts[path] = opt.AsString()
		}
	})
	return texts
}
