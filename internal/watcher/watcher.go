// Package watcher turns a directory of scrape dumps into a stream of
// settled file events. An event only fires after a file has stopped
// changing for a settle delay, so watch mode never reads a JSON dump
// that is still being written.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors dump directories with fsnotify and debounces write
// bursts into single events.
type Watcher struct {
	logger  *slog.Logger
	opts    Options
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*pendingFile // path -> settle state
	seen    map[string]bool         // paths already announced, for added vs modified

	events chan Event
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup
}

// pendingFile tracks a dump that may still be flushing to disk.
type pendingFile struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// New creates a watcher.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger:  logger,
		opts:    opts,
		watcher: fsw,
		pending: make(map[string]*pendingFile),
		seen:    make(map[string]bool),
		events:  make(chan Event, 16),
		errors:  make(chan error, 4),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a dump directory to be monitored. Files already present
// are marked as seen, so rewriting one reports modified, not added.
func (w *Watcher) Watch(dir string) error {
	dir = filepath.Clean(dir)

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat watch path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch path %s is not a directory", dir)
	}

	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("add watch: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read watch dir: %w", err)
	}
	w.mu.Lock()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if w.opts.matches(path) {
			w.seen[path] = true
		}
	}
	w.mu.Unlock()

	w.logger.Info("watching directory", "path", dir)
	return nil
}

// Start pumps file system events until the context is cancelled.
// This method blocks.
func (w *Watcher) Start(ctx context.Context) error {
	w.wg.Add(1)
	go w.loop(ctx)

	<-ctx.Done()
	return nil
}

// Events returns the channel of settled dump events. The channel stays
// open after Stop; receive with a select on your context.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)

	w.mu.Lock()
	for _, pending := range w.pending {
		pending.timer.Stop()
	}
	clear(w.pending)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.errors <- err
		}
	}
}

// handle routes one fsnotify event into the settle machinery.
func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name
	if !w.opts.matches(path) {
		return
	}

	// A rename delivers the old path, so it reads like a removal here
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.drop(path)
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
		w.settle(path)
	}
}

// settle arms the timer for a file that may still be flushing.
func (w *Watcher) settle(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if pending, ok := w.pending[path]; ok {
		pending.timer.Stop()
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		return
	}
	if info.IsDir() {
		return
	}

	pending := &pendingFile{size: info.Size(), modTime: info.ModTime()}
	pending.timer = time.AfterFunc(w.opts.SettleDelay, func() {
		w.checkSettled(path)
	})
	w.pending[path] = pending
}

// checkSettled emits the event if the file stopped changing, or re-arms
// the timer when it is still growing.
func (w *Watcher) checkSettled(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending, ok := w.pending[path]
	if !ok {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// Deleted mid-settle
		delete(w.pending, path)
		if w.seen[path] {
			delete(w.seen, path)
			w.emit(Event{Type: EventRemoved, Path: path})
		}
		return
	}

	if info.Size() != pending.size || info.ModTime() != pending.modTime {
		// Still being written, wait another settle period
		pending.size = info.Size()
		pending.modTime = info.ModTime()
		pending.timer = time.AfterFunc(w.opts.SettleDelay, func() {
			w.checkSettled(path)
		})
		return
	}

	delete(w.pending, path)

	eventType := EventAdded
	if w.seen[path] {
		eventType = EventModified
	}
	w.seen[path] = true

	w.logger.Debug("dump settled", "path", path, "event", eventType, "size", info.Size())

	w.emit(Event{
		Type:    eventType,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
}

// drop cancels any pending settle and reports a known file as removed.
func (w *Watcher) drop(path string) {
	w.mu.Lock()
	if pending, ok := w.pending[path]; ok {
		pending.timer.Stop()
		delete(w.pending, path)
	}
	known := w.seen[path]
	delete(w.seen, path)
	w.mu.Unlock()

	if known {
		w.emit(Event{Type: EventRemoved, Path: path})
	}
}

// emit sends an event unless the watcher is shutting down.
func (w *Watcher) emit(event Event) {
	select {
	case w.events <- event:
	case <-w.done:
	}
}
