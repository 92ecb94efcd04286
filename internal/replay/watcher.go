package replay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Extension is the suffix of event files picked up by the Watcher
const Extension = ".jsonl"

// DefaultSettle is how long a file must stay unmodified before it is replayed
const DefaultSettle = 500 * time.Millisecond

// HandleFunc replays one event file
type HandleFunc func(ctx context.Context, path string) error

// Watcher replays every event file dropped into a directory. Each file is
// handled once, after it has stopped changing for the settle period.
type Watcher struct {
	dir      string
	handle   HandleFunc
	settle   time.Duration
	existing bool
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	seen    map[string]bool
	ready   chan string
	done    chan struct{}
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithSettle sets the quiet period before a file is replayed
func WithSettle(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.settle = d }
}

// WithExisting also replays files already in the directory at start
func WithExisting() WatcherOption {
	return func(w *Watcher) { w.existing = true }
}

// NewWatcher creates a Watcher for dir
func NewWatcher(dir string, handle HandleFunc, logger *zap.Logger, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		dir:     dir,
		handle:  handle,
		settle:  DefaultSettle,
		logger:  logger.Named("watcher"),
		pending: make(map[string]*time.Timer),
		seen:    make(map[string]bool),
		ready:   make(chan string, 64),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the directory until ctx is cancelled. Files are handled one at
// a time; a failing file is logged and skipped.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()
	defer close(w.done)

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	if w.existing {
		if err := w.scanExisting(); err != nil {
			return err
		}
	}

	w.logger.Info("watching for event files", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && isEventFile(ev.Name) {
				w.schedule(ev.Name)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case path := <-w.ready:
			w.process(ctx, path)
		}
	}
}

func (w *Watcher) scanExisting() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() && isEventFile(e.Name()) {
			w.schedule(filepath.Join(w.dir, e.Name()))
		}
	}
	return nil
}

// schedule (re)starts the settle timer of a file
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.seen[path] {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.seen[path] = true
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) process(ctx context.Context, path string) {
	start := time.Now()
	if err := w.handle(ctx, path); err != nil {
		w.logger.Error("failed to replay event file",
			zap.String("file", path),
			zap.Error(err),
		)
		return
	}
	w.logger.Info("event file replayed",
		zap.String("file", path),
		zap.Duration("duration", time.Since(start)),
	)
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func isEventFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.HasSuffix(base, Extension)
}
