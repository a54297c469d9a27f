// Package watcher observes a staging directory and reports debounced change
// notifications.
package watcher

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/wordmd/internal/apperr"
	"github.com/starford/wordmd/internal/storage"
)

// DefaultWindow is the debounce window used when none is configured.
const DefaultWindow = 500 * time.Millisecond

// Event describes the change that opened a debounce window.
type Event struct {
	Path string // relative to the watched root
	Op   fsnotify.Op
	At   time.Time
}

// Callback receives one notification per accepted burst. Errors are logged.
type Callback func(Event) error

// Watcher delivers debounced notifications for a directory tree.
type Watcher struct {
	root     string
	cb       Callback
	window   time.Duration
	logger   *slog.Logger
	now      func() time.Time
	fsw      *fsnotify.Watcher
	deb      debouncer
	stopCh   chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithWindow sets the debounce window.
func WithWindow(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.window = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock replaces the clock used to timestamp and debounce events.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) {
		if now != nil {
			w.now = now
		}
	}
}

// New starts watching root and every directory below it. Directories created
// later are added as they appear. The returned Watcher runs until Stop.
func New(root string, cb Callback, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		root:    root,
		cb:      cb,
		window:  DefaultWindow,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.deb.window = w.window

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &apperr.WatcherError{Root: root, Err: err}
	}
	if err := addDirsRecursive(fsw, root); err != nil {
		_ = fsw.Close()
		return nil, &apperr.WatcherError{Root: root, Err: err}
	}
	w.fsw = fsw

	go w.loop()
	w.logger.Debug("watcher: started", slog.String("root", root), slog.Duration("window", w.window))
	return w, nil
}

// Stop ends observation. Any pending delivery is cancelled and no callback
// runs after Stop returns. It is safe to call more than once, but not from
// inside the callback.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.stopped
}

func (w *Watcher) loop() {
	defer close(w.stopped)
	defer w.fsw.Close()

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending Event
	)
	events, errs := w.fsw.Events, w.fsw.Errors

	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			w.logger.Debug("watcher: stopped", slog.String("root", w.root))
			return

		case <-fire:
			fire = nil
			w.deliver(pending)

		case ev, ok := <-events:
			if !ok {
				events = nil
				w.logger.Warn("watcher: event stream closed, live sync disabled", slog.String("root", w.root))
				continue
			}
			if ev.Has(fsnotify.Create) {
				w.watchNewDir(ev.Name)
			}
			if !relevant(ev) {
				continue
			}
			now := w.now()
			if !w.deb.accept(now) {
				w.logger.Debug("watcher: suppressed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
				continue
			}
			if fire != nil {
				// Previous window still pending: deliver it first.
				timer.Stop()
				w.deliver(pending)
			}
			pending = Event{Path: w.rel(ev.Name), Op: ev.Op, At: now}
			timer = time.NewTimer(w.window)
			fire = timer.C

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Error("watcher: error",
				slog.String("error", (&apperr.WatcherError{Root: w.root, Err: err}).Error()))
		}
	}
}

func (w *Watcher) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("watcher: callback panicked",
				slog.String("path", ev.Path),
				slog.String("panic", fmt.Sprint(r)))
		}
	}()
	if w.cb == nil {
		return
	}
	if err := w.cb(ev); err != nil {
		w.logger.Warn("watcher: callback failed",
			slog.String("path", ev.Path),
			slog.String("error", err.Error()))
	}
}

func (w *Watcher) watchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := addDirsRecursive(w.fsw, path); err != nil {
		w.logger.Warn("watcher: add new dir failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: watching new dir", slog.String("path", path))
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// relevant drops editor noise (hidden, lock and temp files) and pure
// permission changes.
func relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	return !storage.IsNoise(ev.Name)
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
