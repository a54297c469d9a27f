// Package session runs edit sessions: a document's markdown is extracted to a
// staging directory, edited in an external editor, and re-embedded into the
// document on every save and once more when the editor exits.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/starford/wordmd/internal/apperr"
	"github.com/starford/wordmd/internal/container"
	"github.com/starford/wordmd/internal/convert"
	"github.com/starford/wordmd/internal/editor"
	"github.com/starford/wordmd/internal/models"
	"github.com/starford/wordmd/internal/staging"
	"github.com/starford/wordmd/internal/watcher"
)

// Config holds the per-controller session settings.
type Config struct {
	StagingRoot      string
	Debounce         time.Duration
	LockContainer    bool
	StripFrontMatter bool
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		StagingRoot:      staging.DefaultRoot(),
		Debounce:         watcher.DefaultWindow,
		LockContainer:    true,
		StripFrontMatter: false,
	}
}

// Recorder receives session history. Failures are logged and never affect
// the session.
type Recorder interface {
	SessionStarted(rec models.SessionRecord) error
	Committed(c models.Commit) error
	SessionFinished(rec models.SessionRecord) error
}

// Outcome summarises a finished session.
type Outcome struct {
	SessionID    string
	Container    string
	Editor       string
	State        State
	Commits      int
	LiveFailures int
	// Warnings are the conversion warnings of the last successful commit.
	Warnings []convert.Warning
	Started  time.Time
	Finished time.Time
	Err      error
}

// Controller runs edit sessions.
type Controller struct {
	cfg      Config
	store    *container.Store
	conv     *convert.Converter
	registry editor.Registry
	launcher editor.Launcher
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLauncher replaces the process launcher.
func WithLauncher(l editor.Launcher) Option {
	return func(c *Controller) {
		if l != nil {
			c.launcher = l
		}
	}
}

// WithRecorder sets the session history recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// New creates a Controller that resolves editors through registry.
func New(cfg Config, registry editor.Registry, opts ...Option) *Controller {
	c := &Controller{
		cfg:      cfg,
		registry: registry,
		launcher: editor.ExecLauncher{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg.StagingRoot == "" {
		c.cfg.StagingRoot = staging.DefaultRoot()
	}
	if c.cfg.Debounce <= 0 {
		c.cfg.Debounce = watcher.DefaultWindow
	}
	c.store = container.NewStore(c.logger)
	c.conv = convert.New(convert.WithLogger(c.logger), convert.WithFrontMatter(c.cfg.StripFrontMatter))
	return c
}

// RunEditSession edits the document at containerPath with the editor named
// editorID and blocks until the editor exits and the session is cleaned up.
// The returned error is non-nil exactly when the outcome state is Failed.
// Cancelling ctx terminates the editor; the final commit still runs.
func (c *Controller) RunEditSession(ctx context.Context, containerPath, editorID string) (Outcome, error) {
	abs, err := filepath.Abs(containerPath)
	if err != nil {
		abs = containerPath
	}
	s := &session{
		c:         c,
		id:        uuid.NewString(),
		container: abs,
		editorID:  editorID,
		trigger:   make(chan struct{}, 1),
	}
	s.logger = c.logger.With(slog.String("session", s.id), slog.String("container", abs))
	return s.run(ctx)
}

func (c *Controller) record(fn func(Recorder) error, what string) {
	if c.recorder == nil {
		return
	}
	if err := fn(c.recorder); err != nil {
		c.logger.Warn("session: journal write failed",
			slog.String("record", what),
			slog.String("error", err.Error()))
	}
}

func launchError(id string, err error) error {
	return &apperr.EditorLaunchError{Editor: id, Err: err}
}

func noEditor() error {
	return fmt.Errorf("no editor selected: %w", apperr.ErrNotFound)
}
