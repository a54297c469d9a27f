package internal

import (
	"log/slog"

	"github.com/starford/wordmd/internal/editor"
	"github.com/starford/wordmd/internal/session"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	logger   *slog.Logger
	document string
	editor   string
	launcher editor.Launcher
	report   func(session.Outcome)
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger sets the logger. Without it one is built from the config.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}

// WithDocument sets the document to edit.
func WithDocument(path string) Option {
	return func(a *application) {
		a.document = path
	}
}

// WithEditor selects the editor by name, overriding default_editor.
func WithEditor(name string) Option {
	return func(a *application) {
		a.editor = name
	}
}

// WithLauncher replaces the editor process launcher.
func WithLauncher(l editor.Launcher) Option {
	return func(a *application) {
		a.launcher = l
	}
}

// WithReport registers a function that receives the session outcome.
func WithReport(fn func(session.Outcome)) Option {
	return func(a *application) {
		a.report = fn
	}
}
