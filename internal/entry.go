// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/wordmd/internal/editor"
	"github.com/starford/wordmd/internal/journal"
	"github.com/starford/wordmd/internal/session"
	"github.com/starford/wordmd/internal/staging"
)

// Run edits one document in an external editor and returns when the editor
// has exited and the document is committed.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if app.document == "" {
		return fmt.Errorf("document is required")
	}

	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = NewLogger(cfg.App, os.Stderr)
	}
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("staging_root", cfg.Session.StagingRoot),
		slog.Duration("debounce", cfg.Session.Debounce.Std()),
		slog.String("journal", cfg.Journal.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	staging.CleanStale(ctx, cfg.Session.StagingRoot, cfg.Session.StaleAfter.Std(), logger)

	registry := editor.NewConfigRegistry(cfg.EditorDefinitions())
	editorID, err := selectEditor(registry, app.editor, cfg.DefaultEditor)
	if err != nil {
		return err
	}

	sessionOpts := []session.Option{session.WithLogger(logger)}
	if app.launcher != nil {
		sessionOpts = append(sessionOpts, session.WithLauncher(app.launcher))
	}
	if db := OpenJournal(cfg.Journal.Path, logger); db != nil {
		defer db.Close()
		sessionOpts = append(sessionOpts, session.WithRecorder(db))
	}
	ctrl := session.New(cfg.SessionSettings(), registry, sessionOpts...)

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(sessCtx)
	done := make(chan struct{})

	// Run the edit session.
	g.Go(func() error {
		defer close(done)
		out, err := ctrl.RunEditSession(gCtx, app.document, editorID)
		if app.report != nil {
			app.report(out)
		}
		return err
	})

	// Handle interrupt signals: terminate the editor, keep the final commit.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal, closing editor", slog.String("signal", sig.String()))
			cancel()
		case <-done:
		}
		return nil
	})

	return g.Wait()
}

// selectEditor picks the requested editor, then the configured default, then
// the first installed one.
func selectEditor(registry *editor.ConfigRegistry, requested, configured string) (string, error) {
	switch {
	case requested != "":
		return requested, nil
	case configured != "":
		return configured, nil
	}
	first, err := registry.First()
	if err != nil {
		return "", fmt.Errorf("select editor: %w", err)
	}
	return first.Name, nil
}

// ErrNoJournal is returned by commands that need the journal when it is
// disabled.
var ErrNoJournal = errors.New("journal is disabled")

// OpenJournal opens the session journal at path, creating its directory. It
// returns nil when path is empty or the journal cannot be opened.
func OpenJournal(path string, logger *slog.Logger) *journal.DB {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Warn("journal disabled", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	db, err := journal.Open(path)
	if err != nil {
		logger.Warn("journal disabled", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	return db
}
