package session

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/starford/wordmd/internal/apperr"
	"github.com/starford/wordmd/internal/checksum"
	"github.com/starford/wordmd/internal/container"
	"github.com/starford/wordmd/internal/editor"
	"github.com/starford/wordmd/internal/models"
	"github.com/starford/wordmd/internal/staging"
	"github.com/starford/wordmd/internal/watcher"
)

// lockDir holds the per-document advisory lock files under the staging root.
const lockDir = "locks"

// session is the state of one RunEditSession call.
type session struct {
	c         *Controller
	id        string
	container string
	editorID  string
	logger    *slog.Logger

	lock       *flock.Flock
	staged     *staging.Dir
	stagingDir string
	watcher    *watcher.Watcher
	proc       editor.Process

	// embedMu serialises every embed of the session.
	embedMu    sync.Mutex
	trigger    chan struct{}
	stopWorker chan struct{}
	workerDone chan struct{}
	workerOnce sync.Once

	mu  sync.Mutex
	out Outcome
}

func (s *session) run(ctx context.Context) (Outcome, error) {
	s.out = Outcome{
		SessionID: s.id,
		Container: s.container,
		Editor:    s.editorID,
		State:     Idle,
		Started:   s.c.now(),
	}
	s.c.record(func(r Recorder) error {
		return r.SessionStarted(models.SessionRecord{
			ID:        s.id,
			Container: s.container,
			Editor:    s.editorID,
			State:     Idle.String(),
			StartedAt: s.out.Started,
		})
	}, "start")

	err := s.execute(ctx)
	if err != nil {
		s.logger.Error("session: failed",
			slog.String("state", s.state().String()),
			slog.String("error", err.Error()))
	}
	s.cleanup()

	s.mu.Lock()
	s.out.Finished = s.c.now()
	s.out.Err = err
	if err != nil {
		s.out.State = Failed
	} else {
		s.out.State = Terminated
	}
	out := s.out
	s.mu.Unlock()

	rec := models.SessionRecord{
		ID:         s.id,
		Container:  s.container,
		Editor:     s.editorID,
		State:      out.State.String(),
		Commits:    out.Commits,
		FinishedAt: out.Finished,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	s.c.record(func(r Recorder) error { return r.SessionFinished(rec) }, "finish")

	s.logger.Info("session: finished",
		slog.String("state", out.State.String()),
		slog.Int("commits", out.Commits),
		slog.Int("live_failures", out.LiveFailures),
		slog.Duration("duration", out.Finished.Sub(out.Started)))
	return out, err
}

// execute drives the session from Idle until the final commit. Resources it
// acquires are released by cleanup whatever it returns.
func (s *session) execute(ctx context.Context) error {
	s.setState(Extracting)
	if s.c.cfg.LockContainer {
		if err := s.acquireLock(); err != nil {
			return err
		}
	}

	dir, err := staging.Create(s.c.cfg.StagingRoot, s.id)
	if err != nil {
		return apperr.Container("extract", s.container, err)
	}
	s.staged = dir
	s.stagingDir = dir.Path

	content, err := s.c.store.Extract(s.container, s.stagingDir)
	if err != nil {
		return err
	}
	s.logger.Info("session: extracted",
		slog.String("staging", s.stagingDir),
		slog.Int("bytes", content.Size()),
		slog.Int("assets", len(content.Assets)))

	s.setState(Editing)
	if s.editorID == "" {
		return launchError(s.editorID, noEditor())
	}
	resolved, err := s.c.registry.Lookup(s.editorID)
	if err != nil {
		return launchError(s.editorID, err)
	}
	if err := editor.WriteSupportFiles(s.stagingDir, resolved.Definition); err != nil {
		return launchError(s.editorID, err)
	}
	mdPath := filepath.Join(s.stagingDir, container.MarkdownFile)
	name, args, err := resolved.Command(mdPath)
	if err != nil {
		return launchError(s.editorID, err)
	}

	s.startLiveSync()

	proc, err := s.c.launcher.Start(ctx, name, args)
	if err != nil {
		return launchError(s.editorID, err)
	}
	s.proc = proc
	s.logger.Info("session: editor started",
		slog.String("editor", resolved.Name),
		slog.String("command", name),
		slog.Int("pid", proc.PID()))

	if err := proc.Wait(); err != nil {
		s.logger.Warn("session: editor exited with error", slog.String("error", err.Error()))
	} else {
		s.logger.Info("session: editor exited")
	}

	s.stopLiveSync()
	s.setState(Embedding)
	if err := s.embed(models.CommitFinal); err != nil {
		return err
	}
	return nil
}

// startLiveSync starts the embed worker and the watcher. A watcher that cannot
// start only disables live sync.
func (s *session) startLiveSync() {
	s.stopWorker = make(chan struct{})
	s.workerDone = make(chan struct{})
	go s.worker()

	w, err := watcher.New(s.stagingDir, func(watcher.Event) error {
		s.notify()
		return nil
	}, watcher.WithWindow(s.c.cfg.Debounce), watcher.WithLogger(s.logger))
	if err != nil {
		s.logger.Warn("session: live sync disabled", slog.String("error", err.Error()))
		return
	}
	s.watcher = w
}

// stopLiveSync stops the watcher and joins the worker, so any in-flight embed
// has finished when it returns. Safe to call more than once.
func (s *session) stopLiveSync() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.workerDone == nil {
		return
	}
	s.workerOnce.Do(func() { close(s.stopWorker) })
	<-s.workerDone
}

// notify requests a live embed. Requests made while one is pending coalesce.
func (s *session) notify() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *session) worker() {
	defer close(s.workerDone)
	for {
		select {
		case <-s.stopWorker:
			return
		case <-s.trigger:
			live := s.transition(Editing, Embedding)
			if err := s.embed(models.CommitLive); err != nil {
				s.mu.Lock()
				s.out.LiveFailures++
				s.mu.Unlock()
				s.logger.Warn("session: live embed failed", slog.String("error", err.Error()))
			}
			if live {
				s.transition(Embedding, Editing)
			}
		}
	}
}

// embed commits the staging directory to the document: side-channel and
// native body in one atomic rewrite.
func (s *session) embed(kind models.CommitKind) error {
	s.embedMu.Lock()
	defer s.embedMu.Unlock()

	content, err := container.ReadStagingDirectory(s.stagingDir)
	if err != nil {
		return apperr.Container("embed", s.container, err)
	}
	render, warnings := s.c.conv.Prepare(content.Markdown)
	if err := s.c.store.Embed(s.container, content.Markdown, content.Assets, render); err != nil {
		return err
	}

	commit := models.Commit{
		SessionID:   s.id,
		Kind:        kind,
		Checksum:    checksum.Content(content),
		Bytes:       content.Size(),
		Assets:      len(content.Assets),
		CommittedAt: s.c.now(),
	}
	s.mu.Lock()
	s.out.Commits++
	s.out.Warnings = warnings
	s.mu.Unlock()

	s.logger.Info("session: committed",
		slog.String("kind", string(kind)),
		slog.Int("bytes", commit.Bytes),
		slog.Int("assets", commit.Assets),
		slog.Int("warnings", len(warnings)))
	s.c.record(func(r Recorder) error { return r.Committed(commit) }, "commit")
	return nil
}

func (s *session) cleanup() {
	s.setState(Cleaning)
	s.stopLiveSync()

	if s.proc != nil {
		if err := s.proc.Release(); err != nil {
			s.logger.Debug("session: release process", slog.String("error", err.Error()))
		}
	}
	if s.staged != nil {
		if err := s.staged.Release(); err != nil {
			s.logger.Debug("session: release staging lock", slog.String("error", err.Error()))
		}
	}
	if s.stagingDir != "" {
		if err := os.RemoveAll(s.stagingDir); err != nil {
			cerr := &apperr.CleanupError{Path: s.stagingDir, Err: err}
			s.logger.Warn("session: cleanup failed", slog.String("error", cerr.Error()))
		}
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("session: release lock", slog.String("error", err.Error()))
		}
	}
}

func (s *session) acquireLock() error {
	path := lockPath(s.c.cfg.StagingRoot, s.container)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.Container("lock", s.container, err)
	}
	lk := flock.New(path)
	ok, err := lk.TryLock()
	if err != nil {
		return apperr.Container("lock", s.container, err)
	}
	if !ok {
		return apperr.Container("lock", s.container, apperr.ErrSessionActive)
	}
	s.lock = lk
	return nil
}

// lockPath returns the lock file guarding the document at abs.
func lockPath(root, abs string) string {
	return filepath.Join(root, lockDir, checksum.Key(abs)+".lock")
}

func (s *session) setState(st State) {
	s.mu.Lock()
	prev := s.out.State
	s.out.State = st
	s.mu.Unlock()
	s.logger.Debug("session: state", slog.String("from", prev.String()), slog.String("to", st.String()))
}

// transition moves the session from one state to another and reports
// whether it was in from.
func (s *session) transition(from, to State) bool {
	s.mu.Lock()
	if s.out.State != from {
		s.mu.Unlock()
		return false
	}
	s.out.State = to
	s.mu.Unlock()
	s.logger.Debug("session: state", slog.String("from", from.String()), slog.String("to", to.String()))
	return true
}

func (s *session) state() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.State
}

// IsBusy reports whether err means another session holds the document.
func IsBusy(err error) bool {
	return errors.Is(err, apperr.ErrSessionActive)
}
