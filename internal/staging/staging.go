// Package staging manages the per-session directories that editors work in.
package staging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// DirPrefix marks directories created by Create.
const DirPrefix = "wordmd-"

// DefaultMaxAge is the age after which CleanStale treats a session
// directory as abandoned.
const DefaultMaxAge = 24 * time.Hour

// LockFile is held by a live session inside its directory. Its name is a
// noise name, so watchers and staging readers ignore it.
const LockFile = ".wordmd.lock"

// DefaultRoot returns the staging root used when none is configured.
func DefaultRoot() string {
	return filepath.Join(os.TempDir(), "wordmd")
}

// Dir is a session directory created by Create. It stays locked against
// CleanStale until Release.
type Dir struct {
	ID   string
	Path string

	lock *flock.Flock
}

// Release drops the liveness lock. It is safe to call more than once.
func (d *Dir) Release() error {
	if d.lock == nil {
		return nil
	}
	err := d.lock.Unlock()
	d.lock = nil
	return err
}

// Create makes the session directory for id under root and locks it. An
// empty id gets a fresh UUID.
func Create(root, id string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create root: %w", err)
	}
	if id == "" {
		id = uuid.NewString()
	}
	path := filepath.Join(root, DirPrefix+id)
	if err := os.Mkdir(path, 0o700); err != nil {
		return nil, fmt.Errorf("staging: create dir: %w", err)
	}
	lk := flock.New(filepath.Join(path, LockFile))
	ok, err := lk.TryLock()
	if err != nil || !ok {
		_ = os.RemoveAll(path)
		if err == nil {
			err = fmt.Errorf("already locked")
		}
		return nil, fmt.Errorf("staging: lock dir: %w", err)
	}
	return &Dir{ID: id, Path: path, lock: lk}, nil
}

// CleanStaleResult contains the outcome of a stale directory cleanup.
type CleanStaleResult struct {
	Removed []string
	Active  []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes session directories under root older than maxAge
// whose session is no longer running. Entries not created by Create are
// never touched.
func CleanStale(ctx context.Context, root string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	root = strings.TrimSpace(root)
	if root == "" {
		return result
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), DirPrefix) {
			continue
		}

		dirPath := filepath.Join(root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		lk := flock.New(filepath.Join(dirPath, LockFile))
		ok, err := lk.TryLock()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !ok {
			result.Active = append(result.Active, dirPath)
			if logger != nil {
				logger.Debug("staging: skipping directory of a running session", slog.String("path", dirPath))
			}
			continue
		}
		_ = lk.Unlock()

		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			if logger != nil {
				logger.Warn("staging: failed to remove stale directory",
					slog.String("path", dirPath),
					slog.String("error", err.Error()))
			}
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		if logger != nil {
			logger.Info("staging: removed stale directory",
				slog.String("path", dirPath),
				slog.Duration("age", time.Since(info.ModTime()).Truncate(time.Second)))
		}
	}

	return result
}
