// Package apperr defines the error kinds shared across wordmd components.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrNoBody           = errors.New("document has no body")
	ErrSessionActive    = errors.New("another edit session holds the document")
	ErrInvalidAssetName = errors.New("invalid asset name")
)

// ContainerError reports a container that cannot be read or written, or that
// lacks a part the operation needs. It is fatal to an edit session.
type ContainerError struct {
	Op   string
	Path string
	Err  error
}

func (e *ContainerError) Error() string {
	return fmt.Sprintf("container %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ContainerError) Unwrap() error { return e.Err }

// EditorLaunchError reports an editor that could not be resolved or started.
type EditorLaunchError struct {
	Editor string
	Err    error
}

func (e *EditorLaunchError) Error() string {
	return fmt.Sprintf("launch editor %q: %v", e.Editor, e.Err)
}

func (e *EditorLaunchError) Unwrap() error { return e.Err }

// WatcherError reports a failure of the file observation mechanism. Sessions
// log it and continue without live sync.
type WatcherError struct {
	Root string
	Err  error
}

func (e *WatcherError) Error() string {
	return fmt.Sprintf("watch %s: %v", e.Root, e.Err)
}

func (e *WatcherError) Unwrap() error { return e.Err }

// CleanupError reports a staging directory that could not be removed.
type CleanupError struct {
	Path string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup %s: %v", e.Path, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }

// Container wraps err as a ContainerError unless it already is one.
func Container(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ContainerError
	if errors.As(err, &ce) {
		return err
	}
	return &ContainerError{Op: op, Path: path, Err: err}
}
