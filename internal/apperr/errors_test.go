package apperr

import (
	"errors"
	"io/fs"
	"testing"
)

func TestContainer_WrapsOnce(t *testing.T) {
	err := Container("open", "a.docx", fs.ErrNotExist)
	var ce *ContainerError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ContainerError, got %T", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("cause should be preserved")
	}

	again := Container("embed", "b.docx", err)
	if again != err {
		t.Errorf("already-wrapped error should be returned as is, got %v", again)
	}
}

func TestContainer_Nil(t *testing.T) {
	if err := Container("open", "x", nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&EditorLaunchError{Editor: "vscode", Err: ErrNotFound}, `launch editor "vscode": not found`},
		{&WatcherError{Root: "/tmp/s", Err: errors.New("boom")}, "watch /tmp/s: boom"},
		{&CleanupError{Path: "/tmp/s", Err: errors.New("busy")}, "cleanup /tmp/s: busy"},
		{&ContainerError{Op: "convert", Path: "d.docx", Err: ErrNoBody}, "container convert d.docx: document has no body"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Error() = %q, want %q", got, tc.want)
		}
	}
}
