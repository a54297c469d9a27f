package editor

import (
	"context"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
)

// Process is a started editor.
type Process interface {
	PID() int
	// Wait blocks until the process exits. It may be called more than once.
	Wait() error
	// Release frees resources held for the process.
	Release() error
}

// Launcher starts editor processes.
type Launcher interface {
	Start(ctx context.Context, name string, args []string) (Process, error)
}

// ExecLauncher starts editors with os/exec. Cancelling ctx kills the editor.
// Nil streams default to the current process's stdio.
type ExecLauncher struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Start starts name with args.
func (l ExecLauncher) Start(ctx context.Context, name string, args []string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = l.Stdin, l.Stdout, l.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	once   sync.Once
	err    error
	waitMu sync.Mutex
	waited bool
}

func (p *execProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() error {
	p.once.Do(func() {
		p.err = p.cmd.Wait()
		p.waitMu.Lock()
		p.waited = true
		p.waitMu.Unlock()
	})
	return p.err
}

func (p *execProcess) Release() error {
	p.waitMu.Lock()
	defer p.waitMu.Unlock()
	if p.waited {
		return nil
	}
	return p.cmd.Process.Release()
}

// OpenerCommand returns the platform command that opens uri with its
// registered handler.
func OpenerCommand(uri string) (string, []string) {
	switch runtime.GOOS {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", uri}
	case "darwin":
		return "open", []string{uri}
	default:
		return "xdg-open", []string{uri}
	}
}
