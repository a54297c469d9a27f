package editor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/starford/wordmd/internal/apperr"
)

// Resolved is an editor definition bound to an executable on this machine.
// Executable is empty for URI editors that declare no executable.
type Resolved struct {
	Definition
	Executable string
}

// Command returns the program and arguments that open path in the editor.
// URI editors are started through the platform opener.
func (r Resolved) Command(path string) (string, []string, error) {
	expanded, err := r.Template().Expand(path)
	if err != nil {
		return "", nil, err
	}
	if r.Template().IsURI() {
		name, args := OpenerCommand(expanded[0])
		return name, args, nil
	}
	if r.Executable == "" {
		return "", nil, fmt.Errorf("editor %q: no executable", r.Name)
	}
	return r.Executable, expanded, nil
}

// Registry resolves editor identifiers.
type Registry interface {
	Lookup(id string) (Resolved, error)
}

// Availability reports whether a configured editor is installed.
type Availability struct {
	Definition
	Path      string
	Installed bool
}

// ConfigRegistry resolves editors from an ordered list of definitions.
type ConfigRegistry struct {
	defs     []Definition
	lookPath func(string) (string, error)
}

// NewConfigRegistry creates a registry over defs, in preference order.
func NewConfigRegistry(defs []Definition) *ConfigRegistry {
	return &ConfigRegistry{defs: defs, lookPath: exec.LookPath}
}

// Lookup finds the definition named id (case-insensitive) and resolves its
// executable. It returns apperr.ErrNotFound when the name is unknown or the
// editor is not installed.
func (r *ConfigRegistry) Lookup(id string) (Resolved, error) {
	for _, d := range r.defs {
		if !strings.EqualFold(d.Name, id) {
			continue
		}
		path, ok := r.resolve(d)
		if !ok && !d.Template().IsURI() {
			return Resolved{}, fmt.Errorf("editor %q is not installed: %w", d.Name, apperr.ErrNotFound)
		}
		return Resolved{Definition: d, Executable: path}, nil
	}
	return Resolved{}, fmt.Errorf("unknown editor %q: %w", id, apperr.ErrNotFound)
}

// First returns the first installed editor in preference order.
func (r *ConfigRegistry) First() (Resolved, error) {
	for _, d := range r.defs {
		if path, ok := r.resolve(d); ok {
			return Resolved{Definition: d, Executable: path}, nil
		}
	}
	return Resolved{}, fmt.Errorf("no installed editor: %w", apperr.ErrNotFound)
}

// List reports every configured editor with its resolved path, in order.
func (r *ConfigRegistry) List() []Availability {
	out := make([]Availability, 0, len(r.defs))
	for _, d := range r.defs {
		path, ok := r.resolve(d)
		out = append(out, Availability{Definition: d, Path: path, Installed: ok})
	}
	return out
}

func (r *ConfigRegistry) resolve(d Definition) (string, bool) {
	for _, name := range d.Executables {
		if path, err := r.lookPath(name); err == nil {
			return path, true
		}
	}
	for _, pattern := range d.Paths {
		matches, err := filepath.Glob(filepath.FromSlash(os.ExpandEnv(pattern)))
		if err != nil {
			continue
		}
		// Highest sorted match: versioned install dirs sort newest last.
		slices.Sort(matches)
		for i := len(matches) - 1; i >= 0; i-- {
			if info, err := os.Stat(matches[i]); err == nil && info.Mode().IsRegular() {
				return matches[i], true
			}
		}
	}
	return "", false
}
