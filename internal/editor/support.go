package editor

import (
	"fmt"
	"path/filepath"

	"github.com/starford/wordmd/internal/storage"
)

// WriteSupportFiles writes the definition's support files into dir, for
// example settings that disable an editor's auto-save.
func WriteSupportFiles(dir string, d Definition) error {
	for name, content := range d.SupportFiles {
		if !plainName(name) {
			return fmt.Errorf("editor %q: invalid support file name %q", d.Name, name)
		}
		if err := storage.WriteFileAtomic(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("editor %q: write %s: %w", d.Name, name, err)
		}
	}
	return nil
}
