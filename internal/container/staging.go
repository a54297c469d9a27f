package container

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/starford/wordmd/internal/models"
	"github.com/starford/wordmd/internal/storage"
)

// WriteStagingDirectory lays content out in dir: the markdown goes to
// MarkdownFile at the root, assets go under AssetDir. The markdown file and
// the asset directory are always created so the editor has both to work with.
// Assets already in AssetDir that content does not name are deleted; other
// files are left alone.
func WriteStagingDirectory(dir string, content models.Content) error {
	if err := os.MkdirAll(filepath.Join(dir, AssetDir), 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	fsys, err := storage.NewFS(dir)
	if err != nil {
		return err
	}
	if err := fsys.Write(MarkdownFile, []byte(content.Markdown)); err != nil {
		return err
	}
	for name, data := range content.Assets {
		if !ValidAssetName(name) {
			return fmt.Errorf("staging: %q: invalid asset name", name)
		}
		if err := fsys.Write(filepath.Join(AssetDir, name), data); err != nil {
			return err
		}
	}

	existing, err := fsys.List(AssetDir)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if _, keep := content.Assets[e.Name]; keep || !ValidAssetName(e.Name) {
			continue
		}
		if err := fsys.Delete(e.Path); err != nil {
			return err
		}
	}
	return nil
}

// ReadStagingDirectory loads the markdown and assets from dir. A missing
// markdown file reads as empty markdown and a missing asset directory as an
// empty asset set.
func ReadStagingDirectory(dir string) (models.Content, error) {
	fsys, err := storage.NewFS(dir)
	if err != nil {
		return models.Content{}, err
	}

	content := models.Content{Assets: map[string][]byte{}}
	data, err := fsys.Read(MarkdownFile)
	switch {
	case err == nil:
		content.Markdown = string(data)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return models.Content{}, err
	}

	entries, err := fsys.List(AssetDir)
	if err != nil {
		return models.Content{}, err
	}
	for _, e := range entries {
		if !ValidAssetName(e.Name) {
			continue
		}
		data, err := fsys.Read(e.Path)
		if err != nil {
			return models.Content{}, err
		}
		content.Assets[e.Name] = data
	}
	return content, nil
}
