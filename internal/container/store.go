// Package container reads and writes the wordmd side-channel of a .docx
// package: the markdown source and its image assets, stored under a reserved
// prefix that conventional readers of the document ignore.
package container

import (
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/wordmd/internal/apperr"
	"github.com/starford/wordmd/internal/models"
	"github.com/starford/wordmd/internal/storage"
)

// Side-channel and staging layout. These names are part of the on-disk
// format and must not change.
const (
	Prefix        = "wordmd/"
	MarkdownEntry = Prefix + "document.md"
	AssetPrefix   = Prefix + "images/"

	MarkdownFile = "document.md"
	AssetDir     = "images"
)

// Store moves side-channel content between a container and a staging
// directory. It does not lock: callers must not run two writers against the
// same container.
type Store struct {
	logger *slog.Logger
}

// NewStore creates a Store. A nil logger discards output.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{logger: logger}
}

// Read returns the side-channel content of the container. A container with no
// side-channel yields empty markdown and an empty asset set.
func (s *Store) Read(containerPath string) (models.Content, error) {
	content := models.Content{Assets: map[string][]byte{}}
	err := view(containerPath, func(pkg *Package) error {
		if pkg.Has(MarkdownEntry) {
			data, err := pkg.ReadPart(MarkdownEntry)
			if err != nil {
				return err
			}
			content.Markdown = string(data)
		}
		for _, name := range pkg.Names() {
			if !strings.HasPrefix(name, AssetPrefix) || strings.HasSuffix(name, "/") {
				continue
			}
			asset := strings.TrimPrefix(name, AssetPrefix)
			if !ValidAssetName(asset) {
				s.logger.Warn("container: skipping asset with invalid name",
					slog.String("container", containerPath),
					slog.String("entry", name))
				continue
			}
			data, err := pkg.ReadPart(name)
			if err != nil {
				return err
			}
			content.Assets[asset] = data
		}
		return nil
	})
	if err != nil {
		return models.Content{}, apperr.Container("read", containerPath, err)
	}
	return content, nil
}

// Extract reads the side-channel and writes it into stagingDir, creating the
// directory if needed.
func (s *Store) Extract(containerPath, stagingDir string) (models.Content, error) {
	content, err := s.Read(containerPath)
	if err != nil {
		return models.Content{}, err
	}
	if err := WriteStagingDirectory(stagingDir, content); err != nil {
		return models.Content{}, apperr.Container("extract", containerPath, err)
	}
	s.logger.Info("container: extracted",
		slog.String("container", containerPath),
		slog.String("staging", stagingDir),
		slog.Int("markdown_bytes", len(content.Markdown)),
		slog.Int("assets", len(content.Assets)))
	return content, nil
}

// Embed replaces the side-channel with markdown and exactly the given
// assets. Asset entries whose names cannot be staged are kept as they are,
// since no caller could have seen them. Additional transforms run in the same rewrite, so everything lands
// in one atomic replacement of the container file.
func (s *Store) Embed(containerPath, markdown string, assets map[string][]byte, transforms ...Transform) error {
	for name := range assets {
		if !ValidAssetName(name) {
			return apperr.Container("embed", containerPath, fmt.Errorf("%w: %q", apperr.ErrInvalidAssetName, name))
		}
	}

	var removed int
	sideChannel := func(pkg *Package) error {
		removed = clearSideChannel(pkg)
		pkg.SetPart(MarkdownEntry, []byte(markdown))
		for name, data := range assets {
			pkg.SetPart(AssetPrefix+name, data)
		}
		return nil
	}

	all := append([]Transform{sideChannel}, transforms...)
	if err := rewrite(containerPath, all...); err != nil {
		return apperr.Container("embed", containerPath, err)
	}
	s.logger.Debug("container: embedded",
		slog.String("container", containerPath),
		slog.Int("markdown_bytes", len(markdown)),
		slog.Int("assets", len(assets)),
		slog.Int("replaced_entries", removed))
	return nil
}

// Rewrite applies transforms to the container in one atomic replacement
// without touching the side-channel.
func (s *Store) Rewrite(containerPath string, transforms ...Transform) error {
	if err := rewrite(containerPath, transforms...); err != nil {
		return apperr.Container("rewrite", containerPath, err)
	}
	return nil
}

// clearSideChannel drops the side-channel, except asset entries that Read
// skips, and reports how many entries were removed.
func clearSideChannel(pkg *Package) int {
	n := 0
	for _, name := range pkg.Names() {
		if !strings.HasPrefix(name, Prefix) || unstageableAsset(name) {
			continue
		}
		pkg.RemovePart(name)
		n++
	}
	return n
}

func unstageableAsset(entry string) bool {
	asset, ok := strings.CutPrefix(entry, AssetPrefix)
	if !ok || asset == "" || strings.HasSuffix(asset, "/") {
		return false
	}
	return !ValidAssetName(asset)
}

// ValidAssetName reports whether name is a plain file name that can be used
// both as a side-channel entry suffix and as a staging file name. Names the
// staging directory treats as editor scratch files are rejected so that what
// is staged is exactly what gets embedded back.
func ValidAssetName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || storage.IsNoise(name) {
		return false
	}
	return path.Base(name) == name
}
