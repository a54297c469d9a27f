package container

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/wordmd/internal/storage"
)

// Package is an editable view of the parts of a ZIP/OPC container. Parts
// that are not replaced are copied verbatim (compressed bytes included) when
// the package is written back.
type Package struct {
	order  []string
	listed map[string]bool
	parts  map[string]*part
}

type part struct {
	file  *zip.File
	data  []byte
	dirty bool
}

// Transform edits a package during a rewrite. Returning an error aborts the
// rewrite and leaves the container untouched.
type Transform func(*Package) error

func newPackage(files []*zip.File) *Package {
	p := &Package{
		listed: make(map[string]bool, len(files)),
		parts:  make(map[string]*part, len(files)),
	}
	for _, f := range files {
		if p.listed[f.Name] {
			continue
		}
		p.order = append(p.order, f.Name)
		p.listed[f.Name] = true
		p.parts[f.Name] = &part{file: f}
	}
	return p
}

// Names returns the part names in package order.
func (p *Package) Names() []string {
	out := make([]string, 0, len(p.parts))
	for _, name := range p.order {
		if _, ok := p.parts[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Has reports whether the package contains a part with the given name.
func (p *Package) Has(name string) bool {
	_, ok := p.parts[name]
	return ok
}

// ReadPart returns the content of a part.
func (p *Package) ReadPart(name string) ([]byte, error) {
	pt, ok := p.parts[name]
	if !ok {
		return nil, fmt.Errorf("container: part %s: %w", name, os.ErrNotExist)
	}
	if pt.dirty {
		return pt.data, nil
	}
	rc, err := pt.file.Open()
	if err != nil {
		return nil, fmt.Errorf("container: open part %s: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("container: read part %s: %w", name, err)
	}
	return data, nil
}

// SetPart replaces or adds a part. A name that was present when the package
// was opened keeps its original position.
func (p *Package) SetPart(name string, data []byte) {
	if !p.listed[name] {
		p.order = append(p.order, name)
		p.listed[name] = true
	}
	p.parts[name] = &part{data: data, dirty: true}
}

// RemovePart drops a part from the package.
func (p *Package) RemovePart(name string) {
	delete(p.parts, name)
}

func (p *Package) writeTo(w io.Writer, now time.Time) error {
	zw := zip.NewWriter(w)
	for _, name := range p.Names() {
		pt := p.parts[name]
		if !pt.dirty {
			if err := zw.Copy(pt.file); err != nil {
				return fmt.Errorf("copy part %s: %w", name, err)
			}
			continue
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return fmt.Errorf("create part %s: %w", name, err)
		}
		if _, err := fw.Write(pt.data); err != nil {
			return fmt.Errorf("write part %s: %w", name, err)
		}
	}
	return zw.Close()
}

// view opens the container read-only and hands its parts to fn.
func view(path string, fn func(*Package) error) error {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer rc.Close()
	return fn(newPackage(rc.File))
}

// rewrite opens the container, applies the transforms and atomically replaces
// the file with the result. Readers observe either the old or the new package.
func rewrite(path string, transforms ...Transform) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	rc, err := zip.OpenReader(abs)
	if err != nil {
		return err
	}
	closed := false
	defer func() {
		if !closed {
			_ = rc.Close()
		}
	}()

	pkg := newPackage(rc.File)
	for _, tf := range transforms {
		if err := tf(pkg); err != nil {
			return err
		}
	}

	return storage.CommitAtomic(abs, info.Mode().Perm(), func(f *os.File) error {
		if err := pkg.writeTo(f, time.Now()); err != nil {
			return err
		}
		// The source must be closed before the rename on platforms that
		// refuse to replace open files.
		closed = true
		return rc.Close()
	})
}
