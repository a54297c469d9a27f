// Package testutil provides shared test helpers for building document
// fixtures and journals.
package testutil

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/wordmd/internal/journal"
)

// ContentTypesXML is a minimal [Content_Types].xml for fixtures.
const ContentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

// RootRelsXML is a minimal _rels/.rels pointing at word/document.xml.
const RootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

// DocumentXML is a word/document.xml with one paragraph, one table and the
// section properties Word always writes last.
const DocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Old text</w:t></w:r></w:p><w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl><w:p/><w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr></w:body></w:document>`

// WriteZip writes a ZIP package with the given entries, in order, to path.
func WriteZip(t *testing.T, path string, entries [][2]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(e[1])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

// EmptyContainer creates a package holding only [Content_Types].xml: no native
// body and no side-channel.
func EmptyContainer(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empty.docx")
	WriteZip(t, path, [][2]string{{"[Content_Types].xml", ContentTypesXML}})
	return path
}

// TestDocument creates a minimal Word document with a native body.
func TestDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.docx")
	WriteZip(t, path, [][2]string{
		{"[Content_Types].xml", ContentTypesXML},
		{"_rels/.rels", RootRelsXML},
		{"word/document.xml", DocumentXML},
	})
	return path
}

// ReadZip returns every entry of the package at path keyed by name.
func ReadZip(t *testing.T, path string) map[string][]byte {
	t.Helper()
	rc, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	out := make(map[string][]byte, len(rc.File))
	for _, f := range rc.File {
		r, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(r)
		_ = r.Close()
		if err != nil {
			t.Fatal(err)
		}
		out[f.Name] = data
	}
	return out
}

// TestJournal creates a temporary session journal that is automatically closed.
func TestJournal(t *testing.T) *journal.DB {
	t.Helper()
	db, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
