package checksum

import (
	"testing"

	"github.com/starford/wordmd/internal/models"
)

func TestContent(t *testing.T) {
	base := models.Content{Markdown: "# Hi", Assets: map[string][]byte{"a.png": {1, 2}}}

	if Content(base) != Content(models.Content{Markdown: "# Hi", Assets: map[string][]byte{"a.png": {1, 2}}}) {
		t.Error("equal payloads should share a digest")
	}

	variants := map[string]models.Content{
		"markdown": {Markdown: "# Ho", Assets: base.Assets},
		"rename":   {Markdown: "# Hi", Assets: map[string][]byte{"b.png": {1, 2}}},
		"bytes":    {Markdown: "# Hi", Assets: map[string][]byte{"a.png": {1, 3}}},
		"dropped":  {Markdown: "# Hi"},
	}
	for name, c := range variants {
		if Content(c) == Content(base) {
			t.Errorf("%s: digest should differ", name)
		}
	}

	if got := Content(models.Content{}); len(got) != 64 {
		t.Errorf("digest length = %d, want 64", len(got))
	}
}

func TestKey(t *testing.T) {
	if Key("/a/b.docx") == Key("/a/c.docx") {
		t.Error("different paths should have different keys")
	}
	if Key("/a/b.docx") != Key("/a/b.docx") {
		t.Error("key should be stable")
	}
}
