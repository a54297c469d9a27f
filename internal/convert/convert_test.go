package convert

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/starford/wordmd/internal/apperr"
	"github.com/starford/wordmd/internal/container"
	"github.com/starford/wordmd/internal/testutil"
)

func TestHeadingStyle(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{1, "Heading1"},
		{2, "Heading2"},
		{3, "Heading3"},
		{6, "Heading6"},
		{9, "Heading6"},
		{0, "Heading1"},
	}
	for _, tt := range tests {
		if got := HeadingStyle(tt.level); got != tt.want {
			t.Errorf("HeadingStyle(%d) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestRender_Headings(t *testing.T) {
	body, warnings := New().Render("# One\n## Two\n### Three\n###### Six")
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	want := []struct{ style, text string }{
		{"Heading1", "One"},
		{"Heading2", "Two"},
		{"Heading3", "Three"},
		{"Heading6", "Six"},
	}
	if len(body.Paragraphs) != len(want) {
		t.Fatalf("paragraphs = %d, want %d", len(body.Paragraphs), len(want))
	}
	for i, w := range want {
		p := body.Paragraphs[i]
		if p.Style() != w.style || p.Text() != w.text {
			t.Errorf("paragraph %d = %s %q, want %s %q", i, p.Style(), p.Text(), w.style, w.text)
		}
	}
}

func TestRender_Empty(t *testing.T) {
	body, warnings := New().Render("")
	if len(body.Paragraphs) != 0 {
		t.Errorf("paragraphs = %d, want 0", len(body.Paragraphs))
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	frag, err := body.MarshalFragment()
	if err != nil {
		t.Fatal(err)
	}
	if len(frag) != 0 {
		t.Errorf("fragment = %q, want empty", frag)
	}
}

func TestRender_BlockOrder(t *testing.T) {
	md := "# Title\n\nSome text.\n\n- first\n- second\n\n```go\nfunc main() {}\n```\n\n---\n"
	body, warnings := New().Render(md)
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(body.Paragraphs) != 6 {
		t.Fatalf("paragraphs = %d, want 6", len(body.Paragraphs))
	}

	ps := body.Paragraphs
	if ps[0].Style() != "Heading1" || ps[0].Text() != "Title" {
		t.Errorf("heading = %s %q", ps[0].Style(), ps[0].Text())
	}
	if ps[1].Style() != "" || ps[1].Text() != "Some text." {
		t.Errorf("paragraph = %s %q", ps[1].Style(), ps[1].Text())
	}
	for i, text := range []string{"first", "second"} {
		p := ps[2+i]
		if p.Props == nil || p.Props.Numbering == nil {
			t.Fatalf("list item %d has no numbering", i)
		}
		if p.Props.Numbering.ID.Val != NumIDBullet || p.Props.Numbering.Level.Val != "0" {
			t.Errorf("list item %d numbering = %+v", i, *p.Props.Numbering)
		}
		if p.Text() != text {
			t.Errorf("list item %d = %q, want %q", i, p.Text(), text)
		}
	}
	if ps[4].Style() != StyleCode || ps[4].Text() != "func main() {}" {
		t.Errorf("code = %s %q", ps[4].Style(), ps[4].Text())
	}
	if ps[5].Props == nil || ps[5].Props.Borders == nil || ps[5].Props.Borders.Bottom == nil {
		t.Fatal("thematic break should carry a bottom border")
	}
	if b := ps[5].Props.Borders.Bottom; b.Val != "single" || b.Size != 6 || b.Space != 1 || b.Color != "auto" {
		t.Errorf("border = %+v", *b)
	}
}

func TestRender_Inlines(t *testing.T) {
	body, _ := New().Render("plain **bold** *italic* `code`")
	if len(body.Paragraphs) != 1 {
		t.Fatalf("paragraphs = %d, want 1", len(body.Paragraphs))
	}
	p := body.Paragraphs[0]
	if p.Text() != "plain bold italic code" {
		t.Errorf("text = %q", p.Text())
	}

	find := func(text string) Run {
		t.Helper()
		for _, r := range p.Runs {
			if r.Text() == text {
				return r
			}
		}
		t.Fatalf("no run with text %q", text)
		return Run{}
	}
	if r := find("plain "); r.Bold() || r.Italic() || r.Monospace() {
		t.Error("plain run should be unformatted")
	}
	if r := find("bold"); !r.Bold() || r.Italic() {
		t.Error("bold run should be bold only")
	}
	if r := find("italic"); !r.Italic() || r.Bold() {
		t.Error("italic run should be italic only")
	}
	if r := find("code"); !r.Monospace() {
		t.Error("code run should use the code font")
	}
}

func TestRender_NestedEmphasis(t *testing.T) {
	body, _ := New().Render("***both***")
	p := body.Paragraphs[0]
	if len(p.Runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(p.Runs))
	}
	if !p.Runs[0].Bold() || !p.Runs[0].Italic() {
		t.Errorf("run should be bold and italic")
	}
}

func TestRender_Breaks(t *testing.T) {
	body, _ := New().Render("line one  \nline two\nline three")
	if len(body.Paragraphs) != 1 {
		t.Fatalf("paragraphs = %d, want 1", len(body.Paragraphs))
	}
	text := body.Paragraphs[0].Text()
	if !strings.Contains(text, "line one\nline two") {
		t.Errorf("hard break not rendered: %q", text)
	}
	if !strings.Contains(text, "line two line three") {
		t.Errorf("soft break should become a space: %q", text)
	}
}

func TestRender_Links(t *testing.T) {
	body, warnings := New().Render("see [the docs](https://example.com) or <https://example.org>")
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if got := body.Paragraphs[0].Text(); got != "see the docs or https://example.org" {
		t.Errorf("text = %q", got)
	}
}

func TestRender_OrderedList(t *testing.T) {
	body, _ := New().Render("1. one\n2. two\n")
	if len(body.Paragraphs) != 2 {
		t.Fatalf("paragraphs = %d, want 2", len(body.Paragraphs))
	}
	for _, p := range body.Paragraphs {
		if p.Props.Numbering.ID.Val != NumIDOrdered {
			t.Errorf("numId = %s, want %s", p.Props.Numbering.ID.Val, NumIDOrdered)
		}
	}
}

func TestRender_NestedListContentDropped(t *testing.T) {
	body, warnings := New().Render("- outer\n  - inner\n")
	if len(body.Paragraphs) != 1 || body.Paragraphs[0].Text() != "outer" {
		t.Fatalf("paragraphs = %+v", body.Paragraphs)
	}
	if len(warnings) != 1 || warnings[0].Kind != "dropped list content" {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestRender_UnsupportedBlocks(t *testing.T) {
	body, warnings := New().Render("> quoted\n\n<div>raw</div>\n\nkept\n")
	if len(body.Paragraphs) != 1 || body.Paragraphs[0].Text() != "kept" {
		t.Fatalf("paragraphs = %+v", body.Paragraphs)
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", warnings)
	}
	for _, w := range warnings {
		if w.Kind != "unsupported block" {
			t.Errorf("warning kind = %q", w.Kind)
		}
	}
}

func TestRender_CodeBlockKeepsLines(t *testing.T) {
	body, _ := New().Render("```\na\n\n  b\n```\n")
	p := body.Paragraphs[0]
	if p.Style() != StyleCode {
		t.Fatalf("style = %q", p.Style())
	}
	if len(p.Runs) != 1 || !p.Runs[0].Monospace() {
		t.Fatal("code block should be one monospace run")
	}
	if got := p.Text(); got != "a\n\n  b" {
		t.Errorf("code text = %q", got)
	}
}

func TestRender_FrontMatter(t *testing.T) {
	md := "---\ntitle: Notes\n---\n# Body\n"

	body, warnings := New(WithFrontMatter(true)).Render(md)
	if len(body.Paragraphs) != 1 || body.Paragraphs[0].Text() != "Body" {
		t.Errorf("stripped render = %+v", body.Paragraphs)
	}
	if len(warnings) != 1 || warnings[0].Kind != "front matter removed" {
		t.Errorf("warnings = %v, want one front matter warning", warnings)
	}

	body, warnings = New().Render(md)
	if len(body.Paragraphs) < 2 {
		t.Errorf("front matter should render by default, got %d paragraphs", len(body.Paragraphs))
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestRender_LeadingBreakAndSetextHeading(t *testing.T) {
	body, warnings := New().Render("---\nNote: x\n---\n\nBody")
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if len(body.Paragraphs) != 3 {
		t.Fatalf("paragraphs = %d, want 3", len(body.Paragraphs))
	}
	if got := body.Paragraphs[1]; got.Style() != "Heading2" || got.Text() != "Note: x" {
		t.Errorf("second paragraph = %q (%s), want Heading2 %q", got.Text(), got.Style(), "Note: x")
	}
	if got := body.Paragraphs[2].Text(); got != "Body" {
		t.Errorf("third paragraph = %q", got)
	}
}

func TestMarshalFragment(t *testing.T) {
	body, _ := New().Render("# T\n\n**b**")
	frag, err := body.MarshalFragment()
	if err != nil {
		t.Fatal(err)
	}
	s := string(frag)
	for _, want := range []string{
		`<w:p><w:pPr><w:pStyle w:val="Heading1"></w:pStyle></w:pPr>`,
		`<w:t xml:space="preserve">T</w:t>`,
		`<w:rPr><w:b></w:b></w:rPr>`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("fragment missing %s\n%s", want, s)
		}
	}
}

func TestReplaceBody(t *testing.T) {
	frag := []byte(`<w:p><w:r><w:t>New</w:t></w:r></w:p>`)
	out, err := ReplaceBody([]byte(testutil.DocumentXML), frag)
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if strings.Contains(s, "Old text") {
		t.Error("old paragraph should be removed")
	}
	if !strings.Contains(s, "<w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc>") {
		t.Error("table content should be untouched")
	}
	tbl := strings.Index(s, "<w:tbl>")
	newP := strings.Index(s, "New")
	sect := strings.Index(s, "<w:sectPr>")
	if tbl < 0 || newP < 0 || sect < 0 || !(tbl < newP && newP < sect) {
		t.Errorf("unexpected body order:\n%s", s)
	}
	if !strings.HasSuffix(s, "</w:sectPr></w:body></w:document>") {
		t.Errorf("section properties should stay last:\n%s", s)
	}
	if !strings.HasPrefix(s, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`) {
		t.Error("declaration should be preserved")
	}
}

func TestReplaceBody_SelfClosing(t *testing.T) {
	doc := []byte(`<w:document xmlns:w="x"><w:body/></w:document>`)
	out, err := ReplaceBody(doc, []byte(`<w:p></w:p>`))
	if err != nil {
		t.Fatal(err)
	}
	if want := `<w:document xmlns:w="x"><w:body><w:p></w:p></w:body></w:document>`; string(out) != want {
		t.Errorf("got %s, want %s", out, want)
	}
}

func TestReplaceBody_NoBody(t *testing.T) {
	_, err := ReplaceBody([]byte(`<w:document xmlns:w="x"></w:document>`), nil)
	if !errors.Is(err, apperr.ErrNoBody) {
		t.Errorf("expected ErrNoBody, got %v", err)
	}
}

func TestConvert(t *testing.T) {
	doc := testutil.TestDocument(t)
	if err := New().Convert(doc, "# Converted\n\nhello"); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	entries := testutil.ReadZip(t, doc)
	xmlDoc := string(entries["word/document.xml"])
	if !strings.Contains(xmlDoc, "Converted") || strings.Contains(xmlDoc, "Old text") {
		t.Errorf("document.xml not replaced:\n%s", xmlDoc)
	}
	if string(entries["[Content_Types].xml"]) != testutil.ContentTypesXML {
		t.Error("content types changed")
	}
	if _, ok := entries[container.MarkdownEntry]; ok {
		t.Error("Convert must not touch the side-channel")
	}
}

func TestConvert_WithEmbed(t *testing.T) {
	doc := testutil.TestDocument(t)
	s := container.NewStore(nil)
	c := New()
	md := "# Shared\n"
	if err := s.Embed(doc, md, nil, c.Transform(md)); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	entries := testutil.ReadZip(t, doc)
	if string(entries[container.MarkdownEntry]) != md {
		t.Errorf("markdown = %q", entries[container.MarkdownEntry])
	}
	if !bytes.Contains(entries["word/document.xml"], []byte("Shared")) {
		t.Error("native body not rendered")
	}
}

func TestConvert_NoBody(t *testing.T) {
	doc := testutil.EmptyContainer(t)
	before, _ := os.ReadFile(doc)
	err := New().Convert(doc, "# x")
	if !errors.Is(err, apperr.ErrNoBody) {
		t.Fatalf("expected ErrNoBody, got %v", err)
	}
	after, _ := os.ReadFile(doc)
	if !bytes.Equal(before, after) {
		t.Error("container modified by failed convert")
	}
}
