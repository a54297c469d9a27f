// Package parser separates YAML front matter from a Markdown document body.
package parser

import (
	"bytes"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Title       string
}

// Parse extracts front matter and body from raw Markdown bytes. Front matter
// that is not valid YAML is treated as part of the body.
func Parse(data []byte) *Result {
	fm, body := splitFrontmatter(data)
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, body),
	}
}

// splitFrontmatter separates YAML front matter (between leading ---
// delimiters) from the Markdown body. If no front matter is found the entire
// content is body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte("---")) {
		return nil, string(data)
	}

	var fm map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(trimmed), &fm, frontmatter.NewFormat("---", "---", yaml.Unmarshal))
	if err != nil || len(fm) == 0 {
		// Invalid YAML or a leading thematic break: everything is body.
		return nil, string(data)
	}
	return fm, strings.TrimLeft(string(body), "\n\r")
}

// deriveTitle returns the front matter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
