// Package convert renders markdown into the native WordprocessingML body of a
// document. Rendering is deliberately partial: headings, paragraphs, the first
// paragraph of list items, code blocks and thematic breaks are supported;
// everything else is skipped with a warning.
package convert

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/yuin/goldmark"

	"github.com/starford/wordmd/internal/apperr"
	"github.com/starford/wordmd/internal/container"
	"github.com/starford/wordmd/internal/parser"
)

// Converter renders markdown and writes the result into documents.
type Converter struct {
	logger           *slog.Logger
	stripFrontMatter bool
	md               goldmark.Markdown
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for conversion warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFrontMatter controls whether leading YAML front matter is removed
// before rendering. It is off by default: "---" followed by a setext heading
// is valid markdown. A removed span is reported as a warning.
func WithFrontMatter(strip bool) Option {
	return func(c *Converter) {
		c.stripFrontMatter = strip
	}
}

// New creates a Converter using a CommonMark goldmark parser.
func New(opts ...Option) *Converter {
	c := &Converter{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		md:     goldmark.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Render converts markdown into native paragraphs. It never fails: unsupported
// constructs are reported as warnings.
func (c *Converter) Render(markdown string) (*Body, []Warning) {
	source := []byte(markdown)
	var removed []Warning
	if c.stripFrontMatter {
		res := parser.Parse(source)
		if res.Frontmatter != nil {
			removed = append(removed, Warning{
				Kind:   "front matter removed",
				Detail: fmt.Sprintf("%d keys removed", len(res.Frontmatter)),
			})
			source = []byte(res.Body)
		}
	}
	body, warnings := render(c.md, source)
	return body, append(removed, warnings...)
}

// Transform returns a container transform that replaces the native body with
// a rendering of markdown. A package without a body fails the transform with
// apperr.ErrNoBody.
func (c *Converter) Transform(markdown string) container.Transform {
	tf, _ := c.Prepare(markdown)
	return tf
}

// Prepare renders markdown, logs any warnings and returns the transform that
// splices the result into a package together with those warnings.
func (c *Converter) Prepare(markdown string) (container.Transform, []Warning) {
	body, warnings := c.Render(markdown)
	for _, w := range warnings {
		c.logger.Warn("convert: skipped markdown construct",
			slog.String("kind", w.Kind),
			slog.String("detail", w.Detail))
	}
	return c.splice(body), warnings
}

func (c *Converter) splice(body *Body) container.Transform {
	return func(pkg *container.Package) error {
		part := mainDocumentPart(pkg)
		if !pkg.Has(part) {
			return fmt.Errorf("%w: missing %s", apperr.ErrNoBody, part)
		}
		doc, err := pkg.ReadPart(part)
		if err != nil {
			return err
		}
		fragment, err := body.MarshalFragment()
		if err != nil {
			return fmt.Errorf("convert: encode body: %w", err)
		}
		updated, err := ReplaceBody(doc, fragment)
		if err != nil {
			return fmt.Errorf("convert: %s: %w", part, err)
		}
		pkg.SetPart(part, updated)

		c.logger.Debug("convert: body rendered",
			slog.String("part", part),
			slog.Int("paragraphs", len(body.Paragraphs)))
		return nil
	}
}

// Convert replaces the native body of the document at containerPath with a
// rendering of markdown, leaving every other part untouched.
func (c *Converter) Convert(containerPath, markdown string) error {
	return container.NewStore(c.logger).Rewrite(containerPath, c.Transform(markdown))
}
