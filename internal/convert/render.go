package convert

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Warning records a markdown construct that was skipped during rendering.
type Warning struct {
	Kind   string
	Detail string
}

func (w Warning) String() string {
	if w.Detail == "" {
		return w.Kind
	}
	return w.Kind + ": " + w.Detail
}

type runStyle struct {
	bold   bool
	italic bool
	code   bool
}

func (s runStyle) props() *RunProps {
	if !s.bold && !s.italic && !s.code {
		return nil
	}
	p := &RunProps{}
	if s.code {
		p.Fonts = &Fonts{ASCII: CodeFont, HAnsi: CodeFont, CS: CodeFont}
	}
	if s.bold {
		p.Bold = &Flag{}
	}
	if s.italic {
		p.Italic = &Flag{}
	}
	return p
}

type renderer struct {
	source   []byte
	body     *Body
	warnings []Warning
}

// render parses markdown with goldmark and maps each top-level block to
// native paragraphs, in document order.
func render(md goldmark.Markdown, source []byte) (*Body, []Warning) {
	r := &renderer{source: source, body: &Body{}}
	doc := md.Parser().Parse(text.NewReader(source))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		r.block(n)
	}
	return r.body, r.warnings
}

func (r *renderer) warn(kind, detail string) {
	r.warnings = append(r.warnings, Warning{Kind: kind, Detail: detail})
}

func (r *renderer) block(n ast.Node) {
	switch classifyBlock(n) {
	case BlockHeading:
		r.heading(n.(*ast.Heading))
	case BlockParagraph:
		p := Paragraph{}
		r.inlines(n, runStyle{}, &p)
		r.body.Paragraphs = append(r.body.Paragraphs, p)
	case BlockList:
		r.list(n.(*ast.List))
	case BlockCode:
		r.code(n)
	case BlockThematicBreak:
		r.body.Paragraphs = append(r.body.Paragraphs, Paragraph{
			Props: &ParagraphProps{Borders: &Borders{Bottom: &Border{
				Val:   borderSingle,
				Size:  6,
				Space: 1,
				Color: borderAutoHue,
			}}},
		})
	default:
		r.warn("unsupported block", n.Kind().String())
	}
}

// HeadingStyle returns the native style id for a heading level, clamped to
// the range Word defines styles for.
func HeadingStyle(level int) string {
	level = max(minHeadingLvl, min(maxHeadingLvl, level))
	return headingPrefix + strconv.Itoa(level)
}

func (r *renderer) heading(h *ast.Heading) {
	p := Paragraph{Props: &ParagraphProps{Style: &Val{Val: HeadingStyle(h.Level)}}}
	r.inlines(h, runStyle{}, &p)
	r.body.Paragraphs = append(r.body.Paragraphs, p)
}

// list renders the first paragraph of every item. Nested lists and further
// blocks inside an item are dropped.
func (r *renderer) list(l *ast.List) {
	numID := NumIDBullet
	if l.IsOrdered() {
		numID = NumIDOrdered
	}
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		rendered := false
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if !rendered && classifyBlock(c) == BlockParagraph {
				p := Paragraph{Props: &ParagraphProps{Numbering: &Numbering{
					Level: Val{Val: "0"},
					ID:    Val{Val: numID},
				}}}
				r.inlines(c, runStyle{}, &p)
				r.body.Paragraphs = append(r.body.Paragraphs, p)
				rendered = true
				continue
			}
			r.warn("dropped list content", c.Kind().String())
		}
	}
}

// code renders a fenced or indented code block as one monospace run. Lines
// are kept verbatim and joined with breaks.
func (r *renderer) code(n ast.Node) {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(r.source))
	}
	raw := strings.TrimSuffix(sb.String(), "\n")

	run := Run{Props: runStyle{code: true}.props()}
	for i, line := range strings.Split(raw, "\n") {
		if i > 0 {
			run.Items = append(run.Items, breakItem())
		}
		if line != "" {
			run.Items = append(run.Items, textItem(strings.TrimSuffix(line, "\r")))
		}
	}
	r.body.Paragraphs = append(r.body.Paragraphs, Paragraph{
		Props: &ParagraphProps{Style: &Val{Val: StyleCode}},
		Runs:  []Run{run},
	})
}

// inlines appends one run per inline span of parent to p.
func (r *renderer) inlines(parent ast.Node, style runStyle, p *Paragraph) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch classifyInline(n) {
		case InlineText:
			r.text(n, style, p)
		case InlineEmphasis:
			nested := style
			if n.(*ast.Emphasis).Level >= 2 {
				nested.bold = true
			} else {
				nested.italic = true
			}
			r.inlines(n, nested, p)
		case InlineCode:
			var sb strings.Builder
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					sb.Write(t.Segment.Value(r.source))
				}
			}
			codeStyle := style
			codeStyle.code = true
			p.Runs = append(p.Runs, Run{Props: codeStyle.props(), Items: []RunItem{textItem(sb.String())}})
		case InlineLink:
			if al, ok := n.(*ast.AutoLink); ok {
				p.Runs = append(p.Runs, Run{Props: style.props(), Items: []RunItem{textItem(string(al.Label(r.source)))}})
				continue
			}
			r.inlines(n, style, p)
		default:
			r.warn("unsupported inline", n.Kind().String())
		}
	}
}

func (r *renderer) text(n ast.Node, style runStyle, p *Paragraph) {
	var (
		value     string
		hardBreak bool
	)
	switch t := n.(type) {
	case *ast.Text:
		value = string(t.Segment.Value(r.source))
		if t.SoftLineBreak() {
			value += " "
		}
		hardBreak = t.HardLineBreak()
	case *ast.String:
		value = string(t.Value)
	}

	if value != "" {
		p.Runs = append(p.Runs, Run{Props: style.props(), Items: []RunItem{textItem(value)}})
	}
	if hardBreak {
		if len(p.Runs) == 0 {
			p.Runs = append(p.Runs, Run{Props: style.props()})
		}
		last := &p.Runs[len(p.Runs)-1]
		last.Items = append(last.Items, breakItem())
	}
}
