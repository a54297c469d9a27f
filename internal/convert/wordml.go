package convert

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// Native style and numbering identifiers used in rendered paragraphs.
const (
	StyleCode      = "Code"
	CodeFont       = "Courier New"
	NumIDBullet    = "1"
	NumIDOrdered   = "2"
	headingPrefix  = "Heading"
	minHeadingLvl  = 1
	maxHeadingLvl  = 6
	borderSingle   = "single"
	borderAutoHue  = "auto"
	preserveSpaces = "preserve"
)

// Body is the rendered native document body: the paragraphs that replace the
// existing ones in word/document.xml.
type Body struct {
	Paragraphs []Paragraph
}

// Paragraph is a <w:p> element.
type Paragraph struct {
	XMLName xml.Name        `xml:"w:p"`
	Props   *ParagraphProps `xml:"w:pPr,omitempty"`
	Runs    []Run           `xml:"w:r"`
}

// ParagraphProps is a <w:pPr> element. Field order follows the schema.
type ParagraphProps struct {
	Style     *Val       `xml:"w:pStyle,omitempty"`
	Numbering *Numbering `xml:"w:numPr,omitempty"`
	Borders   *Borders   `xml:"w:pBdr,omitempty"`
}

// Val is any element carrying a single w:val attribute.
type Val struct {
	Val string `xml:"w:val,attr"`
}

// Numbering is a <w:numPr> list reference.
type Numbering struct {
	Level Val `xml:"w:ilvl"`
	ID    Val `xml:"w:numId"`
}

// Borders is a <w:pBdr> element.
type Borders struct {
	Bottom *Border `xml:"w:bottom,omitempty"`
}

// Border is one side of a paragraph border.
type Border struct {
	Val   string `xml:"w:val,attr"`
	Size  int    `xml:"w:sz,attr"`
	Space int    `xml:"w:space,attr"`
	Color string `xml:"w:color,attr"`
}

// Run is a <w:r> element: formatting plus an ordered list of text and breaks.
type Run struct {
	XMLName xml.Name  `xml:"w:r"`
	Props   *RunProps `xml:"w:rPr,omitempty"`
	Items   []RunItem
}

// RunProps is a <w:rPr> element. Field order follows the schema.
type RunProps struct {
	Fonts  *Fonts `xml:"w:rFonts,omitempty"`
	Bold   *Flag  `xml:"w:b,omitempty"`
	Italic *Flag  `xml:"w:i,omitempty"`
}

// Fonts is a <w:rFonts> element.
type Fonts struct {
	ASCII string `xml:"w:ascii,attr,omitempty"`
	HAnsi string `xml:"w:hAnsi,attr,omitempty"`
	CS    string `xml:"w:cs,attr,omitempty"`
}

// Flag is an empty on/off element such as <w:b/>.
type Flag struct{}

// RunItem is either a text segment or a line break.
type RunItem struct {
	Text  *Text
	Break *Break
}

// MarshalXML writes the item's own element, ignoring the field name.
func (i RunItem) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	switch {
	case i.Text != nil:
		return e.Encode(i.Text)
	case i.Break != nil:
		return e.Encode(i.Break)
	}
	return nil
}

// Text is a <w:t> element with whitespace preserved.
type Text struct {
	XMLName xml.Name `xml:"w:t"`
	Space   string   `xml:"xml:space,attr,omitempty"`
	Value   string   `xml:",chardata"`
}

// Break is a <w:br/> element.
type Break struct {
	XMLName xml.Name `xml:"w:br"`
}

func textItem(s string) RunItem {
	return RunItem{Text: &Text{Space: preserveSpaces, Value: s}}
}

func breakItem() RunItem {
	return RunItem{Break: &Break{}}
}

// Style returns the paragraph style id, or "" when unstyled.
func (p Paragraph) Style() string {
	if p.Props == nil || p.Props.Style == nil {
		return ""
	}
	return p.Props.Style.Val
}

// Text returns the paragraph's text with breaks as newlines.
func (p Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text())
	}
	return sb.String()
}

// Text returns the run's text with breaks as newlines.
func (r Run) Text() string {
	var sb strings.Builder
	for _, it := range r.Items {
		switch {
		case it.Text != nil:
			sb.WriteString(it.Text.Value)
		case it.Break != nil:
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Bold reports whether the run is bold.
func (r Run) Bold() bool { return r.Props != nil && r.Props.Bold != nil }

// Italic reports whether the run is italic.
func (r Run) Italic() bool { return r.Props != nil && r.Props.Italic != nil }

// Monospace reports whether the run uses the code font.
func (r Run) Monospace() bool {
	return r.Props != nil && r.Props.Fonts != nil && r.Props.Fonts.ASCII == CodeFont
}

// MarshalFragment encodes the paragraphs as a WordprocessingML fragment that
// expects the w: prefix to be declared by the enclosing document.
func (b *Body) MarshalFragment() ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	for i := range b.Paragraphs {
		if err := enc.Encode(&b.Paragraphs[i]); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
