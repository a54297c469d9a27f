package convert

import (
	"github.com/yuin/goldmark/ast"
)

// BlockKind is the closed set of markdown block kinds the converter handles.
type BlockKind int

const (
	BlockUnsupported BlockKind = iota
	BlockHeading
	BlockParagraph
	BlockList
	BlockCode
	BlockThematicBreak
)

func (k BlockKind) String() string {
	switch k {
	case BlockHeading:
		return "heading"
	case BlockParagraph:
		return "paragraph"
	case BlockList:
		return "list"
	case BlockCode:
		return "code"
	case BlockThematicBreak:
		return "thematic-break"
	default:
		return "unsupported"
	}
}

// InlineKind is the closed set of markdown inline kinds the converter handles.
type InlineKind int

const (
	InlineUnsupported InlineKind = iota
	InlineText
	InlineEmphasis
	InlineCode
	InlineLink
)

func (k InlineKind) String() string {
	switch k {
	case InlineText:
		return "text"
	case InlineEmphasis:
		return "emphasis"
	case InlineCode:
		return "code"
	case InlineLink:
		return "link"
	default:
		return "unsupported"
	}
}

func classifyBlock(n ast.Node) BlockKind {
	switch n.Kind() {
	case ast.KindHeading:
		return BlockHeading
	case ast.KindParagraph, ast.KindTextBlock:
		return BlockParagraph
	case ast.KindList:
		return BlockList
	case ast.KindFencedCodeBlock, ast.KindCodeBlock:
		return BlockCode
	case ast.KindThematicBreak:
		return BlockThematicBreak
	default:
		return BlockUnsupported
	}
}

// Explicit line breaks are not separate nodes in goldmark; they are flags on
// the preceding text node and are handled with InlineText.
func classifyInline(n ast.Node) InlineKind {
	switch n.Kind() {
	case ast.KindText, ast.KindString:
		return InlineText
	case ast.KindEmphasis:
		return InlineEmphasis
	case ast.KindCodeSpan:
		return InlineCode
	case ast.KindLink, ast.KindAutoLink:
		return InlineLink
	default:
		return InlineUnsupported
	}
}
