package convert

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/starford/wordmd/internal/apperr"
	"github.com/starford/wordmd/internal/container"
)

const (
	rootRelsPart        = "_rels/.rels"
	defaultDocumentPart = "word/document.xml"
	officeDocumentRel   = "/officeDocument"
)

type relationships struct {
	Items []struct {
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// mainDocumentPart resolves the main document part through the package
// relationships, falling back to the conventional location.
func mainDocumentPart(pkg *container.Package) string {
	if !pkg.Has(rootRelsPart) {
		return defaultDocumentPart
	}
	data, err := pkg.ReadPart(rootRelsPart)
	if err != nil {
		return defaultDocumentPart
	}
	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return defaultDocumentPart
	}
	for _, rel := range rels.Items {
		if strings.HasSuffix(rel.Type, officeDocumentRel) && rel.Target != "" {
			return strings.TrimPrefix(rel.Target, "/")
		}
	}
	return defaultDocumentPart
}

// ReplaceBody rewrites a WordprocessingML document so that its body holds the
// given paragraph fragment. Existing top-level paragraphs are removed; other
// top-level elements such as tables keep their relative order, and the
// section properties stay last. Bytes outside the body are left untouched.
func ReplaceBody(doc, fragment []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.Strict = false

	var (
		depth      int
		inBody     bool
		bodyTag    int64 // offset of the body start tag
		bodyStart  int64 // offset just past the body start tag
		bodyEnd    int64 // offset of the body end tag
		bodyName   xml.Name
		childStart int64
		childName  string
		kept       [][]byte
		sectPr     []byte
		found      bool
	)

	for {
		off := dec.InputOffset()
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case !inBody && !found && depth == 2 && t.Name.Local == "body":
				inBody = true
				bodyTag, bodyStart, bodyName = off, dec.InputOffset(), t.Name
			case inBody && depth == 3:
				childStart, childName = off, t.Name.Local
			}
		case xml.EndElement:
			switch {
			case inBody && depth == 3:
				raw := doc[childStart:dec.InputOffset()]
				switch childName {
				case "p":
				case "sectPr":
					sectPr = raw
				default:
					kept = append(kept, raw)
				}
			case inBody && depth == 2:
				inBody, found = false, true
				bodyEnd = off
			}
			depth--
		}
	}

	if !found {
		return nil, apperr.ErrNoBody
	}

	var out bytes.Buffer
	out.Grow(len(doc) + len(fragment))
	if bodyEnd == bodyStart && bytes.HasSuffix(bytes.TrimSpace(doc[bodyTag:bodyStart]), []byte("/>")) {
		// Self-closing <w:body/>: expand it into an explicit pair.
		tag := bodyName.Local
		if bodyName.Space != "" {
			tag = bodyName.Space + ":" + tag
		}
		out.Write(doc[:bodyTag])
		out.WriteString("<" + tag + ">")
		out.Write(fragment)
		out.WriteString("</" + tag + ">")
		out.Write(doc[bodyStart:])
		return out.Bytes(), nil
	}

	out.Write(doc[:bodyStart])
	for _, k := range kept {
		out.Write(k)
	}
	out.Write(fragment)
	out.Write(sectPr)
	out.Write(doc[bodyEnd:])
	return out.Bytes(), nil
}
