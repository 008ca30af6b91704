package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/itsmostafa/doc2html/internal/structure"
)

func (e *Extractor) extractDocx(ctx context.Context, path string) (*Document, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	files := map[string]*zip.File{}
	for _, f := range r.File {
		files[f.Name] = f
	}
	docFile, ok := files["word/document.xml"]
	if !ok {
		return nil, fmt.Errorf("word/document.xml not found in archive")
	}

	names := map[string]string{}
	if sf, ok := files["word/styles.xml"]; ok {
		if names, err = readStyleNames(sf); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	paragraphs, pages, err := readParagraphs(rc)
	if err != nil {
		return nil, err
	}

	doc := &Document{Path: path, Format: FormatDOCX, Pages: pages}
	for _, p := range paragraphs {
		text := strings.TrimSpace(p.text)
		if e.opts.ConvertSmartQuotes {
			text = ConvertSmartQuotes(text)
		}
		if text == "" && e.opts.RemoveEmptyParagraphs {
			continue
		}
		doc.Blocks = append(doc.Blocks, structure.TextBlock{
			Text:          text,
			Page:          p.page,
			SequenceIndex: len(doc.Blocks),
			StyleLevel:    e.headingLevel(p.styleID, names[p.styleID]),
		})
	}
	return doc, nil
}

// headingLevel resolves a paragraph style through the configured heading
// styles, trying the display name before the style ID.
func (e *Extractor) headingLevel(styleID, styleName string) int {
	if styleID == "" {
		return 0
	}
	for _, key := range []string{styleName, styleID} {
		if key == "" {
			continue
		}
		if level, ok := e.styles[styleKey(key)]; ok {
			return level
		}
	}
	if level := builtinHeadingLevel(styleName); level > 0 {
		return level
	}
	return builtinHeadingLevel(styleID)
}

// builtinHeadingLevel recognizes the built-in style names "Title",
// "Heading1" and their localized variants.
func builtinHeadingLevel(style string) int {
	lower := styleKey(style)
	switch lower {
	case "title":
		return 1
	case "subtitle":
		return 2
	}
	for _, prefix := range []string{"heading", "titre", "überschrift", "제목"} {
		if rest, ok := strings.CutPrefix(lower, prefix); ok {
			if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
				return int(rest[0] - '0')
			}
		}
	}
	return 0
}

type paragraph struct {
	text    string
	styleID string
	page    int
}

// readParagraphs streams document.xml. Pages follow the larger of the explicit
// and the last-rendered page break counts, since Word may write both for one
// break.
func readParagraphs(r io.Reader) ([]paragraph, int, error) {
	decoder := xml.NewDecoder(r)
	var (
		paragraphs []paragraph
		open       []*openParagraph // Text boxes nest paragraphs inside paragraphs
		inText     bool
		explicit   = 1
		rendered   = 1
	)
	top := func() *openParagraph {
		if len(open) == 0 {
			return nil
		}
		return open[len(open)-1]
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				open = append(open, &openParagraph{})
			case "pStyle":
				if p := top(); p != nil {
					p.styleID = attr(t, "val")
				}
			case "t":
				inText = top() != nil
			case "tab":
				if p := top(); p != nil {
					p.text.WriteByte('\t')
				}
			case "br":
				if attr(t, "type") == "page" {
					explicit++
				} else if p := top(); p != nil {
					p.text.WriteByte('\n')
				}
			case "lastRenderedPageBreak":
				rendered++
			}
		case xml.CharData:
			if p := top(); inText && p != nil {
				p.text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if p := top(); p != nil {
					paragraphs = append(paragraphs, paragraph{text: p.text.String(), styleID: p.styleID, page: max(explicit, rendered)})
					open = open[:len(open)-1]
				}
			}
		}
	}
	return paragraphs, max(explicit, rendered), nil
}

// openParagraph accumulates a w:p element until its end tag.
type openParagraph struct {
	text    strings.Builder
	styleID string
}

// readStyleNames maps style IDs to display names from styles.xml.
func readStyleNames(f *zip.File) (map[string]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open styles.xml: %w", err)
	}
	defer rc.Close()

	var styles struct {
		Styles []struct {
			ID   string `xml:"styleId,attr"`
			Name struct {
				Val string `xml:"val,attr"`
			} `xml:"name"`
		} `xml:"style"`
	}
	if err := xml.NewDecoder(rc).Decode(&styles); err != nil {
		return nil, fmt.Errorf("parse styles.xml: %w", err)
	}

	names := make(map[string]string, len(styles.Styles))
	for _, s := range styles.Styles {
		names[s.ID] = s.Name.Val
	}
	return names, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
