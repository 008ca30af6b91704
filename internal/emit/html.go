// Package emit renders reconstructed documents as HTML and Markdown.
package emit

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/itsmostafa/doc2html/internal/structure"
	"github.com/itsmostafa/doc2html/internal/version"
)

// Options controls HTML rendering.
type Options struct {
	// Lang is the html lang attribute.
	Lang string

	// Nav renders a navigation list built from the matched headings.
	Nav bool

	// SpecialBlocks maps a CSS class to the paragraph prefixes that mark it,
	// e.g. "note" → ["NOTE", "참고"].
	SpecialBlocks map[string][]string

	// DropPageNumbers omits blocks consisting only of a page number.
	DropPageNumbers bool
}

// DefaultOptions returns the default rendering options.
func DefaultOptions() Options {
	return Options{
		Lang: "ko",
		Nav:  true,
		SpecialBlocks: map[string][]string{
			"note":    {"NOTE", "참고"},
			"caution": {"CAUTION", "주의"},
			"warning": {"WARNING", "경고"},
		},
		DropPageNumbers: true,
	}
}

// Input is one document ready for rendering.
type Input struct {
	Title    string
	Blocks   []structure.TextBlock
	Headings []structure.Heading

	// TOC is the block range replaced by the navigation list. Nil renders
	// every block.
	TOC *structure.Region
}

// Stats counts what a render produced.
type Stats struct {
	Paragraphs         int         `json:"paragraphs"`
	Headings           map[int]int `json:"headings"`
	SpecialBlocks      int         `json:"special_blocks"`
	DroppedPageNumbers int         `json:"dropped_page_numbers"`
}

// TotalHeadings sums headings over all levels.
func (s Stats) TotalHeadings() int {
	n := 0
	for _, c := range s.Headings {
		n += c
	}
	return n
}

// HTMLEmitter builds an HTML document from blocks and headings.
type HTMLEmitter struct {
	opts     Options
	special  []specialPrefix
	sanitize *bluemonday.Policy
}

type specialPrefix struct {
	class  string
	prefix string
}

// NewHTMLEmitter creates an emitter.
func NewHTMLEmitter(opts Options) *HTMLEmitter {
	var special []specialPrefix
	for class, prefixes := range opts.SpecialBlocks {
		for _, p := range prefixes {
			special = append(special, specialPrefix{class: class, prefix: strings.ToLower(p)})
		}
	}
	// Longest prefix wins; ties go to the class name.
	sort.Slice(special, func(i, j int) bool {
		a, b := special[i], special[j]
		if len(a.prefix) != len(b.prefix) {
			return len(a.prefix) > len(b.prefix)
		}
		if a.class != b.class {
			return a.class < b.class
		}
		return a.prefix < b.prefix
	})

	policy := bluemonday.UGCPolicy()
	policy.AllowElements("nav", "aside")
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-z]+$`)).OnElements("aside", "nav")
	policy.AllowAttrs("id").Matching(regexp.MustCompile(`^sec-\d+$`)).OnElements("h1", "h2", "h3", "h4", "h5", "h6")

	return &HTMLEmitter{opts: opts, special: special, sanitize: policy}
}

// Render writes a complete HTML document.
func (e *HTMLEmitter) Render(w io.Writer, in Input) (Stats, error) {
	doc, stats := e.build(in)
	if err := html.Render(w, doc); err != nil {
		return stats, fmt.Errorf("render html: %w", err)
	}
	return stats, nil
}

// RenderString renders the complete document to a string.
func (e *HTMLEmitter) RenderString(in Input) (string, Stats, error) {
	var buf bytes.Buffer
	stats, err := e.Render(&buf, in)
	return buf.String(), stats, err
}

// Fragment renders only the body content, sanitized for embedding in
// another page.
func (e *HTMLEmitter) Fragment(in Input) (string, error) {
	_, body, _ := e.buildBody(in)
	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render fragment: %w", err)
		}
	}
	return e.sanitize.Sanitize(buf.String()), nil
}

func (e *HTMLEmitter) build(in Input) (*html.Node, Stats) {
	title, body, stats := e.buildBody(in)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html, "lang", e.opts.Lang)
	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, "charset", "utf-8"))
	head.AppendChild(element(atom.Meta, "name", "generator", "content", "doc2html "+version.Version))
	t := element(atom.Title)
	t.AppendChild(text(title))
	head.AppendChild(t)

	root.AppendChild(head)
	root.AppendChild(body)
	doc.AppendChild(root)
	return doc, stats
}

func (e *HTMLEmitter) buildBody(in Input) (string, *html.Node, Stats) {
	stats := Stats{Headings: map[int]int{}}
	nodes := structure.HeadingNodes(in.Headings)

	headingAt := map[int]*structure.OutlineNode{}
	covered := map[int]bool{}
	for i, h := range in.Headings {
		headingAt[h.Block.SequenceIndex] = nodes[i]
		for _, idx := range h.Covers[min(1, len(h.Covers)):] {
			covered[idx] = true
		}
	}

	title := in.Title
	if title == "" && len(nodes) > 0 {
		title = nodes[0].Title
	}

	body := element(atom.Body)
	if e.opts.Nav && len(nodes) > 0 {
		body.AppendChild(navigation(structure.BuildTree(nodes)))
	}

	content := element(atom.Main)
	for _, b := range in.Blocks {
		if in.TOC.Contains(b) || covered[b.SequenceIndex] {
			continue
		}
		if n, ok := headingAt[b.SequenceIndex]; ok {
			level := min(max(n.Level, 1), 6)
			h := element(headingAtoms[level-1], "id", n.Anchor())
			h.AppendChild(text(n.Title))
			content.AppendChild(h)
			stats.Headings[level]++
			continue
		}

		trimmed := strings.TrimSpace(b.Text)
		if e.opts.DropPageNumbers && isPageNumber(trimmed) {
			stats.DroppedPageNumbers++
			continue
		}
		if trimmed == "" && b.Text != "" {
			continue
		}

		p := paragraph(b.Text)
		if class, ok := e.specialClass(trimmed); ok {
			aside := element(atom.Aside, "class", class)
			aside.AppendChild(p)
			content.AppendChild(aside)
			stats.SpecialBlocks++
			continue
		}
		content.AppendChild(p)
		stats.Paragraphs++
	}
	body.AppendChild(content)
	return title, body, stats
}

// specialClass matches note/caution/warning paragraphs by their leading word.
func (e *HTMLEmitter) specialClass(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, s := range e.special {
		rest, ok := strings.CutPrefix(lower, s.prefix)
		if !ok {
			continue
		}
		if rest == "" {
			return s.class, true
		}
		if r, _ := utf8.DecodeRuneInString(rest); r == ':' || r == ']' || r == ')' || unicode.IsSpace(r) {
			return s.class, true
		}
	}
	return "", false
}

var headingAtoms = []atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

func navigation(tree []*structure.OutlineNode) *html.Node {
	nav := element(atom.Nav, "class", "toc")
	nav.AppendChild(navList(tree))
	return nav
}

func navList(nodes []*structure.OutlineNode) *html.Node {
	ul := element(atom.Ul)
	for _, n := range nodes {
		li := element(atom.Li)
		a := element(atom.A, "href", "#"+n.Anchor())
		a.AppendChild(text(n.Title))
		li.AppendChild(a)
		if len(n.Children) > 0 {
			li.AppendChild(navList(n.Children))
		}
		ul.AppendChild(li)
	}
	return ul
}

// paragraph renders text, turning embedded newlines into <br>.
func paragraph(s string) *html.Node {
	p := element(atom.P)
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			p.AppendChild(element(atom.Br))
		}
		if line != "" {
			p.AppendChild(text(line))
		}
	}
	return p
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func isPageNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
