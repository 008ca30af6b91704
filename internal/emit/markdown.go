package emit

import (
	"bytes"
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"
)

// MarkdownEmitter renders the same node tree as the HTML emitter through an
// HTML-to-Markdown converter.
type MarkdownEmitter struct {
	html *HTMLEmitter
	conv *converter.Converter
}

// NewMarkdownEmitter creates a Markdown emitter. The navigation list is left
// out since Markdown readers build their own outline.
func NewMarkdownEmitter(opts Options) *MarkdownEmitter {
	opts.Nav = false
	return &MarkdownEmitter{
		html: NewHTMLEmitter(opts),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Render converts the document to Markdown.
func (m *MarkdownEmitter) Render(in Input) (string, error) {
	_, body, _ := m.html.buildBody(in)
	var buf bytes.Buffer
	if err := html.Render(&buf, body); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	md, err := m.conv.ConvertString(buf.String())
	if err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return md, nil
}
