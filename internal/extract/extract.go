// Package extract turns PDF and DOCX files into ordered text blocks for the
// structure engine.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/itsmostafa/doc2html/internal/structure"
)

// Format identifies a supported input format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

var (
	// ErrUnsupportedFormat is returned for inputs that are neither PDF nor DOCX.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrNoText means the document parsed but yielded no text blocks.
	ErrNoText = errors.New("no text content found")
)

// Document is the extraction result of one input file.
type Document struct {
	Path   string
	Format Format
	Pages  int
	Blocks []structure.TextBlock
}

// Options configures extraction.
type Options struct {
	// HeadingStyles maps a language tag to paragraph style names ordered by
	// level: index 0 is level 1.
	HeadingStyles map[string][]string

	// RemoveEmptyParagraphs drops paragraphs without text.
	RemoveEmptyParagraphs bool

	// ConvertSmartQuotes replaces typographic quotes, dashes and ellipses with
	// their ASCII forms.
	ConvertSmartQuotes bool

	Logger *slog.Logger
}

// DefaultOptions returns the default extraction options.
func DefaultOptions() Options {
	return Options{
		HeadingStyles: map[string][]string{
			"ko": {"제목 1", "제목 2", "제목 3"},
			"en": {"Heading 1", "Heading 2", "Heading 3"},
		},
		RemoveEmptyParagraphs: true,
		ConvertSmartQuotes:    true,
	}
}

// Extractor reads supported documents into text blocks.
type Extractor struct {
	opts   Options
	styles map[string]int
	logger *slog.Logger
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	styles := map[string]int{}
	for _, names := range opts.HeadingStyles {
		for i, name := range names {
			styles[styleKey(name)] = i + 1
		}
	}
	return &Extractor{opts: opts, styles: styles, logger: logger}
}

// DetectFormat infers the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// IsSupported reports whether path has a supported extension.
func IsSupported(path string) bool {
	_, err := DetectFormat(path)
	return err == nil
}

// Extract reads path and returns its blocks in document order.
func (e *Extractor) Extract(ctx context.Context, path string) (*Document, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var doc *Document
	switch format {
	case FormatPDF:
		doc, err = e.extractPDF(ctx, path)
	case FormatDOCX:
		doc, err = e.extractDocx(ctx, path)
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}
	if len(doc.Blocks) == 0 {
		return nil, fmt.Errorf("extract %s: %w", filepath.Base(path), ErrNoText)
	}

	e.logger.Debug("document extracted",
		"path", path, "format", format, "pages", doc.Pages, "blocks", len(doc.Blocks))
	return doc, nil
}

var smartQuotes = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
	"…", "...",
)

// ConvertSmartQuotes replaces typographic punctuation with ASCII.
func ConvertSmartQuotes(text string) string {
	return smartQuotes.Replace(text)
}

// styleKey canonicalizes a style name or ID so "Heading 1" and "Heading1"
// compare equal.
func styleKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}
