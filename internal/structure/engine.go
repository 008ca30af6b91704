package structure

import (
	"fmt"
	"log/slog"
	"sort"
)

// Engine reconstructs the heading structure of a document from its table of
// contents. An Engine is immutable and safe for concurrent use; each call to
// Reconstruct owns its own copy of the blocks.
type Engine struct {
	config      Config
	detector    *TOCDetector
	parser      *OutlineParser
	filter      *NonHeadingFilter
	matcherOpts []MatcherOption
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMatcherOptions forwards options to the matcher of every run.
func WithMatcherOptions(opts ...MatcherOption) Option {
	return func(e *Engine) {
		e.matcherOpts = append(e.matcherOpts, opts...)
	}
}

// NewEngine validates config and builds an Engine.
func NewEngine(config Config, opts ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.clone()
	e := &Engine{
		config:   config,
		detector: NewTOCDetector(config),
		parser:   NewOutlineParser(config),
		filter:   NewNonHeadingFilter(config.NonHeadingPrefixes),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.config.clone()
}

// Reconstruct detects the TOC, parses it and matches every entry against the
// body. When the TOC is missing or empty it returns a degraded Structure along
// with ErrTOCNotFound or ErrEmptyOutline; callers check IsRecoverable and fall
// back to flat output.
func (e *Engine) Reconstruct(blocks []TextBlock) (*Structure, error) {
	doc := make([]TextBlock, len(blocks))
	copy(doc, blocks)
	sort.SliceStable(doc, func(i, j int) bool { return doc[i].SequenceIndex < doc[j].SequenceIndex })
	for i := range doc {
		doc[i].Consumed = false
	}

	region, err := e.detector.DetectTOC(doc)
	if err != nil {
		e.logger.Warn("no table of contents found", "pages_scanned", e.config.TOCSearchPageLimit)
		return &Structure{Report: DegradedReport(err)}, err
	}
	e.logger.Debug("table of contents detected",
		"start_page", region.StartPage, "end_page", region.EndPage, "keyword", region.Keyword)

	var tocBlocks, body []TextBlock
	for _, b := range doc {
		switch {
		case region.Contains(b):
			tocBlocks = append(tocBlocks, b)
		case b.SequenceIndex > region.EndIndex:
			body = append(body, b)
		}
	}

	entries, err := e.parser.ParseOutline(tocBlocks)
	if err != nil {
		e.logger.Warn("table of contents has no entries", "start_page", region.StartPage)
		return &Structure{Region: region, Report: DegradedReport(err)}, err
	}
	e.filter.MarkEntries(entries)

	matcher := NewMatcher(e.config, e.matcherOpts...)
	results, filtered := matcher.Match(entries, body)
	report := NewMatchReport(results)
	report.FilteredBlocks = filtered

	for _, res := range report.Unmatched() {
		e.logger.Debug("outline entry unmatched",
			"title", res.Entry.Title, "page", res.Entry.PageLabel(), "near_misses", len(res.NearMisses))
	}
	e.logger.Info("structure reconstructed",
		"entries", report.TotalCount,
		"matched", report.SuccessCount,
		"failed", report.FailureCount,
		"skipped", report.SkippedCount,
		"rate", fmt.Sprintf("%.1f%%", report.SuccessRate*100))

	return &Structure{
		Region:   region,
		Outline:  entries,
		Report:   report,
		Headings: headingsFrom(results),
	}, nil
}

// headingsFrom collects matched results into headings in document order.
func headingsFrom(results []MatchResult) []Heading {
	var headings []Heading
	for _, res := range results {
		if !res.Matched() {
			continue
		}
		h := Heading{
			Block:  *res.MatchedBlock,
			Level:  res.Entry.Level,
			Text:   res.HeadingText(),
			Covers: []int{res.MatchedBlock.SequenceIndex},
		}
		if res.Covered != nil {
			h.Covers = append(h.Covers, res.Covered.SequenceIndex)
		}
		headings = append(headings, h)
	}
	sort.SliceStable(headings, func(i, j int) bool {
		return headings[i].Block.SequenceIndex < headings[j].Block.SequenceIndex
	})
	return headings
}

// FromStyles builds the Structure of a document whose heading levels come
// from paragraph styles. A TOC is only located so that it can be left out of
// the output; its entries are not matched.
func (e *Engine) FromStyles(blocks []TextBlock) *Structure {
	region, err := e.detector.DetectTOC(blocks)
	if err != nil {
		region = nil
	}

	var headings []Heading
	for _, h := range StyleHeadings(blocks) {
		if !region.Contains(h.Block) {
			headings = append(headings, h)
		}
	}
	e.logger.Info("headings taken from paragraph styles", "headings", len(headings), "toc", region != nil)
	return &Structure{Region: region, Headings: headings, Report: StyleReport(len(headings))}
}

// StyleHeadings derives headings from paragraph styles, for documents whose
// extractor resolved heading levels directly (docx).
func StyleHeadings(blocks []TextBlock) []Heading {
	var headings []Heading
	for _, b := range blocks {
		if b.StyleLevel <= 0 {
			continue
		}
		headings = append(headings, Heading{
			Block:  b,
			Level:  min(b.StyleLevel, maxLevel),
			Text:   b.Text,
			Covers: []int{b.SequenceIndex},
		})
	}
	return headings
}
