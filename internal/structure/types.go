package structure

import (
	"encoding/json"
	"fmt"
)

// TextBlock is one candidate unit of body text produced by an extractor.
// Only the matcher sets Consumed.
type TextBlock struct {
	Text          string `json:"text"`
	Page          int    `json:"page"`           // 1-indexed physical page
	SequenceIndex int    `json:"sequence_index"` // Monotonic order within the document
	Consumed      bool   `json:"consumed,omitempty"`

	// StyleLevel is the heading level resolved from paragraph styles (docx only).
	// Zero means body text.
	StyleLevel int `json:"style_level,omitempty"`
}

// OutlineEntry is one parsed line of the table of contents.
type OutlineEntry struct {
	RawTitle        string `json:"raw_title"`
	Title           string `json:"title"`      // Raw title without leaders and page number
	NormalizedTitle string `json:"normalized"` // Normalize(Title)
	Numbering       string `json:"numbering,omitempty"`
	Level           int    `json:"level"`
	PageHint        *int   `json:"page_hint,omitempty"`
	Indent          int    `json:"indent,omitempty"`
	SequenceIndex   int    `json:"sequence_index"` // Position within the TOC
	Skipped         bool   `json:"skipped,omitempty"`
	SkipReason      string `json:"skip_reason,omitempty"`
}

// PageLabel renders the page hint for reports.
func (e OutlineEntry) PageLabel() string {
	if e.PageHint == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *e.PageHint)
}

// MatchMethod names the phase that resolved an outline entry.
type MatchMethod string

const (
	MethodPrefix   MatchMethod = "PREFIX"
	MethodAdjacent MatchMethod = "ADJACENT"
	MethodFuzzy    MatchMethod = "FUZZY"
	MethodNone     MatchMethod = "NONE"
)

// NearMiss is a below-threshold fuzzy candidate kept for diagnostics.
type NearMiss struct {
	Block TextBlock `json:"block"`
	Score float64   `json:"score"`
}

// MatchResult is the outcome for one outline entry.
type MatchResult struct {
	Entry         OutlineEntry `json:"entry"`
	MatchedBlock  *TextBlock   `json:"matched_block,omitempty"`
	Covered       *TextBlock   `json:"covered_block,omitempty"` // Successor consumed by an ADJACENT match
	Method        MatchMethod  `json:"method"`
	Score         float64      `json:"score"`
	SkippedReason string       `json:"skipped_reason,omitempty"`
	NearMisses    []NearMiss   `json:"near_misses,omitempty"`
}

// Matched reports whether the entry resolved to a body block.
func (r MatchResult) Matched() bool {
	return r.MatchedBlock != nil && r.Method != MethodNone
}

// IsSkipped reports whether the entry was filtered before matching.
func (r MatchResult) IsSkipped() bool {
	return r.SkippedReason != ""
}

// Err returns ErrEntryUnmatched for an attempted entry that failed every phase.
func (r MatchResult) Err() error {
	if r.Matched() || r.IsSkipped() {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrEntryUnmatched, r.Entry.Title)
}

// HeadingText returns the text the emitter should tag, joining both blocks of
// an ADJACENT match.
func (r MatchResult) HeadingText() string {
	if r.MatchedBlock == nil {
		return ""
	}
	if r.Covered != nil {
		return r.MatchedBlock.Text + " " + r.Covered.Text
	}
	return r.MatchedBlock.Text
}

// Heading is a (block, level) pair handed to the heading emitter.
type Heading struct {
	Block  TextBlock `json:"block"`
	Level  int       `json:"level"`
	Text   string    `json:"text"`
	Covers []int     `json:"covers,omitempty"` // Sequence indices folded into this heading
}

// Region is the contiguous block range identified as the table of contents.
type Region struct {
	StartPage  int    `json:"start_page"`
	EndPage    int    `json:"end_page"`
	StartIndex int    `json:"start_index"` // First block SequenceIndex (inclusive)
	EndIndex   int    `json:"end_index"`   // Last block SequenceIndex (inclusive)
	Keyword    string `json:"keyword,omitempty"`
}

// Contains reports whether a block lies inside the region.
func (r *Region) Contains(b TextBlock) bool {
	if r == nil {
		return false
	}
	return b.SequenceIndex >= r.StartIndex && b.SequenceIndex <= r.EndIndex
}

// Structure is the result of reconstructing one document.
type Structure struct {
	Region   *Region        `json:"region,omitempty"`
	Outline  []OutlineEntry `json:"outline,omitempty"`
	Report   MatchReport    `json:"report"`
	Headings []Heading      `json:"headings,omitempty"`
}

// String returns a JSON representation of the Structure for debugging.
func (s *Structure) String() string {
	b, _ := json.MarshalIndent(s, "", "  ")
	return string(b)
}
