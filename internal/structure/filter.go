package structure

// SkipReasonReference is recorded for outline entries that name a figure or
// table rather than a section.
const SkipReasonReference = "Figure/Table 참조"

// NonHeadingFilter recognizes captions and figure/table references that look
// like short headings but must never be tagged as one.
type NonHeadingFilter struct {
	prefixes []string
}

// NewNonHeadingFilter normalizes the configured prefixes once.
func NewNonHeadingFilter(prefixes []string) *NonHeadingFilter {
	f := &NonHeadingFilter{}
	for _, p := range prefixes {
		if n := Normalize(p); n != "" {
			f.prefixes = append(f.prefixes, n)
		}
	}
	return f
}

// IsNonHeading reports whether normalized text begins with a non-heading prefix.
func (f *NonHeadingFilter) IsNonHeading(normalized string) bool {
	for _, p := range f.prefixes {
		if hasTokenPrefix(normalized, p) {
			return true
		}
	}
	return false
}

// FilterBlocks returns a mask of blocks excluded from matching and the number
// of excluded blocks. Filtered blocks keep Consumed == false.
func (f *NonHeadingFilter) FilterBlocks(blocks []TextBlock) ([]bool, int) {
	mask := make([]bool, len(blocks))
	n := 0
	for i, b := range blocks {
		if f.IsNonHeading(Normalize(b.Text)) {
			mask[i] = true
			n++
		}
	}
	return mask, n
}

// MarkEntries flags outline entries that are references, in place.
func (f *NonHeadingFilter) MarkEntries(entries []OutlineEntry) {
	for i := range entries {
		if f.IsNonHeading(entries[i].NormalizedTitle) {
			entries[i].Skipped = true
			entries[i].SkipReason = SkipReasonReference
		}
	}
}
