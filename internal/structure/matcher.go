package structure

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Matcher resolves outline entries against body blocks in three phases:
// prefix, adjacent-block and fuzzy.
type Matcher struct {
	config     Config
	filter     *NonHeadingFilter
	similarity SimilarityFunc
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithSimilarity replaces the fuzzy-phase scoring function.
func WithSimilarity(fn SimilarityFunc) MatcherOption {
	return func(m *Matcher) {
		if fn != nil {
			m.similarity = fn
		}
	}
}

// NewMatcher creates a Matcher. The config is assumed valid.
func NewMatcher(config Config, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		config:     config,
		filter:     NewNonHeadingFilter(config.NonHeadingPrefixes),
		similarity: Ratio,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// matchState is the mutable state of one matching pass. It is owned by a
// single call to Match.
type matchState struct {
	blocks   []TextBlock
	norms    []string
	filtered []bool
	cursor   int // Position in blocks; candidates are taken at or after it
}

func (s *matchState) available(pos int) bool {
	return !s.blocks[pos].Consumed && !s.filtered[pos]
}

// windowEnd bounds the adjacent and fuzzy phases.
func (s *matchState) windowEnd(window int) int {
	return min(s.cursor+window, len(s.blocks))
}

// Match resolves every entry in outline order. Body blocks must be in
// document order; matched blocks are marked Consumed in place.
func (m *Matcher) Match(entries []OutlineEntry, body []TextBlock) ([]MatchResult, int) {
	state := &matchState{
		blocks: body,
		norms:  make([]string, len(body)),
	}
	for i, b := range body {
		state.norms[i] = Normalize(b.Text)
	}
	var filteredCount int
	state.filtered, filteredCount = m.filter.FilterBlocks(body)

	results := make([]MatchResult, 0, len(entries))
	for _, entry := range entries {
		results = append(results, m.matchEntry(state, entry))
	}
	return results, filteredCount
}

func (m *Matcher) matchEntry(state *matchState, entry OutlineEntry) MatchResult {
	res := MatchResult{Entry: entry, Method: MethodNone}
	if entry.Skipped {
		res.SkippedReason = entry.SkipReason
		if res.SkippedReason == "" {
			res.SkippedReason = SkipReasonReference
		}
		return res
	}
	title := entry.NormalizedTitle
	if title == "" {
		return res
	}

	if pos, ok := m.prefixPhase(state, title); ok {
		if m.continuesTitle(state, title, pos) {
			m.accept(state, &res, pos, pos+1, MethodAdjacent, 1.0)
			return res
		}
		m.accept(state, &res, pos, -1, MethodPrefix, 1.0)
		return res
	}
	if pos, ok := m.adjacentPhase(state, title); ok {
		m.accept(state, &res, pos, pos+1, MethodAdjacent, 1.0)
		return res
	}
	pos, score, nearMisses := m.fuzzyPhase(state, title)
	if pos >= 0 {
		m.accept(state, &res, pos, -1, MethodFuzzy, score)
		return res
	}
	res.NearMisses = nearMisses
	return res
}

// accept consumes the matched block (and the covered successor, if any) and
// advances the cursor.
func (m *Matcher) accept(state *matchState, res *MatchResult, pos, covered int, method MatchMethod, score float64) {
	state.blocks[pos].Consumed = true
	matched := state.blocks[pos]
	res.MatchedBlock = &matched
	state.cursor = pos

	if covered >= 0 {
		state.blocks[covered].Consumed = true
		c := state.blocks[covered]
		res.Covered = &c
		state.cursor = covered
	}
	res.Method = method
	res.Score = score
}

// prefixPhase returns the first available block at or after the cursor whose
// normalized text is prefix-related to the title.
func (m *Matcher) prefixPhase(state *matchState, title string) (int, bool) {
	for pos := state.cursor; pos < len(state.blocks); pos++ {
		if state.available(pos) && m.prefixRelated(title, state.norms[pos]) {
			return pos, true
		}
	}
	return -1, false
}

// continuesTitle reports whether the block at pos holds only the start of the
// title and its available successor carries the rest, as with a heading
// wrapped over two lines.
func (m *Matcher) continuesTitle(state *matchState, title string, pos int) bool {
	if strings.HasPrefix(state.norms[pos], title) {
		return false
	}
	next := pos + 1
	if next >= len(state.blocks) || !state.available(next) || state.norms[next] == "" {
		return false
	}
	joined := Normalize(state.blocks[pos].Text + " " + state.blocks[next].Text)
	return m.prefixRelated(title, joined)
}

// adjacentPhase joins each available block with its immediate successor and
// applies the prefix predicate to the normalized concatenation.
func (m *Matcher) adjacentPhase(state *matchState, title string) (int, bool) {
	end := state.windowEnd(m.config.AdjacentSearchWindow)
	for pos := state.cursor; pos+1 < end; pos++ {
		if !state.available(pos) || !state.available(pos+1) {
			continue
		}
		joined := Normalize(state.blocks[pos].Text + " " + state.blocks[pos+1].Text)
		if m.prefixRelated(title, joined) {
			return pos, true
		}
	}
	return -1, false
}

// fuzzyPhase scores available blocks inside the search window. It returns the
// best position at or above the fuzzy threshold, or -1 with the near-misses.
func (m *Matcher) fuzzyPhase(state *matchState, title string) (int, float64, []NearMiss) {
	end := state.windowEnd(m.config.AdjacentSearchWindow)
	best, bestScore := -1, -1.0
	var near []NearMiss
	for pos := state.cursor; pos < end; pos++ {
		if !state.available(pos) || state.norms[pos] == "" {
			continue
		}
		score := m.similarity(title, state.norms[pos])
		switch {
		case score >= m.config.FuzzyThreshold:
			// Strictly greater keeps the smallest index on ties.
			if score > bestScore {
				best, bestScore = pos, score
			}
		case score >= m.config.SuggestionThreshold:
			near = append(near, NearMiss{Block: state.blocks[pos], Score: score})
		}
	}
	if best >= 0 {
		return best, bestScore, nil
	}

	sort.SliceStable(near, func(i, j int) bool {
		if near[i].Score != near[j].Score {
			return near[i].Score > near[j].Score
		}
		return near[i].Block.SequenceIndex < near[j].Block.SequenceIndex
	})
	if len(near) > m.config.MaxSuggestions {
		near = near[:m.config.MaxSuggestions]
	}
	if len(near) == 0 {
		near = nil
	}
	return -1, 0, near
}

// prefixRelated reports whether the block text starts with the title, or the
// title starts with the whole block on a token boundary. The shorter side must
// reach MinPrefixLength runes.
func (m *Matcher) prefixRelated(title, text string) bool {
	if title == "" || text == "" {
		return false
	}
	shorter := min(utf8.RuneCountInString(title), utf8.RuneCountInString(text))
	if shorter < m.config.MinPrefixLength {
		return false
	}
	return strings.HasPrefix(text, title) || hasTokenPrefix(title, text)
}
