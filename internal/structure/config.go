package structure

// Config holds the tuning knobs of the reconstruction engine. It is copied
// into the engine at construction and never mutated afterwards.
type Config struct {
	// TOCKeywords are titles that announce a table of contents page.
	TOCKeywords []string

	// TOCSearchPageLimit is the number of leading pages scanned for the TOC.
	TOCSearchPageLimit int

	// NonHeadingPrefixes mark captions and references ("Figure 3 ...").
	NonHeadingPrefixes []string

	// SectionPrefixes force unnumbered entries such as "Appendix" to level 1.
	SectionPrefixes []string

	// FuzzyThreshold is the inclusive minimum similarity for a fuzzy match.
	FuzzyThreshold float64

	// SuggestionThreshold is the minimum similarity kept as a near-miss.
	SuggestionThreshold float64

	// MaxSuggestions caps the near-misses attached to a failed entry.
	MaxSuggestions int

	// MinPrefixLength is the minimum rune length of the shorter side of a
	// prefix comparison.
	MinPrefixLength int

	// AdjacentSearchWindow bounds how many body blocks past the cursor the
	// adjacent and fuzzy phases inspect.
	AdjacentSearchWindow int

	// MinEntryLength discards TOC titles shorter than this many runes.
	MinEntryLength int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TOCKeywords:          []string{"Table of Contents", "Contents", "목차"},
		TOCSearchPageLimit:   10,
		NonHeadingPrefixes:   []string{"figure", "table", "fig.", "tbl.", "그림", "표", "list of"},
		SectionPrefixes:      []string{"appendix", "부록"},
		FuzzyThreshold:       0.80,
		SuggestionThreshold:  0.50,
		MaxSuggestions:       3,
		MinPrefixLength:      4,
		AdjacentSearchWindow: 200,
		MinEntryLength:       2,
	}
}

// Validate checks value ranges. Violations are reported as *ConfigError.
func (c Config) Validate() error {
	switch {
	case !(c.FuzzyThreshold >= 0 && c.FuzzyThreshold <= 1):
		return &ConfigError{Field: "fuzzy_threshold", Reason: "must be within [0, 1]"}
	case !(c.SuggestionThreshold >= 0 && c.SuggestionThreshold <= 1):
		return &ConfigError{Field: "suggestion_threshold", Reason: "must be within [0, 1]"}
	case c.SuggestionThreshold > c.FuzzyThreshold:
		return &ConfigError{Field: "suggestion_threshold", Reason: "must not exceed fuzzy_threshold"}
	case c.TOCSearchPageLimit <= 0:
		return &ConfigError{Field: "toc_max_search_pages", Reason: "must be positive"}
	case c.MinPrefixLength <= 0:
		return &ConfigError{Field: "min_prefix_length", Reason: "must be positive"}
	case c.AdjacentSearchWindow <= 0:
		return &ConfigError{Field: "adjacent_search_window", Reason: "must be positive"}
	case c.MaxSuggestions < 0:
		return &ConfigError{Field: "max_suggestions", Reason: "must not be negative"}
	case c.MinEntryLength < 0:
		return &ConfigError{Field: "min_entry_length", Reason: "must not be negative"}
	}
	return nil
}

func (c Config) clone() Config {
	out := c
	out.TOCKeywords = append([]string(nil), c.TOCKeywords...)
	out.NonHeadingPrefixes = append([]string(nil), c.NonHeadingPrefixes...)
	out.SectionPrefixes = append([]string(nil), c.SectionPrefixes...)
	return out
}
