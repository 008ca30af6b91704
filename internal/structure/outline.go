package structure

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxLevel = 6

var (
	leaderTail   = regexp.MustCompile(`^(.*?\S)\s*(?:[.·…_]\s*){2,}(\d{1,4}|[ivxlcdmIVXLCDM]{1,7})\s*$`)
	spaceTail    = regexp.MustCompile(`^(.*?\S)\s+(\d{1,4})\s*$`)
	danglingTail = regexp.MustCompile(`[\s.·…_]+$`)

	decimalNumbering = regexp.MustCompile(`^(\d+(?:\.\d+)*)[.)]?(?:\s+|$)`)
	letterNumbering  = regexp.MustCompile(`^([A-Z](?:\.\d+)*)(?:[.)]\s*|\s+|$)`)
	romanNumbering   = regexp.MustCompile(`^([IVXLCDM]+)[.)](?:\s+|$)`)
)

// OutlineParser turns the lines of a TOC region into leveled entries.
type OutlineParser struct {
	config   Config
	detector *TOCDetector
	sections []string
}

// NewOutlineParser creates a parser for the given configuration.
func NewOutlineParser(config Config) *OutlineParser {
	sections := make([]string, 0, len(config.SectionPrefixes))
	for _, s := range config.SectionPrefixes {
		if n := Normalize(s); n != "" {
			sections = append(sections, n)
		}
	}
	return &OutlineParser{
		config:   config,
		detector: NewTOCDetector(config),
		sections: sections,
	}
}

// ParseOutline parses the TOC blocks. It returns ErrEmptyOutline when no line
// survives parsing.
func (p *OutlineParser) ParseOutline(blocks []TextBlock) ([]OutlineEntry, error) {
	var entries []OutlineEntry
	var pending *OutlineEntry

	flush := func() {
		if pending != nil {
			p.appendEntry(&entries, *pending)
			pending = nil
		}
	}

	for _, b := range blocks {
		for _, raw := range strings.Split(b.Text, "\n") {
			line := strings.TrimSpace(raw)
			if line == "" || p.detector.isKeywordLine(line) {
				continue
			}

			title, pageHint, hasPage := splitPageTail(line)
			if !hasPage {
				title = strings.TrimSpace(danglingTail.ReplaceAllString(line, ""))
			}
			numbering, depth := parseNumbering(title)

			if pending != nil && numbering == "" {
				// Wrapped TOC line: the last continuation carries the page number.
				pending.RawTitle += " " + line
				if title != "" {
					pending.Title += " " + title
				}
				if hasPage {
					pending.PageHint = &pageHint
					flush()
				}
				continue
			}
			flush()

			entry := OutlineEntry{
				RawTitle:  line,
				Title:     title,
				Numbering: numbering,
				Level:     depth,
				Indent:    indentWidth(raw),
			}
			if hasPage {
				entry.PageHint = &pageHint
			}

			switch {
			case !hasPage && numbering == "":
				// Neither a number nor a page: parse noise.
			case !hasPage:
				pending = &entry
			default:
				p.appendEntry(&entries, entry)
			}
		}
	}
	flush()

	if len(entries) == 0 {
		return nil, ErrEmptyOutline
	}
	return entries, nil
}

// appendEntry validates an entry, resolves its level and appends it.
func (p *OutlineParser) appendEntry(entries *[]OutlineEntry, e OutlineEntry) {
	rest := strings.TrimSpace(strings.TrimPrefix(e.Title, e.Numbering))
	rest = strings.TrimLeft(rest, ".):-–— ")
	if rest == "" || isDigits(rest) || utf8.RuneCountInString(rest) < p.config.MinEntryLength {
		return
	}

	e.NormalizedTitle = Normalize(e.Title)
	if e.NormalizedTitle == "" {
		return
	}
	if e.Level == 0 {
		e.Level = p.unnumberedLevel(*entries, e)
	}

	prev := 0
	if n := len(*entries); n > 0 {
		prev = (*entries)[n-1].Level
	}
	if e.Level > prev+1 {
		e.Level = prev + 1
	}
	if e.Level > maxLevel {
		e.Level = maxLevel
	}

	e.SequenceIndex = len(*entries)
	*entries = append(*entries, e)
}

// unnumberedLevel infers a level for an entry without numbering. Section
// prefixes such as "Appendix" are level 1; otherwise indentation relative to
// earlier entries is used as a best-effort signal.
func (p *OutlineParser) unnumberedLevel(entries []OutlineEntry, e OutlineEntry) int {
	for _, s := range p.sections {
		if hasTokenPrefix(e.NormalizedTitle, s) {
			return 1
		}
	}
	if e.Indent == 0 {
		return 1
	}
	for i := len(entries) - 1; i >= 0; i-- {
		prev := entries[i]
		if prev.Indent == e.Indent {
			return prev.Level
		}
		if prev.Indent < e.Indent {
			return min(prev.Level+1, maxLevel)
		}
	}
	return 1
}

// splitPageTail strips dot leaders and a trailing page number from a TOC line.
func splitPageTail(line string) (string, int, bool) {
	if m := leaderTail.FindStringSubmatch(line); m != nil {
		if n, ok := parsePageToken(m[2]); ok {
			return strings.TrimSpace(m[1]), n, true
		}
	}
	if m := spaceTail.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[2]); err == nil {
			return strings.TrimSpace(m[1]), n, true
		}
	}
	return line, 0, false
}

// parsePageToken reads an arabic or roman page number.
func parsePageToken(tok string) (int, bool) {
	if n, err := strconv.Atoi(tok); err == nil {
		return n, true
	}
	return romanValue(strings.ToLower(tok))
}

// parseNumbering extracts a leading section number and its depth.
func parseNumbering(title string) (string, int) {
	if m := decimalNumbering.FindStringSubmatch(title); m != nil {
		return m[1], min(strings.Count(m[1], ".")+1, maxLevel)
	}
	if m := romanNumbering.FindStringSubmatch(title); m != nil {
		if _, ok := romanValue(strings.ToLower(m[1])); ok {
			return m[1], 1
		}
	}
	if m := letterNumbering.FindStringSubmatch(title); m != nil {
		// A bare capital starting a sentence ("A Tale") is not numbering.
		if strings.Contains(m[1], ".") || strings.ContainsAny(strings.TrimSpace(m[0][len(m[1]):]), ".)") {
			return m[1], min(strings.Count(m[1], ".")+1, maxLevel)
		}
	}
	return "", 0
}

// romanValue converts a lowercase roman numeral.
func romanValue(s string) (int, bool) {
	if s == "" || !romanNumeral.MatchString(s) {
		return 0, false
	}
	values := map[byte]int{'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100, 'd': 500, 'm': 1000}
	total := 0
	for i := 0; i < len(s); i++ {
		v := values[s[i]]
		if i+1 < len(s) && values[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	return total, true
}

// indentWidth measures leading whitespace, counting a tab as four columns.
func indentWidth(raw string) int {
	width := 0
	for _, r := range raw {
		switch r {
		case ' ', ' ', '　':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}
