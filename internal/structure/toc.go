package structure

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var dotLeaders = regexp.MustCompile(`(?:\.\s?){4,}|…{2,}|(?:·\s?){4,}|_{4,}`)

const (
	// maxKeywordLineLen keeps body sentences mentioning "contents" from
	// being taken for a TOC heading.
	maxKeywordLineLen = 40
	maxTOCLineLen     = 120
	minShapedLines    = 4
	minShapedRatio    = 0.6
)

// TOCDetector locates the table of contents among the leading pages.
type TOCDetector struct {
	config   Config
	keywords []string
}

// NewTOCDetector creates a detector for the given configuration.
func NewTOCDetector(config Config) *TOCDetector {
	keywords := make([]string, 0, len(config.TOCKeywords))
	for _, kw := range config.TOCKeywords {
		if n := Normalize(kw); n != "" {
			keywords = append(keywords, n)
		}
	}
	return &TOCDetector{config: config, keywords: keywords}
}

// page groups the blocks of one physical page in document order.
type page struct {
	number int
	blocks []TextBlock
}

// groupPages splits blocks into pages ordered by page number.
func groupPages(blocks []TextBlock) []page {
	byPage := map[int][]TextBlock{}
	for _, b := range blocks {
		byPage[b.Page] = append(byPage[b.Page], b)
	}
	pages := make([]page, 0, len(byPage))
	for n, bs := range byPage {
		sort.SliceStable(bs, func(i, j int) bool { return bs[i].SequenceIndex < bs[j].SequenceIndex })
		pages = append(pages, page{number: n, blocks: bs})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].number < pages[j].number })
	return pages
}

// DetectTOC scans the first TOCSearchPageLimit pages and returns the block
// range of the table of contents, or ErrTOCNotFound.
func (d *TOCDetector) DetectTOC(blocks []TextBlock) (*Region, error) {
	pages := groupPages(blocks)
	limit := d.config.TOCSearchPageLimit
	if limit > len(pages) {
		limit = len(pages)
	}

	start := -1
	keyword := ""
	for i := 0; i < limit; i++ {
		if kw, ok := d.keywordOn(pages[i]); ok {
			start, keyword = i, kw
			break
		}
		if isTOCShaped(pages[i]) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrTOCNotFound
	}

	// Stop at the first page without leaders or TOC shape after the start.
	end := start
	for i := start + 1; i < limit; i++ {
		if !hasDotLeaders(pages[i]) && !isTOCShaped(pages[i]) {
			break
		}
		end = i
	}

	first := pages[start].blocks[0]
	lastBlocks := pages[end].blocks
	last := lastBlocks[len(lastBlocks)-1]
	return &Region{
		StartPage:  pages[start].number,
		EndPage:    pages[end].number,
		StartIndex: first.SequenceIndex,
		EndIndex:   last.SequenceIndex,
		Keyword:    keyword,
	}, nil
}

// keywordOn returns the configured keyword heading a page, if any.
func (d *TOCDetector) keywordOn(p page) (string, bool) {
	for _, line := range pageLines(p) {
		if utf8.RuneCountInString(line) > maxKeywordLineLen {
			continue
		}
		n := Normalize(line)
		for _, kw := range d.keywords {
			if hasTokenPrefix(n, kw) {
				return kw, true
			}
		}
	}
	return "", false
}

// isKeywordLine reports whether a TOC line is only the TOC heading itself.
func (d *TOCDetector) isKeywordLine(line string) bool {
	n := Normalize(line)
	for _, kw := range d.keywords {
		if n == kw {
			return true
		}
	}
	return false
}

func pageLines(p page) []string {
	var lines []string
	for _, b := range p.blocks {
		for _, line := range strings.Split(b.Text, "\n") {
			if strings.TrimSpace(line) != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

func hasDotLeaders(p page) bool {
	for _, line := range pageLines(p) {
		if dotLeaders.MatchString(line) {
			return true
		}
	}
	return false
}

// isTOCShaped reports whether most lines of a page are short and end in a
// page number or a dot leader.
func isTOCShaped(p page) bool {
	lines := pageLines(p)
	if len(lines) < minShapedLines {
		return false
	}
	shaped := 0
	for _, line := range lines {
		if utf8.RuneCountInString(line) > maxTOCLineLen {
			continue
		}
		if _, _, ok := splitPageTail(line); ok || dotLeaders.MatchString(line) {
			shaped++
		}
	}
	return float64(shaped)/float64(len(lines)) >= minShapedRatio
}
