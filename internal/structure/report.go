package structure

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	reportRule       = "──────────────────────────────────────────────────"
	suggestionPrefix = 60
)

// MatchReport summarizes the match results of one document.
// SuccessCount + FailureCount + SkippedCount == TotalCount.
type MatchReport struct {
	Results        []MatchResult `json:"results"`
	TotalCount     int           `json:"total"`
	SuccessCount   int           `json:"success"`
	FailureCount   int           `json:"failure"`
	SkippedCount   int           `json:"skipped"`
	SuccessRate    float64       `json:"success_rate"`
	FilteredBlocks int           `json:"filtered_blocks"`
	Degraded       bool          `json:"degraded,omitempty"`
	Warnings       []string      `json:"warnings,omitempty"`
}

// NewMatchReport tallies match results.
func NewMatchReport(results []MatchResult) MatchReport {
	r := MatchReport{Results: results, TotalCount: len(results)}
	for _, res := range results {
		switch {
		case res.IsSkipped():
			r.SkippedCount++
		case res.Matched():
			r.SuccessCount++
		default:
			r.FailureCount++
		}
	}
	if r.TotalCount > 0 {
		r.SuccessRate = float64(r.SuccessCount) / float64(r.TotalCount)
	}
	return r
}

// DegradedReport is the empty report of a document converted without a TOC.
func DegradedReport(cause error) MatchReport {
	return MatchReport{
		Degraded: true,
		Warnings: []string{fmt.Sprintf("no TOC found (%v): converted as flat paragraphs", cause)},
	}
}

// StyleReport is the report of a document whose headings came from paragraph
// styles instead of the TOC.
func StyleReport(headings int) MatchReport {
	return MatchReport{
		Warnings: []string{fmt.Sprintf("%d headings taken from paragraph styles; TOC not matched", headings)},
	}
}

// Unmatched returns the results that failed every phase.
func (r MatchReport) Unmatched() []MatchResult {
	var out []MatchResult
	for _, res := range r.Results {
		if res.Err() != nil {
			out = append(out, res)
		}
	}
	return out
}

// WriteText renders the human-readable report for filename.
func (r MatchReport) WriteText(w io.Writer, filename string) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "[변환 리포트] %s\n", filename)
	fmt.Fprintln(bw, reportRule)
	for _, warning := range r.Warnings {
		fmt.Fprintf(bw, "! %s\n", warning)
	}

	for _, res := range r.Results {
		e := res.Entry
		switch {
		case res.IsSkipped():
			fmt.Fprintf(bw, "- [건너뜀] \"%s\" (%s)\n", e.Title, res.SkippedReason)
		case res.Matched():
			fmt.Fprintf(bw, "✓ h%d: \"%s\" (p.%d) → 매칭 (유사도: %.2f)\n",
				e.Level, e.Title, res.MatchedBlock.Page, res.Score)
		default:
			fmt.Fprintf(bw, "✗ h%d: \"%s\" (p.%s) → 매칭 실패\n", e.Level, e.Title, e.PageLabel())
			for _, nm := range res.NearMisses {
				fmt.Fprintf(bw, "   유사 후보: \"%s\" (p.%d, %.2f)\n",
					truncateRunes(nm.Block.Text, suggestionPrefix), nm.Block.Page, nm.Score)
			}
		}
	}

	fmt.Fprintln(bw, reportRule)
	fmt.Fprintf(bw, "섹션 제목: %d개 | 매칭 성공: %d (%.1f%%) | 실패: %d | 건너뜀: %d\n",
		r.TotalCount, r.SuccessCount, r.SuccessRate*100, r.FailureCount, r.SkippedCount)
	if r.FilteredBlocks > 0 {
		fmt.Fprintf(bw, "제외된 본문 블록: %d\n", r.FilteredBlocks)
	}
	return bw.Flush()
}

// Text returns the rendered report as a string.
func (r MatchReport) Text(filename string) string {
	var sb strings.Builder
	_ = r.WriteText(&sb, filename)
	return sb.String()
}

func truncateRunes(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
