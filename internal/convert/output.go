package convert

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/itsmostafa/doc2html/internal/structure"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for muted labels
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for summary boxes with rounded border
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// FormatResult renders the outcome of one conversion.
func FormatResult(w io.Writer, r *Result) {
	if !r.Success() {
		fmt.Fprintf(w, "%s %s: %v\n", errorStyle.Render("✗"), r.Input, r.Err)
		return
	}

	lines := []string{
		titleStyle.Render(filepath.Base(r.Input)),
		fmt.Sprintf("%s %s", dimStyle.Render("Output:"), r.Output),
		fmt.Sprintf("%s %s  %s %d  %s %.1fs",
			dimStyle.Render("Format:"), r.Format,
			dimStyle.Render("Pages:"), r.Pages,
			dimStyle.Render("Time:"), r.Duration.Seconds()),
		fmt.Sprintf("%s %d  %s %s  %s %d",
			dimStyle.Render("Paragraphs:"), r.Stats.Paragraphs,
			dimStyle.Render("Headings:"), formatLevels(r.Stats.Headings),
			dimStyle.Render("Special:"), r.Stats.SpecialBlocks),
	}
	if r.Report.TotalCount > 0 {
		lines = append(lines, fmt.Sprintf("%s %d/%d (%.1f%%)  %s %d",
			dimStyle.Render("Matched:"), r.Report.SuccessCount, r.Report.TotalCount, r.Report.SuccessRate*100,
			dimStyle.Render("Skipped:"), r.Report.SkippedCount))
	}
	for _, warning := range r.Warnings {
		lines = append(lines, warnStyle.Render("! "+warning))
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

// FormatAnalysis renders an analysis without output paths.
func FormatAnalysis(w io.Writer, a *Analysis) {
	toc := errorStyle.Render("not found")
	if a.TOCFound {
		toc = successStyle.Render(fmt.Sprintf("pages %d-%d", a.Region.StartPage, a.Region.EndPage))
	}
	lines := []string{
		titleStyle.Render(filepath.Base(a.Input)),
		fmt.Sprintf("%s %s  %s %d  %s %d",
			dimStyle.Render("Format:"), a.Format,
			dimStyle.Render("Pages:"), a.Pages,
			dimStyle.Render("Blocks:"), a.Blocks),
		fmt.Sprintf("%s %s  %s %d", dimStyle.Render("TOC:"), toc, dimStyle.Render("Entries:"), a.Entries),
		fmt.Sprintf("%s %s", dimStyle.Render("Headings:"), formatLevels(a.Headings)),
	}
	if len(a.Outline) > 0 {
		lines = append(lines, dimStyle.Render("Outline:"))
		lines = appendOutline(lines, a.Outline, 1)
	}
	if a.Report.TotalCount > 0 {
		lines = append(lines, fmt.Sprintf("%s %d  %s %d  %s %d",
			dimStyle.Render("Matched:"), a.Report.SuccessCount,
			dimStyle.Render("Failed:"), a.Report.FailureCount,
			dimStyle.Render("Skipped:"), a.Report.SkippedCount))
	}
	for _, warning := range a.Warnings {
		lines = append(lines, warnStyle.Render("! "+warning))
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

// appendOutline adds one indented line per outline node.
func appendOutline(lines []string, nodes []*structure.OutlineNode, depth int) []string {
	for _, n := range nodes {
		line := strings.Repeat("  ", depth) + n.Title
		if n.Page > 0 {
			line += dimStyle.Render(fmt.Sprintf(" p.%d", n.Page))
		}
		lines = append(lines, line)
		lines = appendOutline(lines, n.Children, depth+1)
	}
	return lines
}

// FormatProgress writes one progress line for a finished batch document.
func FormatProgress(w io.Writer, done, total int, r *Result) {
	status := successStyle.Render("✓")
	if !r.Success() {
		status = errorStyle.Render("✗")
	} else if len(r.Warnings) > 0 {
		status = warnStyle.Render("!")
	}
	counter := dimStyle.Render(fmt.Sprintf("[%d/%d]", done, total))
	fmt.Fprintf(w, "%s %s %s\n", counter, status, r.Input)
}

// FormatBatchSummary renders the batch totals and lists failures.
func FormatBatchSummary(w io.Writer, b *BatchResult) {
	s := b.Summary()
	content := titleStyle.Render("Batch Complete") + "\n" +
		fmt.Sprintf("%s %s  %s %.1fs\n", dimStyle.Render("Run:"), b.RunID, dimStyle.Render("Time:"), b.Duration.Seconds()) +
		fmt.Sprintf("%s %d  %s %s  %s %s  %s %s",
			dimStyle.Render("Total:"), s.Total,
			dimStyle.Render("Succeeded:"), successStyle.Render(fmt.Sprint(s.Succeeded)),
			dimStyle.Render("Failed:"), errorStyle.Render(fmt.Sprint(s.Failed)),
			dimStyle.Render("Warnings:"), warnStyle.Render(fmt.Sprint(s.Warnings)))
	fmt.Fprintln(w, boxStyle.Render(content))

	for _, r := range b.Failed() {
		fmt.Fprintf(w, "%s %s: %v\n", errorStyle.Render("✗"), r.Input, r.Err)
	}
}

// formatLevels renders heading counts as "h1:3 h2:7".
func formatLevels(counts map[int]int) string {
	if len(counts) == 0 {
		return "0"
	}
	levels := make([]int, 0, len(counts))
	for l := range counts {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	parts := make([]string, 0, len(levels))
	for _, l := range levels {
		parts = append(parts, fmt.Sprintf("h%d:%d", l, counts[l]))
	}
	return strings.Join(parts, " ")
}
