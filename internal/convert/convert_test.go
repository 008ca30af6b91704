package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/itsmostafa/doc2html/internal/config"
	"github.com/itsmostafa/doc2html/internal/structure"
)

func para(styleID, text string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	if styleID != "" {
		fmt.Fprintf(&b, `<w:pPr><w:pStyle w:val="%s"/></w:pPr>`, styleID)
	}
	for i, part := range strings.Split(text, "\t") {
		if i > 0 {
			b.WriteString("<w:r><w:tab/></w:r>")
		}
		if part != "" {
			fmt.Fprintf(&b, `<w:r><w:t xml:space="preserve">%s</w:t></w:r>`, part)
		}
	}
	b.WriteString("</w:p>")
	return b.String()
}

const pageBreak = `<w:p><w:r><w:br w:type="page"/></w:r></w:p>`

func writeDocx(t *testing.T, path string, paras ...string) {
	t.Helper()
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		strings.Join(paras, "") + `</w:body></w:document>`

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(document)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

// writeTOCDocx writes a cover page, a contents page and one body page.
func writeTOCDocx(t *testing.T, path string) {
	writeDocx(t, path,
		para("", "Annual Report"),
		pageBreak,
		para("", "Contents"),
		para("", "1. Overview\t3"),
		para("", "2. Results\t3"),
		para("", "Figure 1. Revenue\t3"),
		pageBreak,
		para("", "1. Overview"),
		para("", "Body text."),
		para("", "2. Results"),
		para("", "NOTE: numbers are preliminary"),
		para("", "Figure 1. Revenue chart"),
	)
}

// writeStyledDocx writes a document without a contents page.
func writeStyledDocx(t *testing.T, path string) {
	writeDocx(t, path,
		para("Heading1", "Intro"),
		para("", "Text"),
		para("Heading2", "Detail"),
	)
}

func newConverter(t *testing.T, modify func(*config.Config), opts Options) *Converter {
	t.Helper()
	cfg := config.Default()
	if modify != nil {
		modify(&cfg)
	}
	c, err := New(&cfg, opts)
	if err != nil {
		t.Fatalf("new converter: %v", err)
	}
	return c
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestConvertWithTOC(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "sample.docx")
	writeTOCDocx(t, input)

	res := newConverter(t, nil, Options{}).Convert(context.Background(), input)
	if res.Err != nil {
		t.Fatalf("convert: %v", res.Err)
	}
	if res.Output != filepath.Join(dir, "sample.html") {
		t.Errorf("output = %s", res.Output)
	}
	if res.Report.TotalCount != 3 || res.Report.SuccessCount != 2 || res.Report.SkippedCount != 1 {
		t.Errorf("unexpected report %+v", res.Report)
	}
	if res.Stats.Headings[1] != 2 || res.Stats.SpecialBlocks != 1 {
		t.Errorf("unexpected stats %+v", res.Stats)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings %v", res.Warnings)
	}

	out := readFile(t, res.Output)
	for _, want := range []string{
		`<h1 id="sec-0001">1. Overview</h1>`,
		`<h1 id="sec-0002">2. Results</h1>`,
		`<a href="#sec-0002">2. Results</a>`,
		"<p>Annual Report</p>",
		`<aside class="note">`,
		"<p>Figure 1. Revenue chart</p>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Contents") {
		t.Errorf("html should not contain the contents page:\n%s", out)
	}

	report := readFile(t, filepath.Join(dir, "sample_report.txt"))
	for _, want := range []string{"[변환 리포트] sample.docx", `"1. Overview"`, "[건너뜀]", "매칭 성공: 2"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
	if len(res.Files) != 2 {
		t.Errorf("expected html and report files, got %v", res.Files)
	}
}

func TestConvertStyledDocx(t *testing.T) {
	t.Run("without contents", func(t *testing.T) {
		input := filepath.Join(t.TempDir(), "styled.docx")
		writeStyledDocx(t, input)

		res := newConverter(t, nil, Options{}).Convert(context.Background(), input)
		if res.Err != nil {
			t.Fatalf("convert: %v", res.Err)
		}
		if res.Report.Degraded || len(res.Warnings) != 0 {
			t.Errorf("styled document should convert cleanly: %+v %v", res.Report, res.Warnings)
		}

		out := readFile(t, res.Output)
		for _, want := range []string{`<h1 id="sec-0001">Intro</h1>`, `<h2 id="sec-0002">Detail</h2>`, "<p>Text</p>"} {
			if !strings.Contains(out, want) {
				t.Errorf("html missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("styles win over contents", func(t *testing.T) {
		input := filepath.Join(t.TempDir(), "manual.docx")
		writeDocx(t, input,
			para("", "Operator Manual"),
			pageBreak,
			para("", "Contents"),
			para("", "1. Overview\t3"),
			para("", "2. Results\t3"),
			pageBreak,
			para("Heading1", "1. Overview"),
			para("Heading2", "1.1 Scope"),
			para("", "Body text."),
			para("Heading1", "2. Results"),
		)

		res := newConverter(t, nil, Options{}).Convert(context.Background(), input)
		if res.Err != nil {
			t.Fatalf("convert: %v", res.Err)
		}
		if res.Stats.Headings[1] != 2 || res.Stats.Headings[2] != 1 {
			t.Errorf("headings per level = %v, want h1:2 h2:1", res.Stats.Headings)
		}
		if res.Report.TotalCount != 0 {
			t.Errorf("contents entries should not be matched, got %+v", res.Report)
		}

		out := readFile(t, res.Output)
		for _, want := range []string{
			`<h2 id="sec-0002">1.1 Scope</h2>`,
			`<a href="#sec-0002">1.1 Scope</a>`,
			"<p>Body text.</p>",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("html missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "Contents") {
			t.Errorf("html should not contain the contents page:\n%s", out)
		}
		report := readFile(t, strings.TrimSuffix(res.Output, ".html")+"_report.txt")
		if !strings.Contains(report, "paragraph styles") {
			t.Errorf("report should note the style source:\n%s", report)
		}
	})
}

func TestConvertExtraOutputs(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in", "sample.docx")
	writeTOCDocx(t, input)
	outDir := filepath.Join(dir, "out")

	c := newConverter(t, func(cfg *config.Config) {
		cfg.Output.Markdown = true
		cfg.Output.JSON = true
		cfg.Output.Fragment = true
	}, Options{OutDir: outDir})

	res := c.Convert(context.Background(), input)
	if res.Err != nil {
		t.Fatalf("convert: %v", res.Err)
	}
	if len(res.Files) != 5 {
		t.Fatalf("expected 5 files, got %v", res.Files)
	}

	md := readFile(t, filepath.Join(outDir, "sample.md"))
	if !strings.Contains(md, "# ") || !strings.Contains(md, "Results") {
		t.Errorf("unexpected markdown:\n%s", md)
	}

	frag := readFile(t, filepath.Join(outDir, "sample.fragment.html"))
	if strings.Contains(frag, "<html") || !strings.Contains(frag, `<h1 id="sec-0001">1. Overview</h1>`) {
		t.Errorf("unexpected fragment:\n%s", frag)
	}

	var st structure.Structure
	if err := json.Unmarshal([]byte(readFile(t, filepath.Join(outDir, "sample_structure.json"))), &st); err != nil {
		t.Fatalf("decode structure: %v", err)
	}
	if st.Region == nil || st.Region.StartPage != 2 || len(st.Headings) != 2 {
		t.Errorf("unexpected structure %+v", st)
	}
}

func TestConvertFailure(t *testing.T) {
	dir := t.TempDir()

	t.Run("corrupt pdf", func(t *testing.T) {
		input := filepath.Join(dir, "broken.pdf")
		if err := os.WriteFile(input, []byte("not a pdf"), 0o644); err != nil {
			t.Fatal(err)
		}
		res := newConverter(t, nil, Options{}).Convert(context.Background(), input)
		if res.Success() {
			t.Fatal("expected failure")
		}
		if _, err := os.Stat(res.Output); !os.IsNotExist(err) {
			t.Error("no output should be written on failure")
		}
	})

	t.Run("canceled", func(t *testing.T) {
		input := filepath.Join(dir, "sample.docx")
		writeTOCDocx(t, input)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := newConverter(t, nil, Options{}).Convert(ctx, input)
		if !errors.Is(res.Err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", res.Err)
		}
	})
}

func TestAnalyze(t *testing.T) {
	input := filepath.Join(t.TempDir(), "sample.docx")
	writeTOCDocx(t, input)

	a, err := newConverter(t, nil, Options{}).Analyze(context.Background(), input)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !a.TOCFound || a.Region.StartPage != 2 {
		t.Errorf("expected TOC on page 2, got %+v", a.Region)
	}
	if a.Pages != 3 || a.Entries != 3 || a.Headings[1] != 2 || a.TotalHeadings() != 2 {
		t.Errorf("unexpected analysis %+v", a)
	}
	if len(a.Outline) != 2 || a.Outline[1].Title != "2. Results" {
		t.Errorf("outline should hold the two sections, got %+v", a.Outline)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(input), "sample.html")); !os.IsNotExist(err) {
		t.Error("analyze must not write output")
	}

	var buf bytes.Buffer
	FormatAnalysis(&buf, a)
	if !strings.Contains(buf.String(), "sample.docx") || !strings.Contains(buf.String(), "h1:2") || !strings.Contains(buf.String(), "2. Results") {
		t.Errorf("unexpected analysis output:\n%s", buf.String())
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		input string
		want  string
	}{
		{"next to input", Options{}, filepath.Join("docs", "a.pdf"), filepath.Join("docs", "a.html")},
		{"out dir", Options{OutDir: "out"}, filepath.Join("docs", "a.docx"), filepath.Join("out", "a.html")},
		{"mirrors root", Options{OutDir: "out", Root: "docs"}, filepath.Join("docs", "sub", "a.pdf"), filepath.Join("out", "sub", "a.html")},
		{"outside root", Options{OutDir: "out", Root: "docs"}, filepath.Join("other", "a.pdf"), filepath.Join("out", "a.html")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newConverter(t, nil, tt.opts)
			if got := c.OutputPath(tt.input); got != tt.want {
				t.Errorf("OutputPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatResult(t *testing.T) {
	var buf bytes.Buffer
	FormatResult(&buf, &Result{Input: "bad.pdf", Err: errors.New("boom")})
	if !strings.Contains(buf.String(), "bad.pdf") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("unexpected failure output: %q", buf.String())
	}

	buf.Reset()
	FormatResult(&buf, &Result{Input: "good.pdf", Output: "good.html", Warnings: []string{"2 outline entries unmatched"}})
	for _, want := range []string{"good.pdf", "good.html", "2 outline entries unmatched"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestFormatLevels(t *testing.T) {
	if got := formatLevels(map[int]int{2: 7, 1: 3}); got != "h1:3 h2:7" {
		t.Errorf("formatLevels = %q", got)
	}
	if got := formatLevels(nil); got != "0" {
		t.Errorf("formatLevels(nil) = %q", got)
	}
}
