// Package convert runs the extract → reconstruct → emit pipeline for single
// documents and batches.
package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/itsmostafa/doc2html/internal/config"
	"github.com/itsmostafa/doc2html/internal/emit"
	"github.com/itsmostafa/doc2html/internal/extract"
	"github.com/itsmostafa/doc2html/internal/structure"
)

// Options controls where a Converter writes its files.
type Options struct {
	// OutDir receives the output files. Empty writes next to each input.
	OutDir string

	// Root is the directory inputs were discovered under. With OutDir set,
	// outputs keep their path relative to Root.
	Root string

	Logger *slog.Logger
}

// Converter converts documents to HTML. It is safe for concurrent use.
type Converter struct {
	cfg       config.Config
	opts      Options
	extractor *extract.Extractor
	engine    *structure.Engine
	html      *emit.HTMLEmitter
	markdown  *emit.MarkdownEmitter
	logger    *slog.Logger
}

// Result is the outcome of converting one document.
type Result struct {
	Input    string                `json:"input"`
	Output   string                `json:"output"`
	Format   extract.Format        `json:"format,omitempty"`
	Pages    int                   `json:"pages"`
	Stats    emit.Stats            `json:"stats"`
	Report   structure.MatchReport `json:"report"`
	Warnings []string              `json:"warnings,omitempty"`
	Files    []string              `json:"files,omitempty"`
	Duration time.Duration         `json:"duration"`
	Err      error                 `json:"-"`
}

// Success reports whether the document converted.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Analysis describes a document without writing any output.
type Analysis struct {
	Input     string                   `json:"input"`
	Format    extract.Format           `json:"format"`
	Pages     int                      `json:"pages"`
	Blocks    int                      `json:"blocks"`
	TOCFound  bool                     `json:"toc_found"`
	Region    *structure.Region        `json:"region,omitempty"`
	Entries   int                      `json:"entries"`
	Headings  map[int]int              `json:"headings"`
	Outline   []*structure.OutlineNode `json:"outline,omitempty"`
	Report    structure.MatchReport    `json:"report"`
	Warnings  []string                 `json:"warnings,omitempty"`
	Structure *structure.Structure     `json:"-"`
}

// TotalHeadings sums headings over all levels.
func (a *Analysis) TotalHeadings() int {
	n := 0
	for _, c := range a.Headings {
		n += c
	}
	return n
}

// New builds a Converter from a validated configuration.
func New(cfg *config.Config, opts Options) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine, err := structure.NewEngine(cfg.Structure(), structure.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &Converter{
		cfg:       *cfg,
		opts:      opts,
		extractor: extract.New(cfg.Extract(logger)),
		engine:    engine,
		html:      emit.NewHTMLEmitter(cfg.Emit()),
		markdown:  emit.NewMarkdownEmitter(cfg.Emit()),
		logger:    logger,
	}, nil
}

// pipeline is the in-memory result shared by Convert and Analyze.
type pipeline struct {
	doc       *extract.Document
	structure *structure.Structure
	headings  []structure.Heading
	warnings  []string
}

func (c *Converter) run(ctx context.Context, path string) (*pipeline, error) {
	doc, err := c.extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := &pipeline{doc: doc}
	if doc.Format == extract.FormatDOCX && hasStyleLevels(doc.Blocks) {
		p.structure = c.engine.FromStyles(doc.Blocks)
		p.headings = p.structure.Headings
		return p, ctx.Err()
	}

	st, err := c.engine.Reconstruct(doc.Blocks)
	switch {
	case err == nil:
		p.headings = st.Headings
		if n := st.Report.FailureCount; n > 0 {
			p.warnings = append(p.warnings, fmt.Sprintf("%d outline entries unmatched", n))
		}
	case structure.IsRecoverable(err):
		p.warnings = append(p.warnings, st.Report.Warnings...)
	default:
		return nil, err
	}
	p.structure = st
	return p, ctx.Err()
}

// hasStyleLevels reports whether the extractor resolved any heading style.
func hasStyleLevels(blocks []structure.TextBlock) bool {
	for _, b := range blocks {
		if b.StyleLevel > 0 {
			return true
		}
	}
	return false
}

// Analyze extracts and reconstructs path without writing output.
func (c *Converter) Analyze(ctx context.Context, path string) (*Analysis, error) {
	p, err := c.run(ctx, path)
	if err != nil {
		return nil, err
	}
	a := &Analysis{
		Input:     path,
		Format:    p.doc.Format,
		Pages:     p.doc.Pages,
		Blocks:    len(p.doc.Blocks),
		TOCFound:  p.structure.Region != nil,
		Region:    p.structure.Region,
		Entries:   len(p.structure.Outline),
		Headings:  structure.CountByLevel(structure.BuildTree(structure.HeadingNodes(p.headings))),
		Outline:   structure.BuildTree(structure.EntryNodes(p.structure.Outline)),
		Report:    p.structure.Report,
		Warnings:  p.warnings,
		Structure: p.structure,
	}
	return a, nil
}

// Convert converts one document and writes the HTML file, the match report
// and any enabled extra outputs. Failures are recorded in Result.Err.
func (c *Converter) Convert(ctx context.Context, path string) *Result {
	start := time.Now()
	res := &Result{Input: path, Output: c.OutputPath(path)}
	defer func() { res.Duration = time.Since(start) }()

	if c.cfg.Batch.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Batch.Timeout)
		defer cancel()
	}

	p, err := c.run(ctx, path)
	if err != nil {
		res.Err = err
		c.logger.Error("conversion failed", "path", path, "error", err)
		return res
	}
	res.Format = p.doc.Format
	res.Pages = p.doc.Pages
	res.Report = p.structure.Report
	res.Warnings = p.warnings

	if err := c.write(res, p); err != nil {
		res.Err = err
		c.logger.Error("writing output failed", "path", path, "error", err)
		return res
	}
	c.logger.Info("document converted",
		"path", path, "output", res.Output, "headings", res.Stats.TotalHeadings(), "warnings", len(res.Warnings))
	return res
}

func (c *Converter) write(res *Result, p *pipeline) error {
	if err := os.MkdirAll(filepath.Dir(res.Output), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	in := emit.Input{
		Blocks:   p.doc.Blocks,
		Headings: p.headings,
		TOC:      p.structure.Region,
	}
	if len(p.headings) == 0 {
		in.Title = stem(res.Input)
	}

	page, stats, err := c.html.RenderString(in)
	if err != nil {
		return err
	}
	if err := os.WriteFile(res.Output, []byte(page), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", res.Output, err)
	}
	res.Stats = stats
	res.Files = append(res.Files, res.Output)

	base := strings.TrimSuffix(res.Output, filepath.Ext(res.Output))

	report := base + "_report.txt"
	if err := os.WriteFile(report, []byte(p.structure.Report.Text(filepath.Base(res.Input))), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	res.Files = append(res.Files, report)

	if c.cfg.Output.Markdown {
		md, err := c.markdown.Render(in)
		if err != nil {
			return err
		}
		if err := os.WriteFile(base+".md", []byte(md), 0o644); err != nil {
			return fmt.Errorf("write markdown: %w", err)
		}
		res.Files = append(res.Files, base+".md")
	}

	if c.cfg.Output.Fragment {
		frag, err := c.html.Fragment(in)
		if err != nil {
			return err
		}
		if err := os.WriteFile(base+".fragment.html", []byte(frag), 0o644); err != nil {
			return fmt.Errorf("write fragment: %w", err)
		}
		res.Files = append(res.Files, base+".fragment.html")
	}

	if c.cfg.Output.JSON {
		data, err := json.MarshalIndent(p.structure, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal structure: %w", err)
		}
		if err := os.WriteFile(base+"_structure.json", data, 0o644); err != nil {
			return fmt.Errorf("write structure: %w", err)
		}
		res.Files = append(res.Files, base+"_structure.json")
	}
	return nil
}

// OutputPath returns the HTML path for input: {stem}.html next to the input,
// or under OutDir mirroring the input's position below Root.
func (c *Converter) OutputPath(input string) string {
	name := stem(input) + ".html"
	if c.opts.OutDir == "" {
		return filepath.Join(filepath.Dir(input), name)
	}
	if c.opts.Root != "" {
		if rel, err := filepath.Rel(c.opts.Root, filepath.Dir(input)); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.Join(c.opts.OutDir, rel, name)
		}
	}
	return filepath.Join(c.opts.OutDir, name)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
