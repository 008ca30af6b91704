package convert

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/itsmostafa/doc2html/internal/extract"
)

// BatchResult collects the results of one batch run in input order.
type BatchResult struct {
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Results  []*Result     `json:"results"`
}

// Summary counts batch outcomes.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Warnings  int `json:"warnings"`
}

// Summary tallies the batch. Warnings counts documents with at least one
// warning.
func (b *BatchResult) Summary() Summary {
	s := Summary{Total: len(b.Results)}
	for _, r := range b.Results {
		if r.Success() {
			s.Succeeded++
		} else {
			s.Failed++
		}
		if len(r.Warnings) > 0 {
			s.Warnings++
		}
	}
	return s
}

// Failed returns the results that did not convert.
func (b *BatchResult) Failed() []*Result {
	var out []*Result
	for _, r := range b.Results {
		if !r.Success() {
			out = append(out, r)
		}
	}
	return out
}

var csvHeader = []string{"입력 파일", "출력 파일", "성공 여부", "오류 메시지", "경고 수"}

// ExportCSV writes one row per document. The UTF-8 BOM lets spreadsheet
// applications detect the encoding.
func (b *BatchResult) ExportCSV(w io.Writer) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range b.Results {
		status, msg := "성공", ""
		if !r.Success() {
			status, msg = "실패", r.Err.Error()
		}
		row := []string{r.Input, r.Output, status, msg, strconv.Itoa(len(r.Warnings))}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV exports the batch to path.
func (b *BatchResult) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()
	if err := b.ExportCSV(f); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

// ConvertBatch converts paths on a pool of workers. A failed document never
// stops the batch. onDone, if set, is called from the calling goroutine as
// each document finishes.
func (c *Converter) ConvertBatch(ctx context.Context, paths []string, workers int, onDone func(done, total int, r *Result)) *BatchResult {
	batch := &BatchResult{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Results: make([]*Result, len(paths)),
	}
	if workers <= 0 {
		workers = 1
	}
	workers = min(workers, max(len(paths), 1))

	c.logger.Info("batch started", "run_id", batch.RunID, "documents", len(paths), "workers", workers)

	type job struct {
		index int
		path  string
	}
	type jobResult struct {
		index  int
		result *Result
	}

	jobs := make(chan job, len(paths))
	results := make(chan jobResult, len(paths))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- jobResult{index: j.index, result: &Result{Input: j.path, Output: c.OutputPath(j.path), Err: err}}
					continue
				}
				results <- jobResult{index: j.index, result: c.Convert(ctx, j.path)}
			}
		}()
	}

	for i, p := range paths {
		jobs <- job{index: i, path: p}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	done := 0
	for r := range results {
		batch.Results[r.index] = r.result
		done++
		if onDone != nil {
			onDone(done, len(paths), r.result)
		}
	}

	batch.Duration = time.Since(batch.Started)
	s := batch.Summary()
	c.logger.Info("batch finished",
		"run_id", batch.RunID, "succeeded", s.Succeeded, "failed", s.Failed, "duration", batch.Duration.Round(time.Millisecond))
	return batch
}

// FindDocuments returns the supported documents under root in lexical order.
// A file path is returned as is when supported.
func FindDocuments(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if _, err := extract.DetectFormat(root); err != nil {
			return nil, err
		}
		return []string{root}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		// Word lock files start with "~$".
		if strings.HasPrefix(d.Name(), "~$") {
			return nil
		}
		if extract.IsSupported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}
