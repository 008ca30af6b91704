package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/itsmostafa/doc2html/internal/convert"
	"github.com/spf13/cobra"
)

var outDir string
var workers int
var markdown bool
var jsonOut bool
var fragment bool
var timeout time.Duration
var csvPath string

var convertCmd = &cobra.Command{
	Use:   "convert <file|dir>...",
	Short: "Convert documents to HTML",
	Long: `Convert PDF and DOCX files to HTML. Directories are searched recursively.

Each input produces {name}.html and {name}_report.txt, next to the input or
under --out.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("workers") {
			cfg.Batch.Workers = workers
		}
		if flags.Changed("timeout") {
			cfg.Batch.Timeout = timeout
		}
		if flags.Changed("markdown") {
			cfg.Output.Markdown = markdown
		}
		if flags.Changed("json") {
			cfg.Output.JSON = jsonOut
		}
		if flags.Changed("fragment") {
			cfg.Output.Fragment = fragment
		}

		var paths []string
		root := ""
		for _, arg := range args {
			found, err := convert.FindDocuments(arg)
			if err != nil {
				return err
			}
			if info, err := os.Stat(arg); err == nil && info.IsDir() && len(args) == 1 {
				root = arg
			}
			paths = append(paths, found...)
		}
		if len(paths) == 0 {
			return fmt.Errorf("no PDF or DOCX documents found")
		}

		conv, err := convert.New(cfg, convert.Options{OutDir: outDir, Root: root, Logger: slog.Default()})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(paths) == 1 && root == "" {
			res := conv.Convert(cmd.Context(), paths[0])
			convert.FormatResult(out, res)
			return res.Err
		}

		batch := conv.ConvertBatch(cmd.Context(), paths, cfg.Batch.Workers, func(done, total int, r *convert.Result) {
			convert.FormatProgress(out, done, total, r)
		})
		convert.FormatBatchSummary(out, batch)

		if csvPath != "" {
			if err := batch.WriteCSV(csvPath); err != nil {
				return err
			}
		}
		if s := batch.Summary(); s.Failed > 0 {
			return fmt.Errorf("%d of %d documents failed", s.Failed, s.Total)
		}
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: next to each input)")
	convertCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel workers for batch conversion (default: number of CPUs)")
	convertCmd.Flags().BoolVar(&markdown, "markdown", false, "Also write {name}.md")
	convertCmd.Flags().BoolVar(&jsonOut, "json", false, "Also write {name}_structure.json")
	convertCmd.Flags().BoolVar(&fragment, "fragment", false, "Also write {name}.fragment.html, the sanitized body for embedding")
	convertCmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-document timeout (0 = none)")
	convertCmd.Flags().StringVar(&csvPath, "csv", "", "Write a batch summary CSV to this path")

	rootCmd.AddCommand(convertCmd)
}
