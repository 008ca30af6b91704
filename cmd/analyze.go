package cmd

import (
	"encoding/json"
	"log/slog"
	"path/filepath"

	"github.com/itsmostafa/doc2html/internal/convert"
	"github.com/spf13/cobra"
)

var analyzeJSON bool
var analyzeReport bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Inspect a document's table of contents without writing output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		conv, err := convert.New(cfg, convert.Options{Logger: slog.Default()})
		if err != nil {
			return err
		}

		a, err := conv.Analyze(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if analyzeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(a)
		}
		convert.FormatAnalysis(out, a)
		if analyzeReport {
			return a.Report.WriteText(out, filepath.Base(a.Input))
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the analysis as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeReport, "report", false, "Print the match report after the summary")

	rootCmd.AddCommand(analyzeCmd)
}
