package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/itsmostafa/doc2html/internal/config"
	"github.com/itsmostafa/doc2html/internal/version"
	"github.com/spf13/cobra"
)

var cfgFile string
var verbose bool
var logDir string

// logFile is the tee target opened by --log-dir, closed after the command.
var logFile *os.File

var rootCmd = &cobra.Command{
	Use:   "doc2html",
	Short: "Convert PDF and DOCX documents to structured HTML",
	Long: `doc2html converts PDF and DOCX documents into semantic HTML.

Headings are reconstructed from the document's table of contents: every
entry is matched against the body text and tagged with its outline level.
A match report is written next to each output file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd.ErrOrStderr())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
			logFile = nil
		}
	},
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("doc2html %s\n", version.String()))

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./doc2html.yaml or $HOME/.doc2html/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Also write logs to converter_{timestamp}.log in this directory")
}

// setupLogging installs the default slog logger.
func setupLogging(stderr io.Writer) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = stderr
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		name := fmt.Sprintf("converter_%s.log", time.Now().Format("20060102_150405"))
		f, err := os.Create(filepath.Join(logDir, name))
		if err != nil {
			return fmt.Errorf("create log file: %w", err)
		}
		logFile = f
		w = io.MultiWriter(stderr, f)
		if !verbose {
			level = slog.LevelInfo
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig reads the configuration selected by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Execute runs the root command. An interrupt cancels the conversions in
// flight.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
