// Package config loads converter settings from defaults, an optional YAML
// file and DOC2HTML_ environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/itsmostafa/doc2html/internal/emit"
	"github.com/itsmostafa/doc2html/internal/extract"
	"github.com/itsmostafa/doc2html/internal/structure"
)

// EnvPrefix prefixes environment overrides, e.g. DOC2HTML_MATCHING_FUZZY_THRESHOLD.
const EnvPrefix = "DOC2HTML"

// Config is the complete converter configuration.
type Config struct {
	TOCKeywords        []string `mapstructure:"toc_keywords" yaml:"toc_keywords"`
	TOCMaxSearchPages  int      `mapstructure:"toc_max_search_pages" yaml:"toc_max_search_pages"`
	NonHeadingPrefixes []string `mapstructure:"non_heading_prefixes" yaml:"non_heading_prefixes"`
	SectionPrefixes    []string `mapstructure:"heading_prefixes_as_section" yaml:"heading_prefixes_as_section"`

	Matching Matching `mapstructure:"matching" yaml:"matching"`
	Docx     Docx     `mapstructure:"docx" yaml:"docx"`
	Output   Output   `mapstructure:"output" yaml:"output"`
	Batch    Batch    `mapstructure:"batch" yaml:"batch"`
}

// Matching tunes the three-phase matcher.
type Matching struct {
	FuzzyThreshold       float64 `mapstructure:"fuzzy_threshold" yaml:"fuzzy_threshold"`
	SuggestionThreshold  float64 `mapstructure:"suggestion_threshold" yaml:"suggestion_threshold"`
	MinPrefixLength      int     `mapstructure:"min_prefix_length" yaml:"min_prefix_length"`
	AdjacentSearchWindow int     `mapstructure:"adjacent_search_window" yaml:"adjacent_search_window"`
	MaxSuggestions       int     `mapstructure:"max_suggestions" yaml:"max_suggestions"`
	MinEntryLength       int     `mapstructure:"min_entry_length" yaml:"min_entry_length"`
}

// Docx controls Word document extraction.
type Docx struct {
	HeadingStyles         map[string][]string `mapstructure:"heading_styles" yaml:"heading_styles"`
	RemoveEmptyParagraphs bool                `mapstructure:"remove_empty_paragraphs" yaml:"remove_empty_paragraphs"`
	ConvertSmartQuotes    bool                `mapstructure:"convert_smart_quotes" yaml:"convert_smart_quotes"`
}

// Output controls the written files.
type Output struct {
	Lang            string              `mapstructure:"lang" yaml:"lang"`
	Nav             bool                `mapstructure:"nav" yaml:"nav"`
	DropPageNumbers bool                `mapstructure:"drop_page_numbers" yaml:"drop_page_numbers"`
	SpecialBlocks   map[string][]string `mapstructure:"special_blocks" yaml:"special_blocks"`
	Markdown        bool                `mapstructure:"markdown" yaml:"markdown"`
	JSON            bool                `mapstructure:"json" yaml:"json"`

	// Fragment writes {stem}.fragment.html, the sanitized body for embedding.
	Fragment bool `mapstructure:"fragment" yaml:"fragment"`
}

// Batch controls directory conversion.
type Batch struct {
	Workers int           `mapstructure:"workers" yaml:"workers"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	s := structure.DefaultConfig()
	x := extract.DefaultOptions()
	e := emit.DefaultOptions()
	return Config{
		TOCKeywords:        s.TOCKeywords,
		TOCMaxSearchPages:  s.TOCSearchPageLimit,
		NonHeadingPrefixes: s.NonHeadingPrefixes,
		SectionPrefixes:    s.SectionPrefixes,
		Matching: Matching{
			FuzzyThreshold:       s.FuzzyThreshold,
			SuggestionThreshold:  s.SuggestionThreshold,
			MinPrefixLength:      s.MinPrefixLength,
			AdjacentSearchWindow: s.AdjacentSearchWindow,
			MaxSuggestions:       s.MaxSuggestions,
			MinEntryLength:       s.MinEntryLength,
		},
		Docx: Docx{
			HeadingStyles:         x.HeadingStyles,
			RemoveEmptyParagraphs: x.RemoveEmptyParagraphs,
			ConvertSmartQuotes:    x.ConvertSmartQuotes,
		},
		Output: Output{
			Lang:            e.Lang,
			Nav:             e.Nav,
			DropPageNumbers: e.DropPageNumbers,
			SpecialBlocks:   e.SpecialBlocks,
		},
		Batch: Batch{
			Workers: runtime.NumCPU(),
		},
	}
}

// Load reads the configuration. An explicit path must exist; otherwise
// ./doc2html.yaml and $HOME/.doc2html/config.yaml are tried in order and
// defaults apply when neither exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// File returns the config file Load would pick for an empty path, or "".
func File() string {
	return findConfigFile()
}

func findConfigFile() string {
	candidates := []string{"doc2html.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".doc2html", "config.yaml"))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// setDefaults registers every leaf key so environment overrides resolve.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("toc_keywords", d.TOCKeywords)
	v.SetDefault("toc_max_search_pages", d.TOCMaxSearchPages)
	v.SetDefault("non_heading_prefixes", d.NonHeadingPrefixes)
	v.SetDefault("heading_prefixes_as_section", d.SectionPrefixes)

	v.SetDefault("matching.fuzzy_threshold", d.Matching.FuzzyThreshold)
	v.SetDefault("matching.suggestion_threshold", d.Matching.SuggestionThreshold)
	v.SetDefault("matching.min_prefix_length", d.Matching.MinPrefixLength)
	v.SetDefault("matching.adjacent_search_window", d.Matching.AdjacentSearchWindow)
	v.SetDefault("matching.max_suggestions", d.Matching.MaxSuggestions)
	v.SetDefault("matching.min_entry_length", d.Matching.MinEntryLength)

	v.SetDefault("docx.heading_styles", d.Docx.HeadingStyles)
	v.SetDefault("docx.remove_empty_paragraphs", d.Docx.RemoveEmptyParagraphs)
	v.SetDefault("docx.convert_smart_quotes", d.Docx.ConvertSmartQuotes)

	v.SetDefault("output.lang", d.Output.Lang)
	v.SetDefault("output.nav", d.Output.Nav)
	v.SetDefault("output.drop_page_numbers", d.Output.DropPageNumbers)
	v.SetDefault("output.special_blocks", d.Output.SpecialBlocks)
	v.SetDefault("output.markdown", d.Output.Markdown)
	v.SetDefault("output.json", d.Output.JSON)
	v.SetDefault("output.fragment", d.Output.Fragment)

	v.SetDefault("batch.workers", d.Batch.Workers)
	v.SetDefault("batch.timeout", d.Batch.Timeout)
}

// Validate checks every value. Violations are *structure.ConfigError.
func (c *Config) Validate() error {
	if err := c.Structure().Validate(); err != nil {
		return err
	}
	switch {
	case len(c.TOCKeywords) == 0:
		return &structure.ConfigError{Field: "toc_keywords", Reason: "must not be empty"}
	case c.Output.Lang == "":
		return &structure.ConfigError{Field: "output.lang", Reason: "must not be empty"}
	case c.Batch.Workers < 0:
		return &structure.ConfigError{Field: "batch.workers", Reason: "must not be negative"}
	case c.Batch.Timeout < 0:
		return &structure.ConfigError{Field: "batch.timeout", Reason: "must not be negative"}
	}
	return nil
}

// Structure returns the reconstruction engine settings.
func (c *Config) Structure() structure.Config {
	return structure.Config{
		TOCKeywords:          c.TOCKeywords,
		TOCSearchPageLimit:   c.TOCMaxSearchPages,
		NonHeadingPrefixes:   c.NonHeadingPrefixes,
		SectionPrefixes:      c.SectionPrefixes,
		FuzzyThreshold:       c.Matching.FuzzyThreshold,
		SuggestionThreshold:  c.Matching.SuggestionThreshold,
		MaxSuggestions:       c.Matching.MaxSuggestions,
		MinPrefixLength:      c.Matching.MinPrefixLength,
		AdjacentSearchWindow: c.Matching.AdjacentSearchWindow,
		MinEntryLength:       c.Matching.MinEntryLength,
	}
}

// Extract returns the extraction options.
func (c *Config) Extract(logger *slog.Logger) extract.Options {
	return extract.Options{
		HeadingStyles:         c.Docx.HeadingStyles,
		RemoveEmptyParagraphs: c.Docx.RemoveEmptyParagraphs,
		ConvertSmartQuotes:    c.Docx.ConvertSmartQuotes,
		Logger:                logger,
	}
}

// Emit returns the rendering options.
func (c *Config) Emit() emit.Options {
	return emit.Options{
		Lang:            c.Output.Lang,
		Nav:             c.Output.Nav,
		SpecialBlocks:   c.Output.SpecialBlocks,
		DropPageNumbers: c.Output.DropPageNumbers,
	}
}

// YAML renders the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	cfg := Default()
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	header := []byte("# doc2html configuration\n# Every key can be overridden with a DOC2HTML_ environment variable,\n# e.g. DOC2HTML_MATCHING_FUZZY_THRESHOLD=0.85\n\n")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return os.WriteFile(path, append(header, data...), 0o644)
}
