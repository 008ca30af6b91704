package structure

import (
	"errors"
	"fmt"
)

var (
	// ErrTOCNotFound means no table of contents was found in the leading pages.
	// Callers fall back to flat paragraph output.
	ErrTOCNotFound = errors.New("table of contents not found")

	// ErrEmptyOutline means a TOC region was found but held no parsable entries.
	ErrEmptyOutline = errors.New("table of contents has no parsable entries")

	// ErrEntryUnmatched marks an outline entry that failed every match phase.
	ErrEntryUnmatched = errors.New("outline entry unmatched")

	// ErrInvalidConfiguration is wrapped by every *ConfigError.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// ConfigError describes a malformed configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfiguration, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// IsRecoverable reports whether err only degrades the conversion to flat
// paragraph output.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrTOCNotFound) || errors.Is(err, ErrEmptyOutline)
}
