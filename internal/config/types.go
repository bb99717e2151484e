// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modhost/modhost/pkg/types"
)

const (
	// LogLevelDebug logs everything, including per-symbol lookups.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs lifecycle progress.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs recoverable problems only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs failures only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidPattern is returned when the scan pattern is not a valid glob.
	ErrInvalidPattern = errors.New("invalid scan pattern")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level written by the logger.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError collects field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the loader configuration.
	Config struct {
		// ApplicationID identifies the host application to native modules.
		ApplicationID string `json:"application_id" mapstructure:"application_id"`
		// Paths are the directories exposed through the C ABI and scanned by
		// the lifecycle phases.
		Paths PathsConfig `json:"paths" mapstructure:"paths"`
		// Scan configures module discovery.
		Scan ScanConfig `json:"scan" mapstructure:"scan"`
		// Log configures the logger.
		Log LogConfig `json:"log" mapstructure:"log"`
	}

	// PathsConfig lists the loader's well-known directories.
	PathsConfig struct {
		RootLoadPath  string `json:"root_load_path" mapstructure:"root_load_path"`
		FilesDir      string `json:"files_dir" mapstructure:"files_dir"`
		ExternalDir   string `json:"external_dir" mapstructure:"external_dir"`
		SourcePath    string `json:"source_path" mapstructure:"source_path"`
		Libil2cppPath string `json:"libil2cpp_path" mapstructure:"libil2cpp_path"`
		LibrariesDir  string `json:"libraries_dir" mapstructure:"libraries_dir"`
		ModsDir       string `json:"mods_dir" mapstructure:"mods_dir"`
	}

	// ScanConfig controls which files are treated as modules.
	ScanConfig struct {
		// Pattern is a glob matched against file names. Empty means the
		// platform default (*.dll, *.so or *.dylib).
		Pattern string `json:"pattern" mapstructure:"pattern"`
		// Recursive descends into subdirectories.
		Recursive bool `json:"recursive" mapstructure:"recursive"`
		// ExtraSystemLibraries extends the allow-list used by validation.
		ExtraSystemLibraries []string `json:"extra_system_libraries" mapstructure:"extra_system_libraries"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		Level  LogLevel `json:"level" mapstructure:"level"`
		Prefix string   `json:"prefix" mapstructure:"prefix"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			RootLoadPath: "${MODHOST_ROOT:-$HOME/.modhost}",
			FilesDir:     "files",
			LibrariesDir: "libs",
			ModsDir:      "mods",
		},
		Scan: ScanConfig{
			ExtraSystemLibraries: []string{},
		},
		Log: LogConfig{
			Level:  LogLevelInfo,
			Prefix: "modhost",
		},
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// Validate returns an error if the LogLevel is not one of the known levels.
// The zero value is accepted and means info.
func (l LogLevel) Validate() error {
	switch l {
	case "", LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return &InvalidLogLevelError{Value: l}
	}
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Validate checks constraints CUE does not express: glob syntax and
// non-blank paths.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Log.Level.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Scan.Pattern != "" {
		if _, err := filepath.Match(c.Scan.Pattern, ""); err != nil {
			errs = append(errs, fmt.Errorf("%w %q: %w", ErrInvalidPattern, c.Scan.Pattern, err))
		}
	}
	for _, f := range c.Paths.fields() {
		if *f.value == "" {
			continue
		}
		if err := types.FilesystemPath(*f.value).Validate(); err != nil {
			errs = append(errs, fmt.Errorf("paths.%s: %w", f.name, err))
		}
	}
	for i, lib := range c.Scan.ExtraSystemLibraries {
		if strings.TrimSpace(lib) == "" {
			errs = append(errs, fmt.Errorf("scan.extra_system_libraries[%d]: must not be blank", i))
		}
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

type pathField struct {
	name  string
	value *string
}

// fields lists the path settings in schema order.
func (p *PathsConfig) fields() []pathField {
	return []pathField{
		{"root_load_path", &p.RootLoadPath},
		{"files_dir", &p.FilesDir},
		{"external_dir", &p.ExternalDir},
		{"source_path", &p.SourcePath},
		{"libil2cpp_path", &p.Libil2cppPath},
		{"libraries_dir", &p.LibrariesDir},
		{"mods_dir", &p.ModsDir},
	}
}
