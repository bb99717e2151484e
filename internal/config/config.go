// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/modhost/modhost/internal/cueutil"
	"github.com/modhost/modhost/internal/issue"
	"github.com/modhost/modhost/pkg/platform"
)

const (
	// AppName is the application name.
	AppName = "modhost"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides (MODHOST_SCAN_RECURSIVE=true).
	EnvPrefix = "MODHOST"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the modhost configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// FilePath returns the default config file location.
func FilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// Load reads, validates and resolves configuration. It also returns the
// file that was used, or "" when only defaults and environment applied.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	return loadWithOptions(ctx, opts)
}

// loadWithOptions performs option-driven config loading without touching
// package-level state beyond the test override.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := opts.Validate(); err != nil {
		return nil, "", err
	}

	v := newViper()
	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		path := string(opts.ConfigFilePath)
		if !fileExists(path) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithIssue(issue.ConfigLoadFailedId).
				WithResource(path).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'modhost config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", path)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", invalidFileError(path, err)
		}
		resolvedPath = path
	} else {
		cfgDir := string(opts.ConfigDirPath)
		if cfgDir == "" {
			dir, err := ConfigDir()
			if err != nil {
				return nil, "", err
			}
			cfgDir = dir
		}
		for _, candidate := range []string{
			filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
			ConfigFileName + "." + ConfigFileExt,
		} {
			if !fileExists(candidate) {
				continue
			}
			if err := loadCUEIntoViper(v, candidate); err != nil {
				return nil, "", invalidFileError(candidate, err)
			}
			resolvedPath = candidate
			break
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithResource(resolvedPath).
			WithSuggestion("Run 'modhost config dump' to see the effective values").
			Wrap(err).
			BuildError()
	}

	resolved, err := cfg.Resolve(opts.Env)
	if err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("expand configuration paths").
			WithResource(resolvedPath).
			WithSuggestion("Check ${VAR} references in the paths section").
			Wrap(err).
			BuildError()
	}
	return resolved, resolvedPath, nil
}

// newViper builds a Viper instance seeded with defaults and bound to
// MODHOST_* environment variables.
func newViper() *viper.Viper {
	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("application_id", defaults.ApplicationID)
	v.SetDefault("paths.root_load_path", defaults.Paths.RootLoadPath)
	v.SetDefault("paths.files_dir", defaults.Paths.FilesDir)
	v.SetDefault("paths.external_dir", defaults.Paths.ExternalDir)
	v.SetDefault("paths.source_path", defaults.Paths.SourcePath)
	v.SetDefault("paths.libil2cpp_path", defaults.Paths.Libil2cppPath)
	v.SetDefault("paths.libraries_dir", defaults.Paths.LibrariesDir)
	v.SetDefault("paths.mods_dir", defaults.Paths.ModsDir)
	v.SetDefault("scan.pattern", defaults.Scan.Pattern)
	v.SetDefault("scan.recursive", defaults.Scan.Recursive)
	v.SetDefault("scan.extra_system_libraries", defaults.Scan.ExtraSystemLibraries)
	v.SetDefault("log.level", string(defaults.Log.Level))
	v.SetDefault("log.prefix", defaults.Log.Prefix)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func invalidFileError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithIssue(issue.ConfigLoadFailedId).
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("See 'modhost config --help' for configuration options").
		Wrap(err).
		BuildError()
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into
// Viper. Config decodes to a map because Viper merges maps, and fields are
// not required to be concrete since every one is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	res, err := cueutil.ParseAndDecode[map[string]any]([]byte(configSchema), data, "#Config",
		cueutil.WithFilename(path), cueutil.WithConcrete(false))
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*res.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default config file if none exists and
// returns its path.
func CreateDefaultConfig() (string, error) {
	cfgPath, err := FilePath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if fileExists(cfgPath) {
		return cfgPath, nil
	}
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, nil
}

// GenerateCUE renders cfg as a config.cue document.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// modhost configuration\n")
	sb.WriteString("// Paths may use $VAR and ${VAR:-default}; relative directories are\n")
	sb.WriteString("// resolved against paths.root_load_path.\n\n")

	fmt.Fprintf(&sb, "application_id: %q\n", cfg.ApplicationID)

	sb.WriteString("\npaths: {\n")
	for _, f := range cfg.Paths.fields() {
		if *f.value != "" {
			fmt.Fprintf(&sb, "\t%s: %q\n", f.name, *f.value)
		}
	}
	sb.WriteString("}\n")

	sb.WriteString("\nscan: {\n")
	if cfg.Scan.Pattern != "" {
		fmt.Fprintf(&sb, "\tpattern: %q\n", cfg.Scan.Pattern)
	}
	fmt.Fprintf(&sb, "\trecursive: %v\n", cfg.Scan.Recursive)
	if len(cfg.Scan.ExtraSystemLibraries) > 0 {
		sb.WriteString("\textra_system_libraries: [\n")
		for _, lib := range cfg.Scan.ExtraSystemLibraries {
			fmt.Fprintf(&sb, "\t\t%q,\n", lib)
		}
		sb.WriteString("\t]\n")
	}
	sb.WriteString("}\n")

	sb.WriteString("\nlog: {\n")
	if cfg.Log.Level != "" {
		fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	}
	fmt.Fprintf(&sb, "\tprefix: %q\n", cfg.Log.Prefix)
	sb.WriteString("}\n")

	return sb.String()
}
