// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/modhost/modhost/internal/issue"
	"github.com/modhost/modhost/pkg/types"
)

func testEnv(vars map[string]string) func(string) string {
	return func(name string) string { return vars[name] }
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Log.Level != LogLevelInfo {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Paths.ModsDir != "mods" || cfg.Paths.LibrariesDir != "libs" {
		t.Errorf("unexpected default dirs: %+v", cfg.Paths)
	}
	if cfg.Scan.ExtraSystemLibraries == nil {
		t.Error("ExtraSystemLibraries should be an empty slice, not nil")
	}
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, path, err := Load(context.Background(), LoadOptions{
		ConfigDirPath: types.FilesystemPath(dir),
		Env:           testEnv(map[string]string{"MODHOST_ROOT": "/opt/game"}),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty", path)
	}
	root := filepath.Clean("/opt/game")
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if cfg.Paths.RootLoadPath != root {
		t.Errorf("RootLoadPath = %q, want %q", cfg.Paths.RootLoadPath, root)
	}
	if want := filepath.Join(root, "mods"); cfg.Paths.ModsDir != want {
		t.Errorf("ModsDir = %q, want %q", cfg.Paths.ModsDir, want)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
application_id: "com.example.game"
paths: {
	root_load_path: "/srv/game"
	mods_dir: "plugins"
	libil2cpp_path: "/srv/game/libil2cpp.so"
}
scan: {
	pattern: "*.so"
	recursive: true
	extra_system_libraries: ["libvulkan"]
}
log: level: "debug"
`)

	cfg, resolved, err := Load(context.Background(), LoadOptions{
		ConfigFilePath: types.FilesystemPath(path),
		Env:            testEnv(nil),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.ApplicationID != "com.example.game" {
		t.Errorf("ApplicationID = %q", cfg.ApplicationID)
	}
	if !cfg.Scan.Recursive || cfg.Scan.Pattern != "*.so" {
		t.Errorf("Scan = %+v", cfg.Scan)
	}
	if !slices.Equal(cfg.Scan.ExtraSystemLibraries, []string{"libvulkan"}) {
		t.Errorf("ExtraSystemLibraries = %v", cfg.Scan.ExtraSystemLibraries)
	}
	if cfg.Log.Level != LogLevelDebug {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Log.Prefix != "modhost" {
		t.Errorf("Log.Prefix = %q, want default to survive a partial file", cfg.Log.Prefix)
	}
	root, _ := filepath.Abs("/srv/game")
	if want := filepath.Join(root, "plugins"); cfg.Paths.ModsDir != want {
		t.Errorf("ModsDir = %q, want %q", cfg.Paths.ModsDir, want)
	}
	if want := filepath.Join(root, "libs"); cfg.Paths.LibrariesDir != want {
		t.Errorf("LibrariesDir = %q, want %q", cfg.Paths.LibrariesDir, want)
	}
}

func TestLoadFromConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `application_id: "from-dir"`)

	cfg, resolved, err := Load(context.Background(), LoadOptions{
		ConfigDirPath: types.FilesystemPath(dir),
		Env:           testEnv(map[string]string{"HOME": "/home/u"}),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if resolved != path || cfg.ApplicationID != "from-dir" {
		t.Errorf("got (%q, %q)", resolved, cfg.ApplicationID)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		missing bool
		wantIn  string
	}{
		{name: "missing file", missing: true, wantIn: "config file not found"},
		{name: "syntax error", content: "paths: {", wantIn: "load configuration"},
		{name: "unknown field", content: `bogus: 1`, wantIn: "load configuration"},
		{name: "bad level", content: `log: level: "loud"`, wantIn: "load configuration"},
		{name: "empty pattern", content: `scan: pattern: ""`, wantIn: "load configuration"},
		{name: "bad glob", content: `scan: pattern: "[.so"`, wantIn: "invalid scan pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, "config.cue")
			if !tt.missing {
				path = writeConfig(t, dir, tt.content)
			}
			_, _, err := Load(context.Background(), LoadOptions{ConfigFilePath: types.FilesystemPath(path)})
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error %T is not actionable", err)
			}
			if !ae.HasSuggestions() {
				t.Error("expected suggestions on load error")
			}
			if msg := ae.Format(true); !strings.Contains(msg, tt.wantIn) {
				t.Errorf("error %q does not contain %q", msg, tt.wantIn)
			}
		})
	}
}

func TestLoadCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Load() error = %v, want context.Canceled", err)
	}
}

//nolint:paralleltest // mutates the process environment
func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MODHOST_SCAN_RECURSIVE", "true")
	t.Setenv("MODHOST_LOG_LEVEL", "warn")

	cfg, _, err := Load(context.Background(), LoadOptions{
		ConfigDirPath: types.FilesystemPath(t.TempDir()),
		Env:           testEnv(map[string]string{"MODHOST_ROOT": "/r"}),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Scan.Recursive {
		t.Error("MODHOST_SCAN_RECURSIVE not applied")
	}
	if cfg.Log.Level != LogLevelWarn {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoadOptionsValidate(t *testing.T) {
	t.Parallel()

	if err := (LoadOptions{}).Validate(); err != nil {
		t.Errorf("zero options: %v", err)
	}
	err := LoadOptions{ConfigFilePath: "   ", ConfigDirPath: "\t"}.Validate()
	var le *InvalidLoadOptionsError
	if !errors.As(err, &le) || len(le.FieldErrors) != 2 {
		t.Fatalf("Validate() = %v, want two field errors", err)
	}
	if !errors.Is(err, ErrInvalidLoadOptions) {
		t.Error("error does not wrap ErrInvalidLoadOptions")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"defaults", func(*Config) {}, nil},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, ErrInvalidLogLevel},
		{"bad glob", func(c *Config) { c.Scan.Pattern = "[" }, ErrInvalidPattern},
		{"blank path", func(c *Config) { c.Paths.ModsDir = "  " }, ErrInvalidConfig},
		{"blank extra lib", func(c *Config) { c.Scan.ExtraSystemLibraries = []string{""} }, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Paths.ExternalDir = "$EXT/data"
	cfg.Paths.SourcePath = "/abs/source.apk"
	cfg.Scan.ExtraSystemLibraries = []string{"libgl"}

	got, err := cfg.Resolve(testEnv(map[string]string{"HOME": "/home/p", "EXT": "/sdcard"}))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	root, _ := filepath.Abs(filepath.Join("/home/p", ".modhost"))
	checks := map[string][2]string{
		"root":     {got.Paths.RootLoadPath, root},
		"files":    {got.Paths.FilesDir, filepath.Join(root, "files")},
		"external": {got.Paths.ExternalDir, filepath.Clean("/sdcard/data")},
		"source":   {got.Paths.SourcePath, filepath.Clean("/abs/source.apk")},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", name, c[0], c[1])
		}
	}
	if got.Paths.Libil2cppPath != "" {
		t.Errorf("empty path should stay empty, got %q", got.Paths.Libil2cppPath)
	}

	got.Scan.ExtraSystemLibraries[0] = "mutated"
	if cfg.Scan.ExtraSystemLibraries[0] != "libgl" {
		t.Error("Resolve shares the extra library slice with its receiver")
	}
	if cfg.Paths.FilesDir != "files" {
		t.Error("Resolve modified its receiver")
	}
}

func TestResolveBadExpansion(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Paths.ModsDir = "${UNSET:?must be set}"
	if _, err := cfg.Resolve(testEnv(nil)); err == nil {
		t.Fatal("Resolve() succeeded, want expansion error")
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	t.Parallel()

	want := DefaultConfig()
	want.ApplicationID = "com.example"
	want.Scan.Pattern = "*.so"
	want.Scan.Recursive = true
	want.Scan.ExtraSystemLibraries = []string{"libvulkan", "libEGL"}
	want.Paths.RootLoadPath = "/data/app"

	dir := t.TempDir()
	path := writeConfig(t, dir, GenerateCUE(want))

	got, _, err := Load(context.Background(), LoadOptions{ConfigFilePath: types.FilesystemPath(path), Env: testEnv(nil)})
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if got.ApplicationID != want.ApplicationID || got.Scan.Pattern != want.Scan.Pattern || !got.Scan.Recursive {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !slices.Equal(got.Scan.ExtraSystemLibraries, want.Scan.ExtraSystemLibraries) {
		t.Errorf("ExtraSystemLibraries = %v", got.Scan.ExtraSystemLibraries)
	}
}

//nolint:paralleltest // uses the package-level config dir override
func TestCreateDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	path, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %q", path)
	}
	if err := os.WriteFile(path, []byte(`application_id: "kept"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateDefaultConfig(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `application_id: "kept"` {
		t.Error("CreateDefaultConfig overwrote an existing file")
	}
}
