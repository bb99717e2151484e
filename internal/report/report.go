// SPDX-License-Identifier: MPL-2.0

package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/modhost/modhost/internal/registry"
)

// FormatVersion is bumped when a field changes meaning.
const FormatVersion = 1

type (
	// Report is the serialized form of a registry.
	Report struct {
		FormatVersion int       `toml:"format_version"`
		GeneratedAt   time.Time `toml:"generated_at"`
		Platform      string    `toml:"platform"`
		Phase         string    `toml:"phase"`
		Failed        bool      `toml:"failed"`
		Paths         Paths     `toml:"paths"`
		Summary       Summary   `toml:"summary"`
		Modules       []Module  `toml:"modules"`
	}

	// Paths mirrors registry.Paths.
	Paths struct {
		ApplicationID string `toml:"application_id,omitempty"`
		ModloaderPath string `toml:"modloader_path,omitempty"`
		RootLoadPath  string `toml:"root_load_path,omitempty"`
		FilesDir      string `toml:"files_dir,omitempty"`
		ExternalDir   string `toml:"external_dir,omitempty"`
		SourcePath    string `toml:"source_path,omitempty"`
		Libil2cppPath string `toml:"libil2cpp_path,omitempty"`
	}

	// Summary counts load outcomes.
	Summary struct {
		Loaded int `toml:"loaded"`
		Failed int `toml:"failed"`
	}

	// Module is one registry record.
	Module struct {
		Instance string    `toml:"instance"`
		Name     string    `toml:"name"`
		Kind     string    `toml:"kind"`
		Path     string    `toml:"path"`
		Loaded   bool      `toml:"loaded"`
		Error    string    `toml:"error,omitempty"`
		LoadedAt time.Time `toml:"loaded_at"`
		ID       string    `toml:"id"`
		Version  string    `toml:"version,omitempty"`
		// VersionLong is decimal text; TOML integers are signed.
		VersionLong  string   `toml:"version_long,omitempty"`
		Dependencies []string `toml:"dependencies"`
		ScanError    string   `toml:"scan_error,omitempty"`
	}
)

// Build snapshots reg. The platform label is free text, usually GOOS/GOARCH.
func Build(reg *registry.Registry, platform string, now time.Time) *Report {
	p := reg.Paths()
	stats := reg.Stats()
	r := &Report{
		FormatVersion: FormatVersion,
		GeneratedAt:   now.UTC().Truncate(time.Millisecond),
		Platform:      platform,
		Phase:         reg.Phase().String(),
		Failed:        reg.Failed(),
		Paths: Paths{
			ApplicationID: p.ApplicationID,
			ModloaderPath: p.ModloaderPath,
			RootLoadPath:  p.RootLoadPath,
			FilesDir:      p.FilesDir,
			ExternalDir:   p.ExternalDir,
			SourcePath:    p.SourcePath,
			Libil2cppPath: p.Libil2cppPath,
		},
		Summary: Summary{Loaded: stats.Loaded, Failed: stats.Failed},
	}

	for _, m := range reg.Records() {
		mod := Module{
			Instance:     m.InstanceID.String(),
			Name:         m.Name(),
			Kind:         m.Kind.String(),
			Path:         m.Path(),
			Loaded:       m.Succeeded(),
			Error:        m.Err,
			LoadedAt:     m.LoadedAt.UTC().Truncate(time.Millisecond),
			ID:           m.ID,
			Version:      m.VersionString(),
			Dependencies: m.Descriptor.Dependencies(),
			ScanError:    m.Descriptor.ScanError(),
		}
		if m.VersionLong != 0 {
			mod.VersionLong = strconv.FormatUint(m.VersionLong, 10)
		}
		if mod.Dependencies == nil {
			mod.Dependencies = []string{}
		}
		r.Modules = append(r.Modules, mod)
	}
	return r
}

// Encode writes r as TOML.
func Encode(w io.Writer, r *Report) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// WriteFile encodes r to path, replacing any existing file.
func WriteFile(path string, r *Report) error {
	var buf bytes.Buffer
	if err := Encode(&buf, r); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// Decode parses a report. Unknown keys are rejected.
func Decode(rd io.Reader) (*Report, error) {
	var r Report
	dec := toml.NewDecoder(rd)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("parsing report TOML: %w", err)
	}
	if r.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported report format_version %d (want %d)", r.FormatVersion, FormatVersion)
	}
	return &r, nil
}

// ReadFile reads a report written by WriteFile.
func ReadFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Module returns the first record with the given name.
func (r *Report) Module(name string) (Module, bool) {
	for _, m := range r.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return Module{}, false
}
