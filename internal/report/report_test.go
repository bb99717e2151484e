// SPDX-License-Identifier: MPL-2.0

package report

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/modhost/modhost/internal/descriptor"
	"github.com/modhost/modhost/internal/registry"
	"github.com/modhost/modhost/internal/semver"
)

var epoch = time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC)

func sampleRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	reg := registry.New(registry.Paths{
		ApplicationID: "com.example.game",
		RootLoadPath:  "/data/game",
	})
	core := registry.NewLoaded(descriptor.Fake("/data/game/mods/libcore.so", []string{"libc.so.6"}, ""), 0x1000, epoch)
	v := semver.MustParse("1.4.2")
	core.ID = "core"
	core.Version = &v
	core.VersionLong = 1<<63 + 7
	reg.Register(core)

	lib := registry.NewLoaded(descriptor.Fake("/data/game/libs/libutil.so", nil, ""), 0x2000, epoch)
	lib.Kind = registry.KindLibrary
	reg.Register(lib)

	reg.RegisterFailed(registry.NewFailed(descriptor.Fake("/data/game/mods/broken.so", nil, "ldd: not found"),
		"undefined symbol: init_hooks", epoch))

	reg.SetPhase(registry.PhaseMods)
	return reg
}

func TestBuild(t *testing.T) {
	t.Parallel()

	r := Build(sampleRegistry(t), "linux/arm64", epoch)

	if r.FormatVersion != FormatVersion || r.Phase != registry.PhaseMods.String() {
		t.Errorf("header = %+v", r)
	}
	if r.Summary != (Summary{Loaded: 2, Failed: 1}) {
		t.Errorf("Summary = %+v", r.Summary)
	}
	if r.Paths.ApplicationID != "com.example.game" {
		t.Errorf("Paths = %+v", r.Paths)
	}
	if len(r.Modules) != 3 {
		t.Fatalf("len(Modules) = %d, want 3", len(r.Modules))
	}

	core, ok := r.Module("libcore")
	if !ok {
		t.Fatal("libcore missing from report")
	}
	if core.ID != "core" || core.Version != "1.4.2" || core.VersionLong != "9223372036854775815" {
		t.Errorf("core identity = %+v", core)
	}
	if !core.Loaded || core.Kind != registry.KindMod.String() || core.Instance == "" {
		t.Errorf("core = %+v", core)
	}

	broken, _ := r.Module("broken")
	if broken.Loaded || broken.Error != "undefined symbol: init_hooks" || broken.ScanError != "ldd: not found" {
		t.Errorf("broken = %+v", broken)
	}
	if broken.Dependencies == nil {
		t.Error("failed scan should still encode an empty dependency list")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	want := Build(sampleRegistry(t), "linux/arm64", epoch)

	var buf bytes.Buffer
	if err := Encode(&buf, want); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	text := buf.String()
	for _, s := range []string{"format_version = 1", "[[modules]]", "libutil", "library"} {
		if !strings.Contains(text, s) {
			t.Errorf("encoded report missing %q:\n%s", s, text)
		}
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !got.GeneratedAt.Equal(want.GeneratedAt) {
		t.Errorf("GeneratedAt = %v, want %v", got.GeneratedAt, want.GeneratedAt)
	}
	if len(got.Modules) != len(want.Modules) {
		t.Fatalf("decoded %d modules, want %d", len(got.Modules), len(want.Modules))
	}
	for i := range want.Modules {
		g, w := got.Modules[i], want.Modules[i]
		if g.Instance != w.Instance || g.Name != w.Name || g.Error != w.Error || g.VersionLong != w.VersionLong {
			t.Errorf("module %d = %+v, want %+v", i, g, w)
		}
		if !slices.Equal(g.Dependencies, w.Dependencies) {
			t.Errorf("module %d deps = %v, want %v", i, g.Dependencies, w.Dependencies)
		}
	}
}

func TestWriteReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.toml")
	want := Build(sampleRegistry(t), "windows/amd64", epoch)
	if err := WriteFile(path, want); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got.Platform != "windows/amd64" || got.Summary != want.Summary {
		t.Errorf("got %+v", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"syntax", "format_version = "},
		{"unknown key", "format_version = 1\nsurprise = true\n"},
		{"future version", "format_version = 99\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Decode(strings.NewReader(tt.input)); err == nil {
				t.Error("Decode() succeeded, want error")
			}
		})
	}
}
