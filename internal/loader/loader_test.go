// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"unsafe"

	"github.com/modhost/modhost/internal/depsort"
	"github.com/modhost/modhost/internal/logging"
	"github.com/modhost/modhost/internal/native"
	"github.com/modhost/modhost/internal/native/nativetest"
	"github.com/modhost/modhost/internal/registry"
	"github.com/modhost/modhost/internal/testutil"
	"github.com/modhost/modhost/pkg/modabi"
	"github.com/modhost/modhost/pkg/platform"
)

// mapScanner returns dependencies keyed by file base name.
type mapScanner map[string][]string

func (m mapScanner) Scan(_ context.Context, path string) ([]string, error) {
	deps := m[filepath.Base(path)]
	if deps == nil {
		deps = []string{}
	}
	return deps, nil
}

type fixture struct {
	dir    string
	fake   *nativetest.Loader
	reg    *registry.Registry
	loader *Loader
	logs   *bytes.Buffer
}

func newFixture(t *testing.T, deps mapScanner, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		dir:  t.TempDir(),
		fake: nativetest.NewLoader(),
		reg:  registry.New(registry.Paths{}),
		logs: &bytes.Buffer{},
	}
	base := []Option{
		WithSearchPathEnv(""),
		WithLogger(logging.New(f.logs, "debug", "")),
		WithSorter(depsort.New(platform.FamilyLinux)),
		WithFoldCase(false),
	}
	f.loader = New(f.reg, f.fake, f.fake, deps, append(base, opts...)...)
	return f
}

// addModule writes an empty file under dir and declares it to the fake
// loader under its canonical path.
func (f *fixture) addModule(t *testing.T, dir, name string, lib nativetest.Library) string {
	t.Helper()
	path := testutil.MustWriteFile(t, dir, name, []byte("\x7fELF"))
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatal(err)
	}
	f.fake.Add(canonical, lib)
	return canonical
}

func bases(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func TestLoadAll_DependencyOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mapScanner{"libb.so": {"liba.so"}, "libc.so": {"libb.so", "libm.so.6"}})
	for _, name := range []string{"libc.so", "liba.so", "libb.so"} {
		f.addModule(t, f.dir, name, nativetest.Library{})
	}

	if n := f.loader.LoadAll(context.Background(), f.dir, "*.so", false); n != 3 {
		t.Fatalf("LoadAll() = %d, want 3", n)
	}
	if got := bases(f.fake.Opened); !slices.Equal(got, []string{"liba.so", "libb.so", "libc.so"}) {
		t.Errorf("open order = %v", got)
	}
	if s := f.reg.Stats(); s.Loaded != 3 || s.Failed != 0 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestLoadAll_OpenFailureIsRecorded(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mapScanner{"libb.so": {"liba.so"}, "libc.so": {"libb.so"}})
	f.addModule(t, f.dir, "liba.so", nativetest.Library{})
	f.addModule(t, f.dir, "libb.so", nativetest.Library{OpenError: "libb.so: undefined symbol: il2cpp_init"})
	f.addModule(t, f.dir, "libc.so", nativetest.Library{})

	if n := f.loader.LoadAll(context.Background(), f.dir, "*.so", false); n != 2 {
		t.Fatalf("LoadAll() = %d, want 2", n)
	}
	all := f.reg.QueryAll()
	if len(all) != 3 {
		t.Fatalf("QueryAll() len = %d, want 3", len(all))
	}
	failed := all[1]
	if failed.Succeeded() || failed.Err != "libb.so: undefined symbol: il2cpp_init" {
		t.Errorf("failed entry = %+v", failed)
	}
	if !all[2].Succeeded() {
		t.Error("dependent of a failed module was not attempted")
	}
}

func TestLoadAll_SetupReportsIdentity(t *testing.T) {
	t.Parallel()

	var (
		prefilled string
		selfArg   uintptr
	)
	setup := func(args ...uintptr) {
		info := (*modabi.ModInfo)(unsafe.Pointer(args[0]))
		prefilled = info.IDString()
		selfArg = args[1]
		info.SetID("core")
		info.SetVersion("1.2.3")
		info.VersionLong = 10203
	}
	f := newFixture(t, mapScanner{})
	f.addModule(t, f.dir, "libcore.so", nativetest.Library{Symbols: map[string]nativetest.EntryPoint{SymbolSetup: setup}})

	f.loader.LoadAll(context.Background(), f.dir, "*.so", false)

	if prefilled != "libcore" {
		t.Errorf("setup saw id %q, want filename-derived libcore", prefilled)
	}
	m, ok := f.reg.Find(registry.Query{ID: "core", Version: "1.2.3", VersionLong: 10203}, registry.MatchStrict)
	if !ok {
		t.Fatalf("module not found by reported identity; registry: %+v", f.reg.QueryAll())
	}
	if m.Name() != "libcore" {
		t.Errorf("Name() = %q", m.Name())
	}
	if selfArg == 0 || native.Handle(selfArg) != m.Handle {
		t.Errorf("setup received handle %#x, want the module's own %#x", selfArg, uintptr(m.Handle))
	}
}

func TestLoadAll_InvalidReportedVersion(t *testing.T) {
	t.Parallel()

	setup := func(args ...uintptr) {
		info := (*modabi.ModInfo)(unsafe.Pointer(args[0]))
		info.SetID("odd")
		info.SetVersion("nightly")
	}
	f := newFixture(t, mapScanner{})
	f.addModule(t, f.dir, "libodd.so", nativetest.Library{Symbols: map[string]nativetest.EntryPoint{SymbolSetup: setup}})
	f.loader.LoadAll(context.Background(), f.dir, "*.so", false)

	m, ok := f.reg.Find(registry.Query{ID: "odd"}, registry.MatchIDOnly)
	if !ok || m.Version != nil {
		t.Errorf("Find() = %+v, %v; want id set and version absent", m, ok)
	}
	if !strings.Contains(f.logs.String(), "invalid version") {
		t.Errorf("expected invalid version warning, logs: %s", f.logs.String())
	}
}

func TestLifecycle_FaultsDoNotBlockSiblings(t *testing.T) {
	t.Parallel()

	var ran []string
	f := newFixture(t, mapScanner{"libb.so": {"liba.so"}})
	f.addModule(t, f.dir, "liba.so", nativetest.Library{Symbols: map[string]nativetest.EntryPoint{
		SymbolSetup: func(...uintptr) { panic("setup exploded") },
		SymbolLoad:  func(...uintptr) { panic("load exploded") },
	}})
	f.addModule(t, f.dir, "libb.so", nativetest.Library{Symbols: map[string]nativetest.EntryPoint{
		SymbolLoad:     func(...uintptr) { ran = append(ran, "b:load") },
		SymbolLateLoad: func(...uintptr) { ran = append(ran, "b:late_load") },
	}})

	if n := f.loader.LoadAll(context.Background(), f.dir, "*.so", false); n != 2 {
		t.Fatalf("LoadAll() = %d, want 2", n)
	}
	if n := f.loader.LoadMods(); n != 1 {
		t.Errorf("LoadMods() = %d, want 1", n)
	}
	if n := f.loader.LateLoadMods(); n != 1 {
		t.Errorf("LateLoadMods() = %d, want 1", n)
	}
	if !slices.Equal(ran, []string{"b:load", "b:late_load"}) {
		t.Errorf("entry points ran = %v", ran)
	}
	if s := f.reg.Stats(); s.Loaded != 2 {
		t.Errorf("faulting module was dropped: %+v", s)
	}
	if !strings.Contains(f.logs.String(), "setup exploded") {
		t.Errorf("fault was not logged: %s", f.logs.String())
	}
}

func TestLifecycle_Phases(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	libs := filepath.Join(root, "libs")
	mods := filepath.Join(root, "mods")

	setupCalls := 0
	f := newFixture(t, mapScanner{"libmod.so": {"libsupport.so"}},
		WithDirs(Dirs{LibrariesDir: libs, ModsDir: mods, Pattern: "*.so"}))
	f.addModule(t, libs, "libsupport.so", nativetest.Library{Symbols: map[string]nativetest.EntryPoint{
		SymbolSetup: func(...uintptr) { setupCalls++ },
		SymbolLoad:  func(...uintptr) { t.Error("load called on a support library") },
	}})
	f.addModule(t, mods, "libmod.so", nativetest.Library{Symbols: map[string]nativetest.EntryPoint{
		SymbolSetup: func(...uintptr) { setupCalls++ },
	}})

	ctx := context.Background()
	if f.reg.Phase() != registry.PhaseNone {
		t.Fatalf("initial phase = %v", f.reg.Phase())
	}

	if n := f.loader.OpenLibraries(ctx); n != 1 {
		t.Errorf("OpenLibraries() = %d", n)
	}
	if f.reg.Phase() != registry.PhaseLibraries || !f.reg.Flag(registry.FlagLibrariesOpened) {
		t.Errorf("after OpenLibraries: phase %v", f.reg.Phase())
	}
	if setupCalls != 0 {
		t.Error("setup ran on a support library")
	}

	if n := f.loader.OpenMods(ctx); n != 1 {
		t.Errorf("OpenMods() = %d", n)
	}
	if f.reg.Phase() != registry.PhaseMods || !f.reg.Flag(registry.FlagEarlyModsOpened) || setupCalls != 1 {
		t.Errorf("after OpenMods: phase %v, setup calls %d", f.reg.Phase(), setupCalls)
	}

	f.loader.LoadMods()
	f.loader.LateLoadMods()
	if f.reg.Phase() != registry.PhaseLateMods || !f.reg.Flag(registry.FlagLateModsOpened) {
		t.Errorf("after LateLoadMods: phase %v", f.reg.Phase())
	}

	f.loader.OpenLibraries(ctx)
	if f.reg.Phase() != registry.PhaseLateMods {
		t.Errorf("phase regressed to %v", f.reg.Phase())
	}
}

func TestLoadAll_MissingDirectory(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mapScanner{})
	if n := f.loader.LoadAll(context.Background(), filepath.Join(f.dir, "nope"), "*.so", false); n != 0 {
		t.Errorf("LoadAll() = %d, want 0", n)
	}
	if len(f.fake.Opened) != 0 {
		t.Errorf("opened %v", f.fake.Opened)
	}
}

func TestLoadOne(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mapScanner{})
	path := f.addModule(t, f.dir, "libsolo.so", nativetest.Library{})

	if f.loader.LoadOne(context.Background(), filepath.Join(f.dir, "ghost.so")) {
		t.Error("LoadOne() of a missing file = true")
	}
	if !f.loader.LoadOne(context.Background(), path) {
		t.Error("LoadOne() = false")
	}
	if len(f.reg.QueryAll()) != 1 {
		t.Errorf("registry = %+v", f.reg.QueryAll())
	}
}

func TestLoadAll_ExtendsSearchPath(t *testing.T) {
	const env = "MODHOST_TEST_LIBRARY_PATH"
	t.Setenv(env, "")

	f := newFixture(t, mapScanner{}, WithSearchPathEnv(env))
	f.addModule(t, f.dir, "liba.so", nativetest.Library{})
	f.loader.LoadAll(context.Background(), f.dir, "*.so", false)

	if got := os.Getenv(env); !slices.Contains(filepath.SplitList(got), f.dir) {
		t.Errorf("%s = %q, want it to contain %q", env, got, f.dir)
	}
}
