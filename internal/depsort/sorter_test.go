// SPDX-License-Identifier: MPL-2.0

package depsort

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/modhost/modhost/internal/descriptor"
	"github.com/modhost/modhost/internal/logging"
	"github.com/modhost/modhost/internal/testutil"
	"github.com/modhost/modhost/pkg/platform"
)

func fake(name string, deps ...string) *descriptor.Descriptor {
	if deps == nil {
		deps = []string{}
	}
	return descriptor.Fake("/mods/"+name, deps, "")
}

func names(descs []*descriptor.Descriptor) []string {
	out := make([]string, len(descs))
	for i, d := range descs {
		out[i] = d.Name()
	}
	return out
}

func TestOrder_ChainRegisteredOutOfOrder(t *testing.T) {
	t.Parallel()

	a := fake("A.so")
	b := fake("B.so", "A.so")
	c := fake("C.so", "B.so")

	got := names(New(platform.FamilyLinux).Order([]*descriptor.Descriptor{c, a, b}))
	if !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Errorf("Order() = %v, want [A B C]", got)
	}
}

func TestOrder_CycleKeepsInputOrderAndWarns(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := New(platform.FamilyLinux, WithLogger(logging.New(&buf, "warn", "")))
	x := fake("X.so", "Y.so")
	y := fake("Y.so", "X.so")

	got := names(s.Order([]*descriptor.Descriptor{x, y}))
	if !slices.Equal(got, []string{"X", "Y"}) {
		t.Errorf("Order() = %v, want [X Y]", got)
	}
	if !strings.Contains(buf.String(), "dependency cycle detected") {
		t.Errorf("expected cycle warning, log was %q", buf.String())
	}
}

func TestOrder_CycleWithResolvablePrefix(t *testing.T) {
	t.Parallel()

	// base has no in-set deps; X and Y form a cycle and both import base.
	// top depends on nothing and nothing depends on it.
	base := fake("base.dll")
	x := fake("X.dll", "Y.dll", "base.dll")
	y := fake("Y.dll", "X.dll")
	top := fake("top.dll")

	plan := New(platform.FamilyWindows).Resolve([]*descriptor.Descriptor{y, base, top, x})
	if !plan.Cyclic() {
		t.Fatal("Cyclic() = false, want true")
	}
	// Kahn emits top only since base still has X as an unprocessed
	// dependent; the remainder then follows in input order.
	if got := names(plan.Order); !slices.Equal(got, []string{"top", "Y", "base", "X"}) {
		t.Errorf("Order = %v, want [top Y base X]", got)
	}
	if got := names(plan.Unresolved); !slices.Equal(got, []string{"Y", "base", "X"}) {
		t.Errorf("Unresolved = %v", got)
	}
}

func TestOrder_MatchingIgnoresCasePathAndExtension(t *testing.T) {
	t.Parallel()

	core := descriptor.Fake(`C:\game\mods\Core.dll`, []string{}, "")
	mod := descriptor.Fake(`C:\game\mods\Mod.dll`, []string{`C:\Windows\System32\KERNEL32.dll`, "CORE.DLL"}, "")

	got := names(New(platform.FamilyWindows).Order([]*descriptor.Descriptor{mod, core}))
	if !slices.Equal(got, []string{"Core", "Mod"}) {
		t.Errorf("Order() = %v, want [Core Mod]", got)
	}
}

func TestOrder_EdgeCases(t *testing.T) {
	t.Parallel()

	s := New(platform.FamilyDarwin)

	if got := s.Order(nil); got == nil || len(got) != 0 {
		t.Errorf("Order(nil) = %#v, want empty", got)
	}

	self := fake("self.dylib", "self.dylib")
	if got := names(s.Order([]*descriptor.Descriptor{self})); !slices.Equal(got, []string{"self"}) {
		t.Errorf("self-dependency: Order() = %v", got)
	}

	failed := descriptor.Fake("/mods/broken.dylib", nil, "otool failed")
	leaf := fake("leaf.dylib")
	if got := names(s.Order([]*descriptor.Descriptor{failed, leaf})); len(got) != 2 {
		t.Errorf("scan failure dropped a descriptor: %v", got)
	}

	dup := fake("dup.dylib")
	got := s.Order([]*descriptor.Descriptor{dup, dup})
	if len(got) != 2 {
		t.Errorf("Order() with a repeated descriptor returned %d entries, want 2", len(got))
	}
}

// TestOrder_PermutationProperty checks, on random acyclic sets, that the
// output is a permutation of the input with every in-set dependency first.
func TestOrder_PermutationProperty(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	s := New(platform.FamilyLinux)

	for round := range 50 {
		n := 1 + rng.IntN(12)
		descs := make([]*descriptor.Descriptor, n)
		for i := range n {
			var deps []string
			// Only lower-numbered modules may be imported, so the set is acyclic.
			for j := range i {
				if rng.IntN(3) == 0 {
					deps = append(deps, fmt.Sprintf("lib%d.so", j))
				}
			}
			if rng.IntN(4) == 0 {
				deps = append(deps, "libc.so.6")
			}
			descs[i] = fake(fmt.Sprintf("lib%d.so", i), deps...)
		}
		rng.Shuffle(n, func(i, j int) { descs[i], descs[j] = descs[j], descs[i] })

		out := s.Order(descs)
		if len(out) != n {
			t.Fatalf("round %d: len(Order) = %d, want %d", round, len(out), n)
		}
		pos := make(map[string]int, n)
		for i, d := range out {
			pos[d.Name()] = i
		}
		if len(pos) != n {
			t.Fatalf("round %d: output is not a permutation: %v", round, names(out))
		}
		for _, d := range out {
			for _, dep := range d.Dependencies() {
				dn := strings.TrimSuffix(dep, ".so")
				if p, ok := pos[dn]; ok && p > pos[d.Name()] {
					t.Errorf("round %d: %s loaded after its dependent %s: %v", round, dn, d.Name(), names(out))
				}
			}
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		family      platform.Family
		opts        []Option
		descs       []*descriptor.Descriptor
		wantOK      bool
		wantMissing []string
		wantCycle   []string
	}{
		{
			name:   "satisfied in set and by system",
			family: platform.FamilyLinux,
			descs: []*descriptor.Descriptor{
				fake("libcore.so", "libc.so.6", "libm.so.6"),
				fake("libmod.so", "libcore.so", "libstdc++.so.6"),
			},
			wantOK: true,
		},
		{
			name:        "missing dependency",
			family:      platform.FamilyWindows,
			descs:       []*descriptor.Descriptor{fake("Mod.dll", "KERNEL32.dll", "Helper.dll")},
			wantMissing: []string{"Helper.dll"},
		},
		{
			name:      "cycle reported once with its members",
			family:    platform.FamilyLinux,
			descs:     []*descriptor.Descriptor{fake("X.so", "Y.so"), fake("Y.so", "X.so"), fake("Z.so", "Z.so")},
			wantCycle: []string{"X", "Y"},
		},
		{
			name:   "darwin system frameworks",
			family: platform.FamilyDarwin,
			descs: []*descriptor.Descriptor{
				fake("libmod.dylib", "libSystem.B.dylib", "CoreFoundation", "libc++.1.dylib"),
			},
			wantOK: true,
		},
		{
			name:   "extra system libraries",
			family: platform.FamilyLinux,
			opts:   []Option{WithSystemLibraries("  LIBVULKAN ")},
			descs:  []*descriptor.Descriptor{fake("librender.so", "libvulkan.so.1")},
			wantOK: true,
		},
		{
			name:   "failed scan contributes nothing",
			family: platform.FamilyLinux,
			descs:  []*descriptor.Descriptor{descriptor.Fake("/mods/broken.so", nil, "ldd failed")},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ok, errs := New(tt.family, tt.opts...).Validate(tt.descs)
			if ok != tt.wantOK {
				t.Errorf("Validate() ok = %v, want %v (errs %v)", ok, tt.wantOK, errs)
			}

			var (
				missing []string
				cycle   []string
			)
			cycles := 0
			for _, err := range errs {
				var me *MissingDependencyError
				var ce *CircularDependencyError
				switch {
				case errors.As(err, &me):
					if !errors.Is(err, ErrMissingDependency) {
						t.Errorf("%v does not wrap ErrMissingDependency", err)
					}
					missing = append(missing, me.Dependency)
				case errors.As(err, &ce):
					if !errors.Is(err, ErrCircularDependency) {
						t.Errorf("%v does not wrap ErrCircularDependency", err)
					}
					cycle = ce.Modules
					cycles++
				default:
					t.Errorf("unexpected error %v", err)
				}
			}
			if !slices.Equal(missing, tt.wantMissing) {
				t.Errorf("missing = %v, want %v", missing, tt.wantMissing)
			}
			if tt.wantCycle != nil && cycles != 1 {
				t.Errorf("circular dependency reported %d times, want 1", cycles)
			}
			if !slices.Equal(cycle, tt.wantCycle) {
				t.Errorf("cycle members = %v, want %v", cycle, tt.wantCycle)
			}
		})
	}
}

func TestSystemLibraries(t *testing.T) {
	t.Parallel()

	if !slices.Contains(SystemLibraries(platform.FamilyWindows), "kernel32") {
		t.Error("windows list lacks kernel32")
	}
	unknown := SystemLibraries(platform.FamilyUnknown)
	for _, want := range []string{"kernel32", "libc.", "libsystem"} {
		if !slices.Contains(unknown, want) {
			t.Errorf("unknown family list lacks %q", want)
		}
	}
	lst := SystemLibraries(platform.FamilyLinux)
	lst[0] = "mutated"
	if SystemLibraries(platform.FamilyLinux)[0] == "mutated" {
		t.Error("SystemLibraries exposed internal storage")
	}
}

type depsByBase map[string][]string

func (d depsByBase) Scan(_ context.Context, path string) ([]string, error) {
	if deps, ok := d[filepath.Base(path)]; ok {
		return deps, nil
	}
	return []string{}, nil
}

func TestOrder_SonameLinkSatisfiesImporter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := testutil.MustWriteFile(t, dir, "libbase.so.1.2.3", []byte("\x7fELF"))
	link := filepath.Join(dir, "libbase.so")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	app := testutil.MustWriteFile(t, dir, "libapp.so", []byte("\x7fELF"))

	scanner := depsByBase{"libapp.so": {"libbase.so", "libc.so.6"}}
	var descs []*descriptor.Descriptor
	for _, p := range []string{app, link} {
		d, err := descriptor.New(context.Background(), p, scanner)
		if err != nil {
			t.Fatalf("descriptor.New(%s): %v", p, err)
		}
		descs = append(descs, d)
	}

	s := New(platform.FamilyLinux)
	if got := names(s.Order(descs)); !slices.Equal(got, []string{"libbase", "libapp"}) {
		t.Errorf("Order() = %v, want [libbase libapp]", got)
	}
	if ok, errs := s.Validate(descs); !ok {
		t.Errorf("Validate() = %v, want no findings", errs)
	}
}
