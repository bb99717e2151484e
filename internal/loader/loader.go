// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/modhost/modhost/internal/depsort"
	"github.com/modhost/modhost/internal/descriptor"
	"github.com/modhost/modhost/internal/discovery"
	"github.com/modhost/modhost/internal/logging"
	"github.com/modhost/modhost/internal/native"
	"github.com/modhost/modhost/internal/registry"
	"github.com/modhost/modhost/pkg/modabi"
	"github.com/modhost/modhost/pkg/platform"
)

// Entry point symbol names.
const (
	SymbolSetup    = "setup"
	SymbolLoad     = "load"
	SymbolLateLoad = "late_load"
)

type (
	// Loader drives module loading against one registry.
	Loader struct {
		native   native.Loader
		invoker  native.Invoker
		scanner  descriptor.Scanner
		registry *registry.Registry

		sorter    *depsort.Sorter
		logger    logging.Logger
		alloc     modabi.Allocator
		searchEnv string
		foldCase  bool
		now       func() time.Time
		dirs      Dirs
	}

	// Dirs are the directories and scan settings used by the phased
	// lifecycle methods.
	Dirs struct {
		LibrariesDir string
		ModsDir      string
		Pattern      string
		Recursive    bool
	}

	// Option customizes a Loader.
	Option func(*Loader)
)

// WithLogger sets the log sink.
func WithLogger(l logging.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithSorter replaces the dependency sorter.
func WithSorter(s *depsort.Sorter) Option {
	return func(ld *Loader) {
		if s != nil {
			ld.sorter = s
		}
	}
}

// WithAllocator sets where setup's ModInfo record is allocated.
func WithAllocator(a modabi.Allocator) Option {
	return func(ld *Loader) {
		if a != nil {
			ld.alloc = a
		}
	}
}

// WithSearchPathEnv names the environment variable that scanned directories
// are appended to. An empty name leaves the environment untouched.
func WithSearchPathEnv(env string) Option {
	return func(ld *Loader) { ld.searchEnv = env }
}

// WithFoldCase matches file patterns case-insensitively.
func WithFoldCase(fold bool) Option {
	return func(ld *Loader) { ld.foldCase = fold }
}

// WithClock overrides the clock used for load timestamps.
func WithClock(now func() time.Time) Option {
	return func(ld *Loader) {
		if now != nil {
			ld.now = now
		}
	}
}

// WithDirs sets the directories used by the phased lifecycle methods.
func WithDirs(d Dirs) Option {
	return func(ld *Loader) { ld.dirs = d }
}

// New creates a Loader. nl opens libraries, inv calls entry points, and
// scanner lists each binary's imports.
func New(reg *registry.Registry, nl native.Loader, inv native.Invoker, scanner descriptor.Scanner, opts ...Option) *Loader {
	family := platform.FamilyOf(runtime.GOOS)
	ld := &Loader{
		native:    nl,
		invoker:   inv,
		scanner:   scanner,
		registry:  reg,
		logger:    logging.Discard(),
		alloc:     modabi.NewGoAllocator(),
		searchEnv: family.SearchPathEnv(),
		foldCase:  family == platform.FamilyWindows,
		now:       time.Now,
		dirs:      Dirs{Pattern: family.DefaultPattern()},
	}
	for _, opt := range opts {
		opt(ld)
	}
	if ld.sorter == nil {
		ld.sorter = depsort.New(family, depsort.WithLogger(ld.logger))
	}
	return ld
}

// Registry returns the registry the loader writes to.
func (ld *Loader) Registry() *registry.Registry { return ld.registry }

// LoadAll loads every module in dir matching pattern in dependency order
// and runs setup on each. It returns the number opened successfully.
func (ld *Loader) LoadAll(ctx context.Context, dir, pattern string, recursive bool) int {
	return ld.loadDir(ctx, dir, pattern, recursive, registry.KindMod)
}

// LoadOne loads a single module and runs its setup. It reports whether the
// library was opened.
func (ld *Loader) LoadOne(ctx context.Context, path string) bool {
	d, err := descriptor.New(ctx, path, ld.scanner)
	if err != nil {
		ld.logger.Error("cannot describe module", "path", path, "error", err)
		return false
	}
	return ld.load(d, registry.KindMod).Succeeded()
}

// Describe discovers and scans the binaries in dir without loading them.
// Files that disappear between listing and scanning are logged and skipped.
func (ld *Loader) Describe(ctx context.Context, dir, pattern string, recursive bool) ([]*descriptor.Descriptor, error) {
	if pattern == "" {
		pattern = ld.dirs.Pattern
	}
	res, err := discovery.Discover(dir, discovery.Options{Pattern: pattern, Recursive: recursive, FoldCase: ld.foldCase})
	if err != nil {
		return nil, err
	}
	for _, diag := range res.Diagnostics {
		ld.logger.Warn(diag.Message, "code", diag.Code)
	}

	descs := make([]*descriptor.Descriptor, 0, len(res.Files))
	for _, path := range res.Files {
		d, err := descriptor.New(ctx, path, ld.scanner)
		if err != nil {
			ld.logger.Error("cannot describe module", "path", path, "error", err)
			continue
		}
		if !d.HasDependencies() {
			ld.logger.Warn("dependency scan failed, loading without ordering information", "module", d.Name(), "error", d.ScanError())
		}
		descs = append(descs, d)
	}
	return descs, nil
}

func (ld *Loader) loadDir(ctx context.Context, dir, pattern string, recursive bool, kind registry.Kind) int {
	descs, err := ld.Describe(ctx, dir, pattern, recursive)
	if err != nil {
		if errors.Is(err, discovery.ErrDirNotFound) {
			ld.logger.Warn("module directory does not exist", "dir", dir)
		} else {
			ld.logger.Error("cannot scan module directory", "dir", dir, "error", err)
		}
		return 0
	}
	if len(descs) == 0 {
		ld.logger.Info("no modules found", "dir", dir)
		return 0
	}

	if ld.searchEnv != "" && !native.AddLibrarySearchPath(ld.searchEnv, dir) {
		ld.logger.Warn("could not extend library search path", "env", ld.searchEnv, "dir", dir)
	}

	loaded := 0
	for _, d := range ld.sorter.Order(descs) {
		if ld.load(d, kind).Succeeded() {
			loaded++
		}
	}
	ld.logger.Info("modules loaded", "dir", dir, "loaded", loaded, "total", len(descs))
	return loaded
}

// load opens one descriptor and registers the outcome. Mods then run setup.
func (ld *Loader) load(d *descriptor.Descriptor, kind registry.Kind) *registry.LoadedModule {
	h, err := ld.native.Open(d.Path())
	if err != nil {
		m := registry.NewFailed(d, openMessage(err), ld.now())
		m.Kind = kind
		ld.registry.RegisterFailed(m)
		ld.logger.Error("failed to open module", "module", d.Name(), "instance", m.InstanceID, "error", m.Err)
		return m
	}

	m := registry.NewLoaded(d, h, ld.now())
	m.Kind = kind
	ld.registry.Register(m)
	ld.logger.Info("opened module", "module", d.Name(), "kind", kind, "instance", m.InstanceID)

	if kind == registry.KindMod {
		ld.setup(m)
	}
	return m
}

func openMessage(err error) string {
	var oe *native.OpenError
	if errors.As(err, &oe) && oe.Message != "" {
		return oe.Message
	}
	return err.Error()
}
