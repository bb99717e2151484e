// SPDX-License-Identifier: MPL-2.0

package host

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/modhost/modhost/internal/config"
	"github.com/modhost/modhost/internal/depsort"
	"github.com/modhost/modhost/internal/descriptor"
	"github.com/modhost/modhost/internal/loader"
	"github.com/modhost/modhost/internal/logging"
	"github.com/modhost/modhost/internal/native"
	"github.com/modhost/modhost/internal/registry"
	"github.com/modhost/modhost/pkg/platform"
)

type (
	// Runtime is the set of OS capabilities a loader needs.
	Runtime struct {
		Loader  native.Loader
		Invoker native.Invoker
		Scanner descriptor.Scanner
		Family  platform.Family
	}

	// Options customizes New. Zero values select production defaults.
	Options struct {
		// Runtime replaces the native runtime, for tests.
		Runtime *Runtime
		// Logger replaces the logger built from cfg.Log.
		Logger *log.Logger
		// LogOutput receives log lines when Logger is nil. Defaults to stderr.
		LogOutput io.Writer
		// ModloaderPath is reported to modules as the loader's own path.
		ModloaderPath string
		// LoaderOptions are appended after the options derived from cfg.
		LoaderOptions []loader.Option
	}

	// Host is a configured registry and loader pair.
	Host struct {
		Config   *config.Config
		Runtime  Runtime
		Logger   *log.Logger
		Registry *registry.Registry
		Sorter   *depsort.Sorter
		Loader   *loader.Loader
	}
)

// NativeRuntime selects the loader, invoker and dependency scanner for the
// running OS.
func NativeRuntime() (Runtime, error) {
	p, err := native.New(nil)
	if err != nil {
		return Runtime{}, err
	}
	return Runtime{
		Loader:  p.Loader,
		Invoker: native.NewInvoker(),
		Scanner: p.Scanner,
		Family:  p.Family,
	}, nil
}

// Paths maps resolved configuration onto the registry's static paths.
func Paths(cfg *config.Config, modloaderPath string) registry.Paths {
	return registry.Paths{
		ModloaderPath: modloaderPath,
		RootLoadPath:  cfg.Paths.RootLoadPath,
		FilesDir:      cfg.Paths.FilesDir,
		ExternalDir:   cfg.Paths.ExternalDir,
		ApplicationID: cfg.ApplicationID,
		SourcePath:    cfg.Paths.SourcePath,
		Libil2cppPath: cfg.Paths.Libil2cppPath,
	}
}

// NewLogger builds the logger described by cfg.Log.
func NewLogger(cfg *config.Config, w io.Writer) *log.Logger {
	return logging.New(w, cfg.Log.Level.String(), cfg.Log.Prefix)
}

// New wires a registry, sorter and loader for cfg, which should already be
// resolved. It fails only when no native runtime exists for this OS.
func New(cfg *config.Config, opts Options) (*Host, error) {
	var rt Runtime
	if opts.Runtime != nil {
		rt = *opts.Runtime
	} else {
		var err error
		if rt, err = NativeRuntime(); err != nil {
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(cfg, opts.LogOutput)
	}

	reg := registry.New(Paths(cfg, opts.ModloaderPath), registry.WithLogger(logger))
	sorter := depsort.New(rt.Family,
		depsort.WithLogger(logger),
		depsort.WithSystemLibraries(cfg.Scan.ExtraSystemLibraries...))

	dirs := loader.Dirs{
		LibrariesDir: cfg.Paths.LibrariesDir,
		ModsDir:      cfg.Paths.ModsDir,
		Pattern:      cfg.Scan.Pattern,
		Recursive:    cfg.Scan.Recursive,
	}
	if dirs.Pattern == "" {
		dirs.Pattern = rt.Family.DefaultPattern()
	}
	lopts := append([]loader.Option{
		loader.WithLogger(logger),
		loader.WithSorter(sorter),
		loader.WithDirs(dirs),
		loader.WithFoldCase(rt.Family == platform.FamilyWindows),
		loader.WithSearchPathEnv(rt.Family.SearchPathEnv()),
	}, opts.LoaderOptions...)

	return &Host{
		Config:   cfg,
		Runtime:  rt,
		Logger:   logger,
		Registry: reg,
		Sorter:   sorter,
		Loader:   loader.New(reg, rt.Loader, rt.Invoker, rt.Scanner, lopts...),
	}, nil
}

// Start runs every lifecycle phase in order: libraries, mods with setup,
// load, then late_load.
func (h *Host) Start(ctx context.Context) {
	h.Loader.OpenLibraries(ctx)
	h.Loader.OpenMods(ctx)
	h.Loader.LoadMods()
	h.Loader.LateLoadMods()
}
