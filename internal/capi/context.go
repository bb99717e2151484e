// SPDX-License-Identifier: MPL-2.0

package capi

import (
	"context"
	"io"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/modhost/modhost/internal/config"
	"github.com/modhost/modhost/internal/host"
	"github.com/modhost/modhost/internal/native"
	"github.com/modhost/modhost/internal/registry"
	"github.com/modhost/modhost/pkg/modabi"
	"github.com/modhost/modhost/pkg/platform"
)

// Path fields readable through String.
const (
	FieldModloaderPath Field = iota
	FieldRootLoadPath
	FieldFilesDir
	FieldExternalDir
	FieldApplicationID
	FieldSourcePath
	FieldLibil2cppPath
)

type (
	// Field names one of the registry's static paths.
	Field int

	// Context is the state shared by all exported functions.
	Context struct {
		host     *host.Host
		registry *registry.Registry
		alloc    modabi.Allocator
		logger   *log.Logger
		family   platform.Family

		mu      sync.Mutex
		strings map[string]*byte
	}

	// AttachOptions customizes Attach.
	AttachOptions struct {
		// ModloaderPath is the path of the loader library itself.
		ModloaderPath string
		// Allocator provides memory handed to C. Required.
		Allocator modabi.Allocator
		// LoadOptions selects the configuration source.
		LoadOptions config.LoadOptions
		// Host overrides the native runtime and loader options, for tests.
		Host host.Options
		// LogOutput receives log lines. Defaults to stderr.
		LogOutput io.Writer
	}
)

// Attach loads configuration and builds the loader. It never fails: a bad
// configuration falls back to defaults, and a platform without a native
// backend yields a Context whose registry reports Failed.
func Attach(ctx context.Context, opts AttachOptions) *Context {
	cfg, _, err := config.Load(ctx, opts.LoadOptions)
	cfgErr := err
	if err != nil {
		if cfg, err = config.DefaultConfig().Resolve(opts.LoadOptions.Env); err != nil {
			cfg = config.DefaultConfig()
		}
	}

	hopts := opts.Host
	hopts.ModloaderPath = opts.ModloaderPath
	if hopts.Logger == nil {
		hopts.Logger = host.NewLogger(cfg, opts.LogOutput)
	}
	logger := hopts.Logger
	if cfgErr != nil {
		logger.Error("configuration not loaded, using defaults", "error", cfgErr)
	}

	c := &Context{
		alloc:   opts.Allocator,
		logger:  logger,
		family:  platform.FamilyOf(runtime.GOOS),
		strings: make(map[string]*byte),
	}

	h, err := host.New(cfg, hopts)
	if err != nil {
		logger.Error("native loader unavailable", "error", err)
		c.registry = registry.New(host.Paths(cfg, opts.ModloaderPath), registry.WithLogger(logger))
		c.registry.SetFailed(true)
		return c
	}
	c.host = h
	c.registry = h.Registry
	c.family = h.Runtime.Family
	logger.Info("module loader attached", "root", cfg.Paths.RootLoadPath, "platform", c.family)
	return c
}

// New wraps an existing host. It is used by tests and embedders that build
// the host themselves.
func New(h *host.Host, alloc modabi.Allocator) *Context {
	return &Context{
		host:     h,
		registry: h.Registry,
		alloc:    alloc,
		logger:   h.Logger,
		family:   h.Runtime.Family,
		strings:  make(map[string]*byte),
	}
}

// Registry returns the registry behind the context.
func (c *Context) Registry() *registry.Registry { return c.registry }

// Failed reports whether the loader could not initialize.
func (c *Context) Failed() bool { return c.registry.Failed() }

// String returns a NUL-terminated copy of the requested path. Copies are
// cached per value and stay valid for the life of the process. An unknown
// field yields nil.
func (c *Context) String(f Field) *byte {
	p := c.registry.Paths()
	var s string
	switch f {
	case FieldModloaderPath:
		s = p.ModloaderPath
	case FieldRootLoadPath:
		s = p.RootLoadPath
	case FieldFilesDir:
		s = p.FilesDir
	case FieldExternalDir:
		s = p.ExternalDir
	case FieldApplicationID:
		s = p.ApplicationID
	case FieldSourcePath:
		s = p.SourcePath
	case FieldLibil2cppPath:
		s = p.Libil2cppPath
	default:
		return nil
	}
	return c.intern(s)
}

func (c *Context) intern(s string) *byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.strings[s]; ok {
		return p
	}
	p := modabi.CString(c.alloc, s)
	if p != nil {
		c.strings[s] = p
	}
	return p
}

// GetMod returns the first loaded module matching info. A nil info, no
// match or an allocation failure yields the empty result.
func (c *Context) GetMod(info *modabi.ModInfo, mt registry.MatchType) modabi.ModResult {
	if info == nil {
		return modabi.ModResult{}
	}
	res, err := c.registry.FindResult(c.alloc, registry.QueryFromInfo(info), mt)
	if err != nil {
		c.logger.Error("get mod: cannot allocate result", "error", err)
		return modabi.ModResult{}
	}
	return res
}

// RequireMod reports whether a module matching info is loaded.
func (c *Context) RequireMod(info *modabi.ModInfo, mt registry.MatchType) registry.Status {
	if info == nil {
		return registry.StatusNotFound
	}
	return c.registry.RequireMod(registry.QueryFromInfo(info), mt)
}

// Loaded returns every successfully loaded module.
func (c *Context) Loaded() modabi.ModResults {
	res, err := c.registry.LoadedResults(c.alloc)
	if err != nil {
		c.logger.Error("get loaded: cannot allocate results", "error", err)
	}
	return res
}

// All returns every load attempt, including failures.
func (c *Context) All() modabi.ModResults {
	res, err := c.registry.AllResults(c.alloc)
	if err != nil {
		c.logger.Error("get all: cannot allocate results", "error", err)
	}
	return res
}

// FreeResults releases an array from Loaded or All. It tolerates nil and
// repeated calls.
func (c *Context) FreeResults(res *modabi.ModResults) {
	if res == nil {
		return
	}
	c.registry.FreeResults(c.alloc, res)
}

// FreeResult releases the path of a result from GetMod.
func (c *Context) FreeResult(res *modabi.ModResult) {
	modabi.FreeOne(c.alloc, res)
}

// ForceUnload closes and forgets the first loaded module matching info.
func (c *Context) ForceUnload(info *modabi.ModInfo, mt registry.MatchType) bool {
	if info == nil {
		return false
	}
	var closer registry.Closer = noLoader{}
	if c.host != nil {
		closer = c.host.Runtime.Loader
	}
	return c.registry.ForceUnload(closer, registry.QueryFromInfo(info), mt)
}

// noLoader stands in when no native backend exists; the registry is then
// empty, so it is never asked to close anything real.
type noLoader struct{}

func (noLoader) Close(native.Handle) bool { return false }
func (noLoader) LastError() string        { return native.ErrUnsupportedPlatform.Error() }

// AddLibrarySearchPath appends dir to the platform's library search path.
func (c *Context) AddLibrarySearchPath(dir *byte) bool {
	if dir == nil {
		return false
	}
	return native.AddLibrarySearchPath(c.family.SearchPathEnv(), modabi.GoString(dir))
}

// OpenLibraries runs the libraries phase. It returns the number opened.
func (c *Context) OpenLibraries(ctx context.Context) int {
	if c.host == nil {
		return 0
	}
	return c.host.Loader.OpenLibraries(ctx)
}

// OpenMods runs the mods phase, including setup.
func (c *Context) OpenMods(ctx context.Context) int {
	if c.host == nil {
		return 0
	}
	return c.host.Loader.OpenMods(ctx)
}

// LoadMods calls load on every mod.
func (c *Context) LoadMods() int {
	if c.host == nil {
		return 0
	}
	return c.host.Loader.LoadMods()
}

// LateLoadMods calls late_load on every mod.
func (c *Context) LateLoadMods() int {
	if c.host == nil {
		return 0
	}
	return c.host.Loader.LateLoadMods()
}

// Phase returns the current lifecycle phase.
func (c *Context) Phase() registry.Phase { return c.registry.Phase() }

// Flag reports whether a lifecycle step has completed.
func (c *Context) Flag(f registry.Flag) bool { return c.registry.Flag(f) }

