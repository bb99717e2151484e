// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"

	"github.com/modhost/modhost/internal/native"
	"github.com/modhost/modhost/internal/registry"
	"github.com/modhost/modhost/internal/semver"
	"github.com/modhost/modhost/pkg/modabi"
)

// OpenLibraries opens the support libraries directory. Libraries are
// registered but no entry points are called on them.
func (ld *Loader) OpenLibraries(ctx context.Context) int {
	ld.advance(registry.PhaseLibraries)
	n := ld.loadDir(ctx, ld.dirs.LibrariesDir, ld.dirs.Pattern, ld.dirs.Recursive, registry.KindLibrary)
	ld.registry.SetFlag(registry.FlagLibrariesOpened, true)
	return n
}

// OpenMods opens the mods directory and runs setup on each mod.
func (ld *Loader) OpenMods(ctx context.Context) int {
	ld.advance(registry.PhaseMods)
	n := ld.loadDir(ctx, ld.dirs.ModsDir, ld.dirs.Pattern, ld.dirs.Recursive, registry.KindMod)
	ld.registry.SetFlag(registry.FlagEarlyModsOpened, true)
	return n
}

// LoadMods calls load on every loaded mod. It returns the number of
// entry points that ran without faulting.
func (ld *Loader) LoadMods() int {
	return ld.invokeAll(SymbolLoad)
}

// LateLoadMods calls late_load on every loaded mod.
func (ld *Loader) LateLoadMods() int {
	ld.advance(registry.PhaseLateMods)
	n := ld.invokeAll(SymbolLateLoad)
	ld.registry.SetFlag(registry.FlagLateModsOpened, true)
	return n
}

// advance moves the registry phase forward; regressions are ignored.
func (ld *Loader) advance(p registry.Phase) {
	if cur := ld.registry.Phase(); p <= cur {
		ld.logger.Debug("phase unchanged", "current", cur, "requested", p)
		return
	}
	ld.registry.SetPhase(p)
	ld.logger.Debug("phase advanced", "phase", p)
}

func (ld *Loader) invokeAll(symbol string) int {
	ran := 0
	for _, m := range ld.registry.QueryLoaded() {
		if m.Kind != registry.KindMod {
			continue
		}
		addr := ld.native.ResolveSymbol(m.Handle, symbol)
		if addr.IsNull() {
			ld.logger.Debug("entry point not exported", "module", m.Name(), "symbol", symbol)
			continue
		}
		if err := ld.invoker.Invoke(addr, native.SigVoid); err != nil {
			ld.logger.Error("entry point failed", "module", m.Name(), "symbol", symbol, "instance", m.InstanceID, "error", err)
			continue
		}
		ran++
	}
	return ran
}

// setup calls `void setup(ModInfo* info, void* handle)` with a ModInfo
// prefilled with the filename-derived id and the module's own handle, then
// records whatever identity it reported.
func (ld *Loader) setup(m *registry.LoadedModule) {
	addr := ld.native.ResolveSymbol(m.Handle, SymbolSetup)
	if addr.IsNull() {
		ld.logger.Debug("entry point not exported", "module", m.Name(), "symbol", SymbolSetup)
		return
	}

	p := ld.alloc.Alloc(modabi.SizeofModInfo)
	if p == nil {
		ld.logger.Error("cannot allocate module info", "module", m.Name())
		return
	}
	defer ld.alloc.Free(p)
	info := (*modabi.ModInfo)(p)
	*info = modabi.NewModInfo(m.Name(), "", 0)

	if err := ld.invoker.Invoke(addr, native.SigVoidPtrPtr, uintptr(p), uintptr(m.Handle)); err != nil {
		ld.logger.Error("entry point failed", "module", m.Name(), "symbol", SymbolSetup, "instance", m.InstanceID, "error", err)
		return
	}

	id := identityFrom(info)
	if raw := info.VersionString(); raw != "" && id.Version == nil {
		ld.logger.Warn("module reported an invalid version", "module", m.Name(), "version", raw)
	}
	ld.registry.SetIdentity(m.InstanceID, id)
	ld.logger.Info("module set up", "module", m.Name(), "id", id.ID, "version", info.VersionString(), "instance", m.InstanceID)
}

func identityFrom(info *modabi.ModInfo) registry.Identity {
	id := registry.Identity{ID: info.IDString(), VersionLong: info.VersionLong}
	if v, err := semver.Parse(info.VersionString()); err == nil {
		id.Version = &v
	}
	return id
}
