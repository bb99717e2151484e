// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/modhost/modhost/internal/logging"
	"github.com/modhost/modhost/internal/native"
)

type (
	// Closer releases native handles on ForceUnload.
	Closer interface {
		Close(h native.Handle) bool
		LastError() string
	}

	// Registry is the record of every load attempt.
	Registry struct {
		mu      sync.Mutex
		modules []*LoadedModule

		paths  Paths
		logger logging.Logger

		failed atomic.Bool
		phase  atomic.Int32
		flags  [flagCount]atomic.Bool
	}

	// Option customizes a Registry.
	Option func(*Registry)

	// Stats summarizes the registry contents.
	Stats struct {
		Loaded int
		Failed int
	}
)

// WithLogger sets the registry's log sink.
func WithLogger(l logging.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates an empty registry with static paths.
func New(paths Paths, opts ...Option) *Registry {
	r := &Registry{paths: paths, logger: logging.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Paths returns the static configuration.
func (r *Registry) Paths() Paths { return r.paths }

// Register appends a successfully loaded module. Duplicate ids are kept.
func (r *Registry) Register(m *LoadedModule) {
	r.append(m)
	r.logger.Debug("module registered", "name", m.Name(), "instance", m.InstanceID, "handle", m.Handle)
}

// RegisterFailed appends a failed load attempt.
func (r *Registry) RegisterFailed(m *LoadedModule) {
	r.append(m)
	r.logger.Debug("failed module registered", "name", m.Name(), "instance", m.InstanceID, "error", m.Err)
}

func (r *Registry) append(m *LoadedModule) {
	r.mu.Lock()
	r.modules = append(r.modules, m)
	r.mu.Unlock()
}

// SetIdentity replaces the identity of the module with the given instance
// id. It returns false when no such module is registered.
func (r *Registry) SetIdentity(instance uuid.UUID, id Identity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.modules {
		if m.InstanceID == instance {
			if id.ID != "" {
				m.ID = id.ID
			}
			m.Version = id.Version
			m.VersionLong = id.VersionLong
			return true
		}
	}
	return false
}

// QueryLoaded returns copies of the successfully loaded modules in
// registration order.
func (r *Registry) QueryLoaded() []LoadedModule {
	return r.collect(func(m *LoadedModule) bool { return m.Succeeded() })
}

// QueryAll returns copies of every load attempt in registration order.
func (r *Registry) QueryAll() []LoadedModule {
	return r.collect(func(*LoadedModule) bool { return true })
}

// Records is QueryAll under the name used by reports.
func (r *Registry) Records() []LoadedModule { return r.QueryAll() }

func (r *Registry) collect(keep func(*LoadedModule) bool) []LoadedModule {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LoadedModule, 0, len(r.modules))
	for _, m := range r.modules {
		if keep(m) {
			out = append(out, m.clone())
		}
	}
	return out
}

// Find returns the first loaded module matching q.
func (r *Registry) Find(q Query, mt MatchType) (LoadedModule, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(q, mt); i >= 0 {
		return r.modules[i].clone(), true
	}
	return LoadedModule{}, false
}

// RequireMod reports whether a loaded module matches q.
func (r *Registry) RequireMod(q Query, mt MatchType) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexLocked(q, mt) >= 0 {
		return StatusLoaded
	}
	return StatusNotFound
}

// ForceUnload removes the first loaded module matching q and closes its
// handle. No match is success. The entry is removed even when Close fails;
// the result then reports the failure.
func (r *Registry) ForceUnload(closer Closer, q Query, mt MatchType) bool {
	r.mu.Lock()
	i := r.indexLocked(q, mt)
	if i < 0 {
		r.mu.Unlock()
		r.logger.Debug("force unload: no matching module", "id", q.ID, "match", mt)
		return true
	}
	m := r.modules[i]
	r.modules = slices.Delete(r.modules, i, i+1)
	r.mu.Unlock()

	if !closer.Close(m.Handle) {
		r.logger.Error("force unload: close failed", "name", m.Name(), "instance", m.InstanceID, "error", closer.LastError())
		return false
	}
	r.logger.Info("module unloaded", "name", m.Name(), "instance", m.InstanceID)
	return true
}

func (r *Registry) indexLocked(q Query, mt MatchType) int {
	for i, m := range r.modules {
		if m.Succeeded() && q.Matches(m, mt) {
			return i
		}
	}
	return -1
}

// Stats counts loaded and failed entries.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s Stats
	for _, m := range r.modules {
		if m.Succeeded() {
			s.Loaded++
		} else {
			s.Failed++
		}
	}
	return s
}

// Failed reports whether the loader itself could not initialize.
func (r *Registry) Failed() bool { return r.failed.Load() }

// SetFailed sets the loader failure flag.
func (r *Registry) SetFailed(v bool) { r.failed.Store(v) }

// Phase returns the current lifecycle phase.
func (r *Registry) Phase() Phase { return Phase(r.phase.Load()) }

// SetPhase stores p without ordering checks.
func (r *Registry) SetPhase(p Phase) { r.phase.Store(int32(p)) }

// Flag reports a lifecycle flag. Unknown flags read as false.
func (r *Registry) Flag(f Flag) bool {
	if f < 0 || f >= flagCount {
		return false
	}
	return r.flags[f].Load()
}

// SetFlag stores a lifecycle flag. Unknown flags are ignored.
func (r *Registry) SetFlag(f Flag, v bool) {
	if f < 0 || f >= flagCount {
		return
	}
	r.flags[f].Store(v)
}
