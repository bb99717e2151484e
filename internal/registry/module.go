// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"time"

	"github.com/google/uuid"

	"github.com/modhost/modhost/internal/descriptor"
	"github.com/modhost/modhost/internal/native"
	"github.com/modhost/modhost/internal/semver"
)

// Module kinds.
const (
	// KindMod is a module whose lifecycle entry points are invoked.
	KindMod Kind = iota
	// KindLibrary is a support library that is only opened.
	KindLibrary
)

type (
	// Kind distinguishes mods from support libraries.
	Kind int

	// LoadedModule is the outcome of one load attempt. A successful module
	// carries a non-null Handle; a failed one carries Err instead.
	//
	// ID, Version and VersionLong start from the filename and are replaced
	// by whatever the module reports from its setup entry point.
	LoadedModule struct {
		Descriptor *descriptor.Descriptor
		InstanceID uuid.UUID
		Kind       Kind
		Handle     native.Handle
		LoadedAt   time.Time
		Err        string

		ID          string
		Version     *semver.Version
		VersionLong uint64
	}

	// Identity is what a module reports about itself.
	Identity struct {
		ID          string
		Version     *semver.Version
		VersionLong uint64
	}
)

// NewLoaded wraps a successfully opened library.
func NewLoaded(d *descriptor.Descriptor, h native.Handle, at time.Time) *LoadedModule {
	return &LoadedModule{
		Descriptor: d,
		InstanceID: uuid.New(),
		Handle:     h,
		LoadedAt:   at,
		ID:         d.Name(),
	}
}

// NewFailed wraps a failed open. An empty message is replaced so the
// failure stays distinguishable from success.
func NewFailed(d *descriptor.Descriptor, msg string, at time.Time) *LoadedModule {
	if msg == "" {
		msg = "unknown load error"
	}
	return &LoadedModule{
		Descriptor: d,
		InstanceID: uuid.New(),
		LoadedAt:   at,
		Err:        msg,
		ID:         d.Name(),
	}
}

// String returns the kind name.
func (k Kind) String() string {
	if k == KindLibrary {
		return "library"
	}
	return "mod"
}

// Succeeded reports whether the library was opened.
func (m *LoadedModule) Succeeded() bool { return m.Err == "" && !m.Handle.IsNull() }

// Name returns the filename-derived module name.
func (m *LoadedModule) Name() string { return m.Descriptor.Name() }

// Path returns the module's canonical path.
func (m *LoadedModule) Path() string { return m.Descriptor.Path() }

// VersionString returns the reported version or "".
func (m *LoadedModule) VersionString() string {
	if m.Version == nil {
		return ""
	}
	return m.Version.String()
}

// Identity returns the current identity fields.
func (m *LoadedModule) Identity() Identity {
	return Identity{ID: m.ID, Version: m.Version, VersionLong: m.VersionLong}
}

func (m *LoadedModule) clone() LoadedModule {
	c := *m
	if m.Version != nil {
		v := *m.Version
		c.Version = &v
	}
	return c
}
