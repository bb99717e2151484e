// SPDX-License-Identifier: MPL-2.0

package modabi

import (
	"bytes"
	"unsafe"
)

const (
	// IDSize is the capacity of ModInfo.ID including the NUL terminator.
	IDSize = 64
	// VersionSize is the capacity of ModInfo.Version including the NUL terminator.
	VersionSize = 64
)

type (
	// ModInfo identifies a module. It is both the query record and the
	// identity block a module fills in from its setup entry point.
	ModInfo struct {
		ID          [IDSize]byte
		Version     [VersionSize]byte
		VersionLong uint64
	}

	// ModResult is one matched module.
	ModResult struct {
		Info   ModInfo
		Path   *byte
		Handle uintptr
	}

	// ModResults is a caller-owned array of ModResult.
	ModResults struct {
		Array *ModResult
		Size  uint64
	}
)

// Layout sizes, checked by tests against the C declaration in the package doc.
const (
	SizeofModInfo    = unsafe.Sizeof(ModInfo{})
	SizeofModResult  = unsafe.Sizeof(ModResult{})
	SizeofModResults = unsafe.Sizeof(ModResults{})
)

// NewModInfo builds a ModInfo, truncating strings that do not fit.
func NewModInfo(id, version string, versionLong uint64) ModInfo {
	var m ModInfo
	m.SetID(id)
	m.SetVersion(version)
	m.VersionLong = versionLong
	return m
}

// SetID stores id, truncated to IDSize-1 bytes.
func (m *ModInfo) SetID(id string) { putCString(m.ID[:], id) }

// SetVersion stores version, truncated to VersionSize-1 bytes.
func (m *ModInfo) SetVersion(version string) { putCString(m.Version[:], version) }

// IDString returns the id up to the first NUL.
func (m *ModInfo) IDString() string { return cString(m.ID[:]) }

// VersionString returns the version up to the first NUL.
func (m *ModInfo) VersionString() string { return cString(m.Version[:]) }

// Empty reports whether r is the "no match" sentinel.
func (r *ModResult) Empty() bool { return r.Path == nil && r.Handle == 0 }

// PathString returns the NUL-terminated path, or "" for a nil pointer.
func (r *ModResult) PathString() string { return GoString(r.Path) }

// Slice views the array as a Go slice. It returns nil for the empty sentinel.
func (r *ModResults) Slice() []ModResult {
	if r.Array == nil || r.Size == 0 {
		return nil
	}
	return unsafe.Slice(r.Array, int(r.Size))
}

// Empty reports whether r is the empty sentinel.
func (r *ModResults) Empty() bool { return r.Array == nil && r.Size == 0 }

// GoString copies a NUL-terminated string out of native memory.
func GoString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

func putCString(dst []byte, s string) {
	clear(dst)
	if len(s) > len(dst)-1 {
		s = s[:len(dst)-1]
	}
	copy(dst, s)
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
