// SPDX-License-Identifier: MPL-2.0

package modabi

import (
	"errors"
	"unsafe"
)

// ErrOutOfMemory is returned when the allocator yields nil.
var ErrOutOfMemory = errors.New("result allocation failed")

// Record is the Go-side content of one ModResult.
type Record struct {
	Info   ModInfo
	Path   string
	Handle uintptr
}

// CString copies s into a NUL-terminated block from alloc.
func CString(alloc Allocator, s string) *byte {
	p := alloc.Alloc(uintptr(len(s) + 1))
	if p == nil {
		return nil
	}
	buf := unsafe.Slice((*byte)(p), len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
	return (*byte)(p)
}

// MarshalOne converts rec into a ModResult. A nil rec yields the empty
// sentinel.
func MarshalOne(alloc Allocator, rec *Record) (ModResult, error) {
	if rec == nil {
		return ModResult{}, nil
	}
	out := ModResult{Info: rec.Info, Handle: rec.Handle}
	if rec.Path != "" {
		if out.Path = CString(alloc, rec.Path); out.Path == nil {
			return ModResult{}, ErrOutOfMemory
		}
	}
	return out, nil
}

// Marshal copies recs into one contiguous array from alloc. No records
// yields the empty sentinel (nil array, size 0). On allocation failure
// everything allocated so far is released.
func Marshal(alloc Allocator, recs []Record) (ModResults, error) {
	if len(recs) == 0 {
		return ModResults{}, nil
	}
	p := alloc.Alloc(SizeofModResult * uintptr(len(recs)))
	if p == nil {
		return ModResults{}, ErrOutOfMemory
	}
	out := ModResults{Array: (*ModResult)(p), Size: uint64(len(recs))}
	items := out.Slice()
	for i := range recs {
		r, err := MarshalOne(alloc, &recs[i])
		if err != nil {
			Free(alloc, &out)
			return ModResults{}, err
		}
		items[i] = r
	}
	return out, nil
}

// FreeOne releases the path of a single result and resets it to the empty
// sentinel.
func FreeOne(alloc Allocator, r *ModResult) {
	if r == nil {
		return
	}
	if r.Path != nil {
		alloc.Free(unsafe.Pointer(r.Path))
	}
	*r = ModResult{}
}

// Free releases every block behind r and resets it to the empty sentinel.
// Freeing the sentinel again is a no-op.
func Free(alloc Allocator, r *ModResults) {
	if r == nil || r.Array == nil {
		return
	}
	items := unsafe.Slice(r.Array, int(r.Size))
	for i := range items {
		if items[i].Path != nil {
			alloc.Free(unsafe.Pointer(items[i].Path))
			items[i].Path = nil
		}
	}
	alloc.Free(unsafe.Pointer(r.Array))
	r.Array = nil
	r.Size = 0
}
