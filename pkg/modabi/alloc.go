// SPDX-License-Identifier: MPL-2.0

package modabi

import (
	"runtime"
	"sync"
	"unsafe"
)

type (
	// Allocator provides the memory that result records are marshaled into.
	// Alloc must return zeroed, pointer-aligned memory or nil on exhaustion.
	Allocator interface {
		Alloc(size uintptr) unsafe.Pointer
		Free(p unsafe.Pointer)
	}

	// GoAllocator hands out pinned Go memory. It keeps every live block
	// reachable until Free, so pointers may be stored in native-shaped
	// records without the collector reclaiming them.
	GoAllocator struct {
		mu     sync.Mutex
		blocks map[unsafe.Pointer]*goBlock
	}

	goBlock struct {
		words  []uint64
		pinner runtime.Pinner
	}
)

// NewGoAllocator creates an empty GoAllocator.
func NewGoAllocator() *GoAllocator {
	return &GoAllocator{blocks: make(map[unsafe.Pointer]*goBlock)}
}

// Alloc implements Allocator.
func (a *GoAllocator) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		size = 1
	}
	b := &goBlock{words: make([]uint64, (size+7)/8)}
	p := unsafe.Pointer(&b.words[0])
	b.pinner.Pin(p)

	a.mu.Lock()
	a.blocks[p] = b
	a.mu.Unlock()
	return p
}

// Free implements Allocator. Unknown pointers are ignored.
func (a *GoAllocator) Free(p unsafe.Pointer) {
	a.mu.Lock()
	b, ok := a.blocks[p]
	delete(a.blocks, p)
	a.mu.Unlock()
	if ok {
		b.pinner.Unpin()
	}
}

// Live returns the number of blocks not yet freed.
func (a *GoAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.blocks)
}
