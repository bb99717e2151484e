// SPDX-License-Identifier: MPL-2.0

package main

/*
#include <stdlib.h>
*/
import "C"

import "unsafe"

// cAllocator hands out C heap memory so results outlive any Go frame and
// can be released by either side.
type cAllocator struct{}

func (cAllocator) Alloc(size uintptr) unsafe.Pointer {
	return C.calloc(1, C.size_t(size))
}

func (cAllocator) Free(p unsafe.Pointer) {
	C.free(p)
}
