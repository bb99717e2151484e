// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package main

/*
#cgo linux LDFLAGS: -ldl
#define _GNU_SOURCE
#include <dlfcn.h>

static const char* modhost_self_path(void) {
	Dl_info info;
	if (dladdr((void*)modhost_self_path, &info) == 0 || info.dli_fname == NULL) {
		return NULL;
	}
	return info.dli_fname;
}
*/
import "C"

import "path/filepath"

// selfPath returns the path of the object this code was linked into.
func selfPath() string {
	p := C.modhost_self_path()
	if p == nil {
		return ""
	}
	s := C.GoString(p)
	if abs, err := filepath.Abs(s); err == nil {
		return abs
	}
	return s
}
