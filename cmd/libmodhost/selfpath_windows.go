// SPDX-License-Identifier: MPL-2.0

//go:build windows

package main

import (
	"reflect"
	"unsafe"

	"golang.org/x/sys/windows"
)

// selfPath returns the path of the DLL this code was linked into.
func selfPath() string {
	var h windows.Handle
	addr := reflect.ValueOf(selfPath).Pointer()
	flags := uint32(windows.GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS | windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT)
	if err := windows.GetModuleHandleEx(flags, (*uint16)(unsafe.Pointer(addr)), &h); err != nil { //nolint:govet // address inside the image, not a Go object
		return ""
	}
	buf := make([]uint16, windows.MAX_LONG_PATH)
	n, err := windows.GetModuleFileName(h, &buf[0], uint32(len(buf)))
	if err != nil {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}
