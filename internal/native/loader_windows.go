// SPDX-License-Identifier: MPL-2.0

//go:build windows

package native

import (
	"golang.org/x/sys/windows"
)

// windowsLoader opens libraries with LoadLibraryEx. The altered search path
// makes the library's own directory the first place its imports are looked
// up, which is where sibling mods live.
type windowsLoader struct {
	lastError
}

func newOSLoader() (Loader, error) {
	return &windowsLoader{}, nil
}

// Open implements Loader.
func (l *windowsLoader) Open(path string) (Handle, error) {
	h, err := windows.LoadLibraryEx(path, 0, windows.LOAD_WITH_ALTERED_SEARCH_PATH)
	if err != nil || h == 0 {
		msg := "LoadLibraryEx returned a null handle"
		if err != nil {
			msg = err.Error()
		}
		l.set(msg)
		return NullHandle, &OpenError{Path: path, Message: msg}
	}
	return Handle(h), nil
}

// Close implements Loader.
func (l *windowsLoader) Close(h Handle) bool {
	if h.IsNull() {
		l.set(ErrNullHandle.Error())
		return false
	}
	if err := windows.FreeLibrary(windows.Handle(h.Raw())); err != nil {
		l.set(err.Error())
		return false
	}
	return true
}

// ResolveSymbol implements Loader.
func (l *windowsLoader) ResolveSymbol(h Handle, name string) Address {
	if h.IsNull() {
		l.set(ErrNullHandle.Error())
		return NullAddress
	}
	addr, err := windows.GetProcAddress(windows.Handle(h.Raw()), name)
	if err != nil {
		l.set(err.Error())
		return NullAddress
	}
	return Address(addr)
}
