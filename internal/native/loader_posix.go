// SPDX-License-Identifier: MPL-2.0

//go:build darwin || linux

package native

import (
	"github.com/ebitengine/purego"
)

// posixLoader opens libraries with dlopen. Symbols resolve immediately and
// stay local to the library; dependents find already-loaded libraries by
// soname.
type posixLoader struct {
	lastError
}

func newOSLoader() (Loader, error) {
	return &posixLoader{}, nil
}

// Open implements Loader.
func (l *posixLoader) Open(path string) (Handle, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil || h == 0 {
		msg := "dlopen returned a null handle"
		if err != nil {
			msg = err.Error()
		}
		l.set(msg)
		return NullHandle, &OpenError{Path: path, Message: msg}
	}
	return Handle(h), nil
}

// Close implements Loader.
func (l *posixLoader) Close(h Handle) bool {
	if h.IsNull() {
		l.set(ErrNullHandle.Error())
		return false
	}
	if err := purego.Dlclose(h.Raw()); err != nil {
		l.set(err.Error())
		return false
	}
	return true
}

// ResolveSymbol implements Loader.
func (l *posixLoader) ResolveSymbol(h Handle, name string) Address {
	if h.IsNull() {
		l.set(ErrNullHandle.Error())
		return NullAddress
	}
	addr, err := purego.Dlsym(h.Raw(), name)
	if err != nil {
		l.set(err.Error())
		return NullAddress
	}
	return Address(addr)
}
