// SPDX-License-Identifier: MPL-2.0

package nativetest

import (
	"fmt"
	"sync"

	"github.com/modhost/modhost/internal/native"
)

type (
	// EntryPoint is the Go stand-in for an exported C function.
	EntryPoint func(args ...uintptr)

	// Library declares a fake shared library.
	Library struct {
		// OpenError makes Open fail with this message.
		OpenError string
		// Symbols maps exported names to entry points.
		Symbols map[string]EntryPoint
	}

	// Loader is an in-memory native.Loader. It also implements native.Invoker
	// so resolved addresses can be called.
	Loader struct {
		mu        sync.Mutex
		libraries map[string]*Library
		open      map[native.Handle]string
		addresses map[native.Address]EntryPoint
		nextAddr  native.Address
		nextH     native.Handle
		lastErr   string

		// Opened lists Open calls in order.
		Opened []string
		// Closed lists handles passed to successful Close calls.
		Closed []native.Handle
		// Invoked lists "path:symbol" for every Invoke in order.
		Invoked []string
		names   map[native.Address]string
	}
)

// NewLoader creates an empty fake loader.
func NewLoader() *Loader {
	return &Loader{
		libraries: make(map[string]*Library),
		open:      make(map[native.Handle]string),
		addresses: make(map[native.Address]EntryPoint),
		names:     make(map[native.Address]string),
		nextAddr:  0x10000,
		nextH:     0x1000,
	}
}

// Add declares a library at path.
func (l *Loader) Add(path string, lib Library) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.libraries[path] = &lib
}

// Open implements native.Loader.
func (l *Loader) Open(path string) (native.Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Opened = append(l.Opened, path)

	lib, ok := l.libraries[path]
	if !ok {
		l.lastErr = path + ": cannot open shared object file: No such file or directory"
		return native.NullHandle, &native.OpenError{Path: path, Message: l.lastErr}
	}
	if lib.OpenError != "" {
		l.lastErr = lib.OpenError
		return native.NullHandle, &native.OpenError{Path: path, Message: lib.OpenError}
	}
	l.nextH += 0x10
	l.open[l.nextH] = path
	return l.nextH, nil
}

// Close implements native.Loader.
func (l *Loader) Close(h native.Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h.IsNull() {
		l.lastErr = native.ErrNullHandle.Error()
		return false
	}
	if _, ok := l.open[h]; !ok {
		l.lastErr = fmt.Sprintf("handle %s is not open", h)
		return false
	}
	delete(l.open, h)
	l.Closed = append(l.Closed, h)
	return true
}

// ResolveSymbol implements native.Loader.
func (l *Loader) ResolveSymbol(h native.Handle, name string) native.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	path, ok := l.open[h]
	if !ok {
		l.lastErr = native.ErrNullHandle.Error()
		return native.NullAddress
	}
	fn, ok := l.libraries[path].Symbols[name]
	if !ok {
		l.lastErr = fmt.Sprintf("%s: undefined symbol: %s", path, name)
		return native.NullAddress
	}
	l.nextAddr += 0x10
	l.addresses[l.nextAddr] = fn
	l.names[l.nextAddr] = path + ":" + name
	return l.nextAddr
}

// LastError implements native.Loader.
func (l *Loader) LastError() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// IsOpen reports whether h is currently open.
func (l *Loader) IsOpen(h native.Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.open[h]
	return ok
}

// Invoke implements native.Invoker by calling the Go stand-in. Panics are
// converted the same way the real invoker converts them.
func (l *Loader) Invoke(addr native.Address, sig native.Signature, args ...uintptr) (err error) {
	if addr.IsNull() {
		return native.ErrNullAddress
	}
	if len(args) != sig.Arity() {
		return native.ErrSignatureMismatch
	}
	l.mu.Lock()
	fn, ok := l.addresses[addr]
	if ok {
		l.Invoked = append(l.Invoked, l.names[addr])
	}
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("no entry point at %s", addr)
	}

	defer func() {
		if r := recover(); r != nil {
			err = &native.InvocationFaultError{Address: addr, Value: r}
		}
	}()
	fn(args...)
	return nil
}
