// SPDX-License-Identifier: MPL-2.0

package native

import "fmt"

const (
	// NullHandle denotes "not loaded". No successful Open returns it.
	NullHandle Handle = 0
	// NullAddress denotes a symbol that could not be resolved.
	NullAddress Address = 0
)

type (
	// Handle is an opaque, copyable reference to a library opened by a Loader.
	// It is the raw value returned by dlopen or LoadLibraryEx and is owned by
	// the Loader that produced it.
	Handle uintptr

	// Address is the resolved address of an exported symbol.
	Address uintptr
)

// HandleOf wraps a raw loader value.
func HandleOf(raw uintptr) Handle { return Handle(raw) }

// IsNull reports whether h is the "not loaded" sentinel.
func (h Handle) IsNull() bool { return h == NullHandle }

// Raw returns the underlying OS value.
func (h Handle) Raw() uintptr { return uintptr(h) }

// String formats the handle as a hex address.
func (h Handle) String() string {
	if h.IsNull() {
		return "<null>"
	}
	return fmt.Sprintf("%#x", uintptr(h))
}

// IsNull reports whether a is the unresolved sentinel.
func (a Address) IsNull() bool { return a == NullAddress }

// String formats the address in hex.
func (a Address) String() string { return fmt.Sprintf("%#x", uintptr(a)) }
