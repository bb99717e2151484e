// SPDX-License-Identifier: MPL-2.0

//go:build darwin || linux || windows

package native

import (
	"github.com/ebitengine/purego"
)

// SyscallInvoker calls entry points through purego.SyscallN.
type SyscallInvoker struct{}

// NewInvoker returns the invoker for the running OS.
func NewInvoker() Invoker { return SyscallInvoker{} }

// Invoke implements Invoker. Pointer arguments must stay reachable and
// pinned by the caller until Invoke returns.
func (SyscallInvoker) Invoke(addr Address, sig Signature, args ...uintptr) error {
	if err := checkCall(addr, sig, args); err != nil {
		return err
	}
	return guard(addr, func() {
		purego.SyscallN(uintptr(addr), args...)
	})
}
