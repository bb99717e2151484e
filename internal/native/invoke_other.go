// SPDX-License-Identifier: MPL-2.0

//go:build !darwin && !linux && !windows

package native

import "runtime"

type unsupportedInvoker struct{}

// NewInvoker returns an invoker that always fails on this OS.
func NewInvoker() Invoker { return unsupportedInvoker{} }

func (unsupportedInvoker) Invoke(addr Address, sig Signature, args ...uintptr) error {
	if err := checkCall(addr, sig, args); err != nil {
		return err
	}
	return &UnsupportedPlatformError{GOOS: runtime.GOOS}
}
