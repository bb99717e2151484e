// SPDX-License-Identifier: MPL-2.0

package native

import (
	"errors"
	"fmt"
)

const (
	// SigVoid is `void fn(void)`: the load and late_load entry points.
	SigVoid Signature = iota
	// SigVoidPtrPtr is `void fn(void*, void*)`: the setup entry point, called
	// with the module's ModInfo and its own handle.
	SigVoidPtrPtr
)

var (
	// ErrNullAddress is returned when invoking NullAddress.
	ErrNullAddress = errors.New("cannot invoke null address")
	// ErrSignatureMismatch is returned when the argument count does not match the signature.
	ErrSignatureMismatch = errors.New("argument count does not match signature")
	// ErrInvocationFault is the sentinel error wrapped by InvocationFaultError.
	ErrInvocationFault = errors.New("entry point faulted")
)

type (
	// Signature is the calling contract a caller declares for an entry point.
	// Only C-ABI functions returning void are supported.
	Signature int

	// Invoker calls resolved entry points.
	Invoker interface {
		Invoke(addr Address, sig Signature, args ...uintptr) error
	}

	// InvocationFaultError records a panic raised while an entry point ran.
	InvocationFaultError struct {
		Address Address
		Value   any
	}
)

// Arity returns the number of pointer-sized arguments the signature takes.
func (s Signature) Arity() int {
	switch s {
	case SigVoidPtrPtr:
		return 2
	default:
		return 0
	}
}

// String returns the C prototype of the signature.
func (s Signature) String() string {
	switch s {
	case SigVoid:
		return "void(void)"
	case SigVoidPtrPtr:
		return "void(void*, void*)"
	default:
		return fmt.Sprintf("Signature(%d)", int(s))
	}
}

// Error implements the error interface.
func (e *InvocationFaultError) Error() string {
	return fmt.Sprintf("entry point at %s faulted: %v", e.Address, e.Value)
}

// Unwrap returns ErrInvocationFault for errors.Is() compatibility.
func (e *InvocationFaultError) Unwrap() error { return ErrInvocationFault }

// checkCall validates an invocation before any native code runs.
func checkCall(addr Address, sig Signature, args []uintptr) error {
	if addr.IsNull() {
		return ErrNullAddress
	}
	if len(args) != sig.Arity() {
		return fmt.Errorf("%w: %s takes %d, got %d", ErrSignatureMismatch, sig, sig.Arity(), len(args))
	}
	return nil
}

// guard converts a panic during fn into an InvocationFaultError. Hardware
// faults inside native code terminate the process and cannot be caught here.
func guard(addr Address, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InvocationFaultError{Address: addr, Value: r}
		}
	}()
	fn()
	return nil
}
