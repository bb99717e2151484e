// SPDX-License-Identifier: MPL-2.0

package native

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/modhost/modhost/internal/depscan"
	"github.com/modhost/modhost/pkg/platform"
)

var (
	// ErrUnsupportedPlatform is the sentinel error wrapped by UnsupportedPlatformError.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrOpenFailed is the sentinel error wrapped by OpenError.
	ErrOpenFailed = errors.New("failed to open library")
	// ErrNullHandle is recorded when an operation receives NullHandle.
	ErrNullHandle = errors.New("null library handle")
)

type (
	// Loader is the per-OS dynamic library capability.
	//
	// Close on NullHandle is a no-op that reports failure. ResolveSymbol
	// returns NullAddress for a missing symbol; the reason is available from
	// LastError.
	Loader interface {
		Open(path string) (Handle, error)
		Close(h Handle) bool
		ResolveSymbol(h Handle, name string) Address
		LastError() string
	}

	// Platform bundles the loader and dependency scanner selected for the
	// running OS. It is created once and held for the process lifetime.
	Platform struct {
		Loader
		Scanner *depscan.Scanner
		Family  platform.Family
	}

	// UnsupportedPlatformError is returned when no backend exists for GOOS.
	UnsupportedPlatformError struct {
		GOOS string
	}

	// OpenError carries the OS loader message for a failed Open.
	OpenError struct {
		Path    string
		Message string
	}

	// lastError is embedded by backends to record the most recent failure.
	lastError struct {
		mu  sync.Mutex
		msg string
	}
)

// Error implements the error interface.
func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %q: no native loader backend", e.GOOS)
}

// Unwrap returns ErrUnsupportedPlatform for errors.Is() compatibility.
func (e *UnsupportedPlatformError) Unwrap() error { return ErrUnsupportedPlatform }

// Error implements the error interface.
func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %s", e.Path, e.Message)
}

// Unwrap returns ErrOpenFailed for errors.Is() compatibility.
func (e *OpenError) Unwrap() error { return ErrOpenFailed }

// New selects the backend for the running OS. The scanner strategy follows
// the same family. A nil runner runs external tools with os/exec.
func New(runner depscan.CommandRunner) (*Platform, error) {
	return newPlatform(runtime.GOOS, runner)
}

func newPlatform(goos string, runner depscan.CommandRunner) (*Platform, error) {
	family := platform.FamilyOf(goos)
	if family == platform.FamilyUnknown {
		return nil, &UnsupportedPlatformError{GOOS: goos}
	}
	loader, err := newOSLoader()
	if err != nil {
		return nil, err
	}
	scanner, err := depscan.ForFamily(family, runner)
	if err != nil {
		return nil, fmt.Errorf("select dependency scanner: %w", err)
	}
	return &Platform{Loader: loader, Scanner: scanner, Family: family}, nil
}

func (l *lastError) set(msg string) {
	l.mu.Lock()
	l.msg = msg
	l.mu.Unlock()
}

// LastError returns the message recorded by the most recent failed call.
func (l *lastError) LastError() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.msg
}
