// SPDX-License-Identifier: MPL-2.0

package depscan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/modhost/modhost/pkg/platform"
)

// ErrUnsupportedFamily is the sentinel error wrapped by UnsupportedFamilyError.
var ErrUnsupportedFamily = errors.New("no dependency scanner for platform family")

type (
	// Strategy extracts imported library names from one binary format.
	Strategy interface {
		// Name identifies the strategy in logs ("pe", "ldd", "otool").
		Name() string
		// Scan returns the imported library names of the binary at path.
		Scan(ctx context.Context, path string) ([]string, error)
	}

	// Scanner runs a Strategy against existing files only.
	Scanner struct {
		strategy Strategy
		stat     func(string) (fs.FileInfo, error)
	}

	// UnsupportedFamilyError is returned by ForFamily for families without a strategy.
	UnsupportedFamilyError struct {
		Family platform.Family
	}
)

// Error implements the error interface.
func (e *UnsupportedFamilyError) Error() string {
	return fmt.Sprintf("no dependency scanner for platform family %q", e.Family)
}

// Unwrap returns ErrUnsupportedFamily for errors.Is() compatibility.
func (e *UnsupportedFamilyError) Unwrap() error { return ErrUnsupportedFamily }

// New wraps a strategy in a Scanner.
func New(strategy Strategy) *Scanner {
	return &Scanner{strategy: strategy, stat: os.Stat}
}

// ForFamily selects the strategy for a loader family. External tools are run
// through runner; a nil runner uses the real process executor.
func ForFamily(family platform.Family, runner CommandRunner) (*Scanner, error) {
	if runner == nil {
		runner = ExecRunner{}
	}
	switch family {
	case platform.FamilyWindows:
		return New(PEStrategy{}), nil
	case platform.FamilyLinux:
		return New(&LddStrategy{Runner: runner}), nil
	case platform.FamilyDarwin:
		return New(&OtoolStrategy{Runner: runner}), nil
	default:
		return nil, &UnsupportedFamilyError{Family: family}
	}
}

// Strategy returns the wrapped strategy.
func (s *Scanner) Strategy() Strategy { return s.strategy }

// Scan returns the libraries imported by the binary at path. A file that does
// not exist has no dependencies and the strategy is not consulted.
func (s *Scanner) Scan(ctx context.Context, path string) ([]string, error) {
	if _, err := s.stat(path); errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	names, err := s.strategy.Scan(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%s scan of %s: %w", s.strategy.Name(), path, err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
