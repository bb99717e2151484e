// SPDX-License-Identifier: MPL-2.0

// Package descriptor builds the immutable, pre-load description of a native
// module: where it is, how big it is, when it changed, and which libraries
// it imports.
package descriptor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/modhost/modhost/pkg/types"
)

var (
	// ErrFileNotFound is the sentinel error wrapped by FileNotFoundError.
	ErrFileNotFound = errors.New("module file not found")
	// ErrNotAFile is returned when the path names a directory or device.
	ErrNotAFile = errors.New("module path is not a regular file")
)

type (
	// Scanner lists the libraries a binary imports.
	Scanner interface {
		Scan(ctx context.Context, path string) ([]string, error)
	}

	// Descriptor is the static metadata of one discovered binary. It is
	// created once per file and never modified. Exactly one of Dependencies
	// and ScanError is meaningful: HasDependencies reports which.
	Descriptor struct {
		path         string
		name         string
		size         int64
		createdAt    time.Time
		modifiedAt   time.Time
		dependencies []string
		scanErr      string
		scannedAt    time.Time
	}

	// FileNotFoundError is returned by New when the module file is missing.
	FileNotFoundError struct {
		Path string
	}

	// Option customizes New.
	Option func(*options)

	options struct {
		now func() time.Time
	}
)

// Error implements the error interface.
func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("module file not found: %s", e.Path)
}

// Unwrap returns ErrFileNotFound for errors.Is() compatibility.
func (e *FileNotFoundError) Unwrap() error { return ErrFileNotFound }

// WithClock overrides the clock used for the scan timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New describes the binary at path. A missing file is an error; a failed
// dependency scan is recorded on the descriptor instead.
func New(ctx context.Context, path string, scanner Scanner, opts ...Option) (*Descriptor, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if err := types.FilesystemPath(path).Validate(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve module path: %w", err)
	}
	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &FileNotFoundError{Path: abs}
	}
	if err != nil {
		return nil, fmt.Errorf("stat module: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotAFile, abs)
	}
	// A soname link such as libbase.so -> libbase.so.1.2.3 is named after
	// the link, which is what importers reference.
	name := Name(abs)
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	d := &Descriptor{
		path:       abs,
		name:       name,
		size:       info.Size(),
		createdAt:  creationTime(info),
		modifiedAt: info.ModTime(),
	}

	deps, scanErr := scanner.Scan(ctx, abs)
	d.scannedAt = o.now()
	if scanErr != nil {
		d.scanErr = scanErr.Error()
	} else {
		if deps == nil {
			deps = []string{}
		}
		d.dependencies = deps
	}

	return d, nil
}

// Name derives a module name from a path: the file name without its extension.
func Name(path string) string {
	return types.LibraryName(path).Stem()
}

// Path returns the canonical absolute path.
func (d *Descriptor) Path() string { return d.path }

// Name returns the file name without extension.
func (d *Descriptor) Name() string { return d.name }

// Key returns the case-insensitive name used to match dependency names.
func (d *Descriptor) Key() string { return strings.ToLower(d.name) }

// Size returns the file size in bytes.
func (d *Descriptor) Size() int64 { return d.size }

// CreatedAt returns the file creation time, or the modification time where
// the filesystem does not record one.
func (d *Descriptor) CreatedAt() time.Time { return d.createdAt }

// ModifiedAt returns the file modification time.
func (d *Descriptor) ModifiedAt() time.Time { return d.modifiedAt }

// ScannedAt returns when the dependency scan finished.
func (d *Descriptor) ScannedAt() time.Time { return d.scannedAt }

// HasDependencies reports whether the scan succeeded.
func (d *Descriptor) HasDependencies() bool { return d.scanErr == "" }

// Dependencies returns a copy of the scanned dependency names, or nil when
// the scan failed.
func (d *Descriptor) Dependencies() []string {
	if !d.HasDependencies() {
		return nil
	}
	return slices.Clone(d.dependencies)
}

// ScanError returns the scan failure message, or "" on success.
func (d *Descriptor) ScanError() string { return d.scanErr }

// String returns the module name.
func (d *Descriptor) String() string { return d.name }
