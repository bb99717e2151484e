// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrDirNotFound is the sentinel error wrapped by DirNotFoundError.
	ErrDirNotFound = errors.New("module directory not found")
	// ErrInvalidPattern is returned for a malformed glob pattern.
	ErrInvalidPattern = errors.New("invalid search pattern")
)

type (
	// Options controls a discovery run.
	Options struct {
		// Pattern is a filepath.Match glob applied to file names.
		Pattern string
		// Recursive descends into subdirectories.
		Recursive bool
		// FoldCase matches the pattern case-insensitively, as Windows does.
		FoldCase bool
	}

	// DirNotFoundError is returned when the directory to scan does not exist.
	DirNotFoundError struct {
		Dir string
	}
)

// Error implements the error interface.
func (e *DirNotFoundError) Error() string {
	return fmt.Sprintf("module directory not found: %s", e.Dir)
}

// Unwrap returns ErrDirNotFound for errors.Is() compatibility.
func (e *DirNotFoundError) Unwrap() error { return ErrDirNotFound }

// Discover lists the regular files under dir whose names match opts.Pattern.
func Discover(dir string, opts Options) (Result, error) {
	var res Result

	pattern := opts.Pattern
	if opts.FoldCase {
		pattern = strings.ToLower(pattern)
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return res, fmt.Errorf("%w %q: %w", ErrInvalidPattern, opts.Pattern, err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return res, fmt.Errorf("resolve module directory %q: %w", dir, err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, &DirNotFoundError{Dir: absDir}
		}
		return res, fmt.Errorf("stat module directory: %w", err)
	}
	if !info.IsDir() {
		return res, fmt.Errorf("%s is not a directory", absDir)
	}

	m := matcher{pattern: pattern, foldCase: opts.FoldCase}
	if !opts.Recursive {
		entries, err := os.ReadDir(absDir)
		if err != nil {
			return res, fmt.Errorf("read module directory: %w", err)
		}
		for _, entry := range entries {
			m.visit(&res, filepath.Join(absDir, entry.Name()), entry)
		}
		return res, nil
	}

	err = filepath.WalkDir(absDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == absDir {
				return walkErr
			}
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeSubdirUnreadable,
				Message:  fmt.Sprintf("skipping unreadable directory %s: %v", path, walkErr),
				Path:     path,
				Cause:    walkErr,
			})
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		m.visit(&res, path, entry)
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("walk module directory: %w", err)
	}
	return res, nil
}

type matcher struct {
	pattern  string
	foldCase bool
}

// visit appends path when it names a regular file (or a symlink to one)
// matching the pattern.
func (m matcher) visit(res *Result, path string, entry fs.DirEntry) {
	name := entry.Name()
	if m.foldCase {
		name = strings.ToLower(name)
	}
	if ok, _ := filepath.Match(m.pattern, name); !ok {
		return
	}

	switch {
	case entry.Type().IsRegular():
		res.Files = append(res.Files, path)
	case entry.Type()&fs.ModeSymlink != 0:
		info, err := os.Stat(path)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeBrokenSymlink,
				Message:  fmt.Sprintf("skipping broken symlink %s: %v", path, err),
				Path:     path,
				Cause:    err,
			})
			return
		}
		if info.Mode().IsRegular() {
			res.Files = append(res.Files, path)
		}
	case !entry.IsDir():
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeEntrySkipped,
			Message:  fmt.Sprintf("skipping %s: not a regular file", path),
			Path:     path,
		})
	}
}
