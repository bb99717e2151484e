// SPDX-License-Identifier: MPL-2.0

// Package semver parses the semantic versions native modules report about
// themselves. The registry treats a parsed Version as an opaque value that is
// ordered and equality-comparable; nothing else in the loader interprets it.
package semver

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
var ErrInvalidVersion = errors.New("invalid semantic version")

// versionRegex matches semantic version strings with optional "v" prefix,
// optional minor/patch, prerelease and build metadata.
var versionRegex = regexp.MustCompile(`^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:-([0-9A-Za-z\-\.]+))?(?:\+([0-9A-Za-z\-\.]+))?$`)

type (
	// Version represents a parsed semantic version.
	Version struct {
		Major      int
		Minor      int
		Patch      int
		Prerelease string
		Build      string
		Original   string
	}

	// InvalidVersionError is returned when a string is not a semantic version.
	InvalidVersionError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid semantic version %q", e.Value)
}

// Unwrap returns ErrInvalidVersion so callers can use errors.Is for programmatic detection.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

// Parse parses a version string into a Version.
func Parse(s string) (Version, error) {
	matches := versionRegex.FindStringSubmatch(s)
	if matches == nil {
		return Version{}, &InvalidVersionError{Value: s}
	}

	v := Version{Original: s, Prerelease: matches[4], Build: matches[5]}

	var err error
	if v.Major, err = strconv.Atoi(matches[1]); err != nil {
		return Version{}, fmt.Errorf("invalid major version: %w", err)
	}
	if matches[2] != "" {
		if v.Minor, err = strconv.Atoi(matches[2]); err != nil {
			return Version{}, fmt.Errorf("invalid minor version: %w", err)
		}
	}
	if matches[3] != "" {
		if v.Patch, err = strconv.Atoi(matches[3]); err != nil {
			return Version{}, fmt.Errorf("invalid patch version: %w", err)
		}
	}

	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as originally written.
func (v Version) String() string {
	if v.Original != "" {
		return v.Original
	}
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

// Compare compares two versions.
// Returns -1 if v < other, 0 if v == other, 1 if v > other.
// Build metadata does not take part in precedence.
func (v Version) Compare(other Version) int {
	if c := compareInt(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareInt(v.Patch, other.Patch); c != 0 {
		return c
	}

	// Prerelease versions have lower precedence
	switch {
	case v.Prerelease == other.Prerelease:
		return 0
	case v.Prerelease == "":
		return 1
	case other.Prerelease == "":
		return -1
	case v.Prerelease < other.Prerelease:
		return -1
	default:
		return 1
	}
}

// Equal reports whether both versions have the same precedence.
// "v1.2" and "1.2.0" are equal.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
