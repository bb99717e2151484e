// SPDX-License-Identifier: MPL-2.0

package types

import (
	"strings"
)

// LibraryName is a dependency name as reported by a binary's import table or
// by a platform link-inspection tool. It may carry a directory prefix
// ("/usr/lib/libz.so", "@rpath/libfoo.dylib") and an extension.
type LibraryName string

// String returns the raw library name.
func (n LibraryName) String() string { return string(n) }

// Base returns the final path component. Both separators are honored since
// Windows import names and POSIX tool output can both reach the same sorter.
func (n LibraryName) Base() string {
	s := string(n)
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// Stem returns the base name without its final extension
// ("libfoo.so" -> "libfoo", "Core.dll" -> "Core").
func (n LibraryName) Stem() string {
	base := n.Base()
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

// Normalized returns the case-folded stem used for in-set matching.
func (n LibraryName) Normalized() string {
	return strings.ToLower(n.Stem())
}
