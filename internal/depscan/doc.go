// SPDX-License-Identifier: MPL-2.0

// Package depscan extracts the list of libraries a native binary imports.
//
// One Strategy exists per loader family and is chosen once at startup:
//
//   - PE (Windows): the import directory is read straight out of the file by a
//     small PE/COFF header walker. No Windows API is involved, so the parser
//     runs and is tested on every host.
//   - ELF (Linux, Android): `ldd <path>` is run and its "name => path" lines
//     are parsed.
//   - Mach-O (macOS, iOS): `otool -L <path>` is run and the install names of
//     the listed libraries are reduced to their final path component.
//
// Every strategy is total: malformed input, tool failures and truncated
// binaries produce a shorter (possibly empty) list, never a panic. A Scanner
// wraps the strategy and short-circuits missing files to "no dependencies".
package depscan
