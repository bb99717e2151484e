// SPDX-License-Identifier: MPL-2.0

// Package discovery enumerates candidate module binaries in a directory.
//
// Discovery is permissive: unreadable subdirectories and broken symlinks are
// skipped and reported as Diagnostics so the CLI layer decides how to render
// them. Only an unusable root directory or pattern is an error.
package discovery
