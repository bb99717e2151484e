// SPDX-License-Identifier: MPL-2.0

// Package registry holds the process-wide record of every module load
// attempt and answers the queries native modules make through the C ABI.
//
// A Registry is constructed once at process attach and passed explicitly to
// the loader and the exported ABI functions. It is append-only except for
// ForceUnload, and every operation on the module list is serialized by one
// mutex.
package registry
