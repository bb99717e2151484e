// SPDX-License-Identifier: MPL-2.0

// Package depsort orders module descriptors so that every in-set dependency
// is loaded before the modules that import it.
//
// Ordering is total: a dependency cycle degrades to a best-effort order and
// a logged warning, never an error. Validate is the separate, strict pass
// that reports cycles and unsatisfied imports.
package depsort
