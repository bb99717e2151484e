// SPDX-License-Identifier: MPL-2.0

// Package testutil holds fixtures shared by module-loading tests: module
// files written under t.TempDir() and minimal PE images (BuildPE) so the
// dependency scanner runs without shipping real binaries.
package testutil
