// SPDX-License-Identifier: MPL-2.0

// Package report exports a point-in-time snapshot of the module registry
// as TOML, for bug reports and for comparing two runs of the same host.
package report
