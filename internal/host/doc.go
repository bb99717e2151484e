// SPDX-License-Identifier: MPL-2.0

// Package host assembles a ready-to-use loader from configuration. Both the
// modhost CLI and the C ABI library build their object graph through it.
package host
