// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown
// troubleshooting pages rendered with glamour by the modhost CLI.
package issue
