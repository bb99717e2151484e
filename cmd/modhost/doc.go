// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for modhost.
//
// Every command is built by a constructor taking an *App, which carries the
// configuration provider, the native runtime factory and the output writers.
// Tests swap the runtime for an in-memory one.
package cmd
