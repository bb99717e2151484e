// SPDX-License-Identifier: MPL-2.0

// Package capi implements the operations behind the modloader_* C functions.
//
// A Context is created once when the loader library is attached and lives
// until the process exits. Every method is safe to call from foreign
// threads. Strings handed to C are allocated once per distinct value and
// never freed; result arrays are owned by the caller until returned through
// FreeResults.
package capi
