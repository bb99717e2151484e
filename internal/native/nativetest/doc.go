// SPDX-License-Identifier: MPL-2.0

// Package nativetest provides in-memory native.Loader and native.Invoker
// implementations for tests. Libraries are declared up front by path, with
// their exported entry points expressed as Go functions.
package nativetest
