// SPDX-License-Identifier: MPL-2.0

// Package native is the narrow boundary between the loader and the operating
// system's dynamic linker.
//
// It defines the opaque Handle and Address newtypes, the Loader capability
// (open, close, resolve symbol, last error), one backend per OS family
// (dlopen through purego on Linux and Darwin, LoadLibraryEx through
// golang.org/x/sys/windows on Windows), and the Invoker that calls resolved
// entry points. Everything that turns an integer into executable code lives
// in invoke.go and nowhere else.
package native
