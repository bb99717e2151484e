// SPDX-License-Identifier: MPL-2.0

package platform

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
	Android = "android"
	IOS     = "ios"
)

const (
	// FamilyUnknown is returned for operating systems the loader cannot serve.
	FamilyUnknown Family = iota
	// FamilyWindows covers the Windows loader (LoadLibrary / PE binaries).
	FamilyWindows
	// FamilyLinux covers ELF systems using dlopen (Linux, Android).
	FamilyLinux
	// FamilyDarwin covers Mach-O systems using dlopen (macOS, iOS).
	FamilyDarwin
)

// Family groups operating systems that share a loader and binary format.
type Family int

// FamilyOf maps a GOOS value to its loader family.
func FamilyOf(goos string) Family {
	switch goos {
	case Windows:
		return FamilyWindows
	case Linux, Android:
		return FamilyLinux
	case Darwin, IOS:
		return FamilyDarwin
	default:
		return FamilyUnknown
	}
}

// String returns a human-readable family name.
func (f Family) String() string {
	switch f {
	case FamilyWindows:
		return "windows"
	case FamilyLinux:
		return "linux"
	case FamilyDarwin:
		return "darwin"
	default:
		return "unknown"
	}
}

// DefaultPattern returns the shared-library glob pattern for the family.
func (f Family) DefaultPattern() string {
	switch f {
	case FamilyWindows:
		return "*.dll"
	case FamilyDarwin:
		return "*.dylib"
	default:
		return "*.so"
	}
}

// SearchPathEnv returns the environment variable consulted by the OS loader
// when resolving libraries by bare name.
func (f Family) SearchPathEnv() string {
	switch f {
	case FamilyWindows:
		return "PATH"
	case FamilyDarwin:
		return "DYLD_LIBRARY_PATH"
	default:
		return "LD_LIBRARY_PATH"
	}
}
