// SPDX-License-Identifier: MPL-2.0

package registry

import "fmt"

// Load phases in lifecycle order.
const (
	PhaseNone Phase = iota
	PhaseLibraries
	PhaseMods
	PhaseLateMods
)

// Lifecycle flags.
const (
	FlagLibrariesOpened Flag = iota
	FlagEarlyModsOpened
	FlagLateModsOpened
	flagCount
)

type (
	// Phase is the global lifecycle position.
	Phase int32

	// Flag marks a completed lifecycle step.
	Flag int

	// Paths is the static configuration exposed to native modules.
	Paths struct {
		// ModloaderPath is the path of the loader library itself.
		ModloaderPath string
		RootLoadPath  string
		FilesDir      string
		ExternalDir   string
		ApplicationID string
		SourcePath    string
		Libil2cppPath string
	}
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseLibraries:
		return "libraries"
	case PhaseMods:
		return "mods"
	case PhaseLateMods:
		return "late-mods"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

// String returns the flag name.
func (f Flag) String() string {
	switch f {
	case FlagLibrariesOpened:
		return "libraries-opened"
	case FlagEarlyModsOpened:
		return "early-mods-opened"
	case FlagLateModsOpened:
		return "late-mods-opened"
	default:
		return fmt.Sprintf("Flag(%d)", int(f))
	}
}
