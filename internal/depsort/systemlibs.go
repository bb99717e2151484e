// SPDX-License-Identifier: MPL-2.0

package depsort

import (
	"strings"

	"github.com/modhost/modhost/pkg/platform"
)

var (
	windowsSystemLibraries = []string{
		"kernel32", "user32", "ntdll", "msvcrt", "advapi32", "ws2_32",
		"ole32", "oleaut32", "shell32", "gdi32", "ucrtbase", "vcruntime",
		"api-ms-win", "ext-ms-win", "msvcp", "bcrypt", "crypt32",
		"comctl32", "version",
	}

	linuxSystemLibraries = []string{
		"libc.", "libm.", "libdl.", "libpthread", "librt.", "ld-linux",
		"libgcc_s", "libstdc++", "libresolv", "libutil", "ld-musl",
		"liblog", "libandroid", "libil2cpp", "libunity", "libmain",
		"linux-vdso",
	}

	darwinSystemLibraries = []string{
		"libsystem", "libobjc", "libc++", "/system/library",
		"corefoundation", "foundation", "libdyld", "libswift",
	}
)

// SystemLibraries returns the built-in allow-list for family. Unknown
// families get the union of all lists.
func SystemLibraries(family platform.Family) []string {
	switch family {
	case platform.FamilyWindows:
		return append([]string(nil), windowsSystemLibraries...)
	case platform.FamilyLinux:
		return append([]string(nil), linuxSystemLibraries...)
	case platform.FamilyDarwin:
		return append([]string(nil), darwinSystemLibraries...)
	default:
		all := make([]string, 0, len(windowsSystemLibraries)+len(linuxSystemLibraries)+len(darwinSystemLibraries))
		all = append(all, windowsSystemLibraries...)
		all = append(all, linuxSystemLibraries...)
		return append(all, darwinSystemLibraries...)
	}
}

// isSystemLibrary matches name against the allow-list by case-insensitive
// substring. Entries are expected to be lower case.
func isSystemLibrary(name string, allow []string) bool {
	lower := strings.ToLower(name)
	for _, entry := range allow {
		if entry != "" && strings.Contains(lower, entry) {
			return true
		}
	}
	return false
}
