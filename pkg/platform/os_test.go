// SPDX-License-Identifier: MPL-2.0

package platform

import "testing"

func TestFamilyOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		goos    string
		want    Family
		pattern string
		env     string
	}{
		{Windows, FamilyWindows, "*.dll", "PATH"},
		{Linux, FamilyLinux, "*.so", "LD_LIBRARY_PATH"},
		{Android, FamilyLinux, "*.so", "LD_LIBRARY_PATH"},
		{Darwin, FamilyDarwin, "*.dylib", "DYLD_LIBRARY_PATH"},
		{IOS, FamilyDarwin, "*.dylib", "DYLD_LIBRARY_PATH"},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			t.Parallel()
			got := FamilyOf(tt.goos)
			if got != tt.want {
				t.Fatalf("FamilyOf(%q) = %v, want %v", tt.goos, got, tt.want)
			}
			if p := got.DefaultPattern(); p != tt.pattern {
				t.Errorf("DefaultPattern() = %q, want %q", p, tt.pattern)
			}
			if e := got.SearchPathEnv(); e != tt.env {
				t.Errorf("SearchPathEnv() = %q, want %q", e, tt.env)
			}
		})
	}
}

func TestFamilyOf_Unknown(t *testing.T) {
	t.Parallel()

	for _, goos := range []string{"plan9", "js", "wasip1", ""} {
		if got := FamilyOf(goos); got != FamilyUnknown {
			t.Errorf("FamilyOf(%q) = %v, want FamilyUnknown", goos, got)
		}
	}
	if FamilyUnknown.String() != "unknown" {
		t.Errorf("FamilyUnknown.String() = %q", FamilyUnknown.String())
	}
}
