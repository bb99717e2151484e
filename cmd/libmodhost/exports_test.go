// SPDX-License-Identifier: MPL-2.0

package main

import "testing"

func TestExportsRejectNilInput(t *testing.T) {
	t.Parallel()

	if res := modloader_get_mod(nil, 0); res.path != nil || res.handle != nil {
		t.Error("modloader_get_mod(NULL) should return the empty result")
	}
	if modloader_require_mod(nil, 0) != 1 {
		t.Error("modloader_require_mod(NULL) should report not found")
	}
	if modloader_add_library_search_path(nil) {
		t.Error("modloader_add_library_search_path(NULL) should fail")
	}
	if modloader_force_unload(nil, 0) {
		t.Error("modloader_force_unload(NULL) should fail")
	}
	modloader_free_results(nil)
	modloader_free_result(nil)
}

func TestStringsAreStable(t *testing.T) {
	t.Parallel()

	if modloader_get_files_dir() != modloader_get_files_dir() {
		t.Error("repeated calls should return the same pointer")
	}
	if modloader_get_path() == nil {
		t.Error("modloader_get_path() returned NULL")
	}
}

func TestLifecycleFlagsStartCleared(t *testing.T) {
	t.Parallel()

	if modloader_get_libraries_opened() || modloader_get_early_mods_opened() || modloader_get_late_mods_opened() {
		t.Error("no lifecycle phase has run, yet a flag is set")
	}
}
