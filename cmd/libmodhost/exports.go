// SPDX-License-Identifier: MPL-2.0

package main

/*
#include <stdbool.h>
#include <stdint.h>

typedef struct {
    char     id[64];
    char     version[64];
    uint64_t version_long;
} ModInfo;

typedef struct {
    ModInfo     info;
    const char* path;
    void*       handle;
} ModResult;

typedef struct {
    ModResult* array;
    uint64_t   size;
} ModResults;
*/
import "C"

import (
	"context"
	"unsafe"

	"github.com/modhost/modhost/internal/capi"
	"github.com/modhost/modhost/internal/registry"
	"github.com/modhost/modhost/pkg/modabi"
)

func init() {
	if unsafe.Sizeof(C.ModInfo{}) != modabi.SizeofModInfo ||
		unsafe.Sizeof(C.ModResult{}) != modabi.SizeofModResult ||
		unsafe.Sizeof(C.ModResults{}) != modabi.SizeofModResults {
		panic("libmodhost: C record layout does not match pkg/modabi")
	}
}

func field(f capi.Field) *C.char {
	return (*C.char)(unsafe.Pointer(state.String(f)))
}

func info(p *C.ModInfo) *modabi.ModInfo {
	return (*modabi.ModInfo)(unsafe.Pointer(p))
}

//export modloader_get_failed
func modloader_get_failed() C.bool { return C.bool(state.Failed()) }

//export modloader_get_path
func modloader_get_path() *C.char { return field(capi.FieldModloaderPath) }

//export modloader_get_root_load_path
func modloader_get_root_load_path() *C.char { return field(capi.FieldRootLoadPath) }

//export modloader_get_files_dir
func modloader_get_files_dir() *C.char { return field(capi.FieldFilesDir) }

//export modloader_get_external_dir
func modloader_get_external_dir() *C.char { return field(capi.FieldExternalDir) }

//export modloader_get_application_id
func modloader_get_application_id() *C.char { return field(capi.FieldApplicationID) }

//export modloader_get_source_path
func modloader_get_source_path() *C.char { return field(capi.FieldSourcePath) }

//export modloader_get_libil2cpp_path
func modloader_get_libil2cpp_path() *C.char { return field(capi.FieldLibil2cppPath) }

// modloader_get_mod returns the first loaded module matching query. The
// path is owned by the caller and released with modloader_free_result.
//
//export modloader_get_mod
func modloader_get_mod(query *C.ModInfo, matchType C.int32_t) C.ModResult {
	res := state.GetMod(info(query), registry.MatchType(matchType))
	return *(*C.ModResult)(unsafe.Pointer(&res))
}

//export modloader_free_result
func modloader_free_result(res *C.ModResult) {
	state.FreeResult((*modabi.ModResult)(unsafe.Pointer(res)))
}

//export modloader_require_mod
func modloader_require_mod(query *C.ModInfo, matchType C.int32_t) C.int32_t {
	return C.int32_t(state.RequireMod(info(query), registry.MatchType(matchType)))
}

//export modloader_get_loaded
func modloader_get_loaded() C.ModResults {
	res := state.Loaded()
	return *(*C.ModResults)(unsafe.Pointer(&res))
}

//export modloader_get_all
func modloader_get_all() C.ModResults {
	res := state.All()
	return *(*C.ModResults)(unsafe.Pointer(&res))
}

//export modloader_free_results
func modloader_free_results(res *C.ModResults) {
	state.FreeResults((*modabi.ModResults)(unsafe.Pointer(res)))
}

//export modloader_force_unload
func modloader_force_unload(query *C.ModInfo, matchType C.int32_t) C.bool {
	return C.bool(state.ForceUnload(info(query), registry.MatchType(matchType)))
}

//export modloader_add_library_search_path
func modloader_add_library_search_path(dir *C.char) C.bool {
	return C.bool(state.AddLibrarySearchPath((*byte)(unsafe.Pointer(dir))))
}

//export modloader_open_libraries
func modloader_open_libraries() C.int { return C.int(state.OpenLibraries(context.Background())) }

//export modloader_open_mods
func modloader_open_mods() C.int { return C.int(state.OpenMods(context.Background())) }

//export modloader_load_mods
func modloader_load_mods() C.int { return C.int(state.LoadMods()) }

//export modloader_late_load_mods
func modloader_late_load_mods() C.int { return C.int(state.LateLoadMods()) }

//export modloader_get_phase
func modloader_get_phase() C.int32_t { return C.int32_t(state.Phase()) }

//export modloader_get_libraries_opened
func modloader_get_libraries_opened() C.bool {
	return C.bool(state.Flag(registry.FlagLibrariesOpened))
}

//export modloader_get_early_mods_opened
func modloader_get_early_mods_opened() C.bool {
	return C.bool(state.Flag(registry.FlagEarlyModsOpened))
}

//export modloader_get_late_mods_opened
func modloader_get_late_mods_opened() C.bool {
	return C.bool(state.Flag(registry.FlagLateModsOpened))
}
