// SPDX-License-Identifier: MPL-2.0

// Package modabi defines the fixed-layout records exchanged with native
// modules and the helpers that marshal registry results into
// caller-owned memory.
//
// The Go structs mirror this C declaration field for field:
//
//	typedef struct {
//	    char     id[64];
//	    char     version[64];
//	    uint64_t version_long;
//	} ModInfo;
//
//	typedef struct {
//	    ModInfo     info;
//	    const char* path;   /* NULL when nothing matched */
//	    void*       handle; /* NULL when nothing matched or the load failed */
//	} ModResult;
//
//	typedef struct {
//	    ModResult* array;   /* NULL when size == 0 */
//	    uint64_t   size;
//	} ModResults;
package modabi
