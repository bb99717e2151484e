// SPDX-License-Identifier: MPL-2.0

package native

import (
	"os"
	"path/filepath"
	"strings"
)

// AddLibrarySearchPath appends dir to the dynamic-library search path
// variable env (see platform.Family.SearchPathEnv). It returns false for
// empty input. A directory that is already listed counts as success and
// leaves the variable unchanged.
func AddLibrarySearchPath(env, dir string) bool {
	if env == "" || strings.TrimSpace(dir) == "" {
		return false
	}
	current := os.Getenv(env)
	for _, entry := range filepath.SplitList(current) {
		if entry == dir {
			return true
		}
	}
	value := dir
	if current != "" {
		value = current + string(os.PathListSeparator) + dir
	}
	return os.Setenv(env, value) == nil
}
