// SPDX-License-Identifier: MPL-2.0

//go:build !darwin && !linux && !windows

package native

import "runtime"

func newOSLoader() (Loader, error) {
	return nil, &UnsupportedPlatformError{GOOS: runtime.GOOS}
}
