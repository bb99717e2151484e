// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"slices"
	"time"
)

// Fake builds a descriptor without touching the filesystem. It exists for
// tests of packages that consume descriptors. A non-empty scanErr with nil
// deps records a failed scan.
func Fake(path string, deps []string, scanErr string) *Descriptor {
	d := &Descriptor{
		path:      path,
		name:      Name(path),
		scannedAt: time.Unix(0, 0),
	}
	if deps == nil && scanErr != "" {
		d.scanErr = scanErr
	} else {
		d.dependencies = slices.Clone(deps)
		if d.dependencies == nil {
			d.dependencies = []string{}
		}
	}
	return d
}
