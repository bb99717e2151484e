// SPDX-License-Identifier: MPL-2.0

//go:build darwin

package descriptor

import (
	"io/fs"
	"syscall"
	"time"
)

func creationTime(info fs.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Birthtimespec.Unix())
	}
	return info.ModTime()
}
