// SPDX-License-Identifier: MPL-2.0

//go:build windows

package descriptor

import (
	"io/fs"
	"syscall"
	"time"
)

func creationTime(info fs.FileInfo) time.Time {
	if attr, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return time.Unix(0, attr.CreationTime.Nanoseconds())
	}
	return info.ModTime()
}
