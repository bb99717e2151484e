// SPDX-License-Identifier: MPL-2.0

package depscan

import (
	"bufio"
	"bytes"
	"context"
	"strings"
)

const otoolTool = "otool"

// OtoolStrategy lists Mach-O dependencies by running `otool -L`.
type OtoolStrategy struct {
	Runner CommandRunner
}

// Name implements Strategy.
func (*OtoolStrategy) Name() string { return otoolTool }

// Scan implements Strategy. A failing or missing otool yields no names.
func (s *OtoolStrategy) Scan(ctx context.Context, path string) ([]string, error) {
	out, err := s.Runner.Output(ctx, otoolTool, "-L", path)
	if err != nil {
		return []string{}, nil
	}
	return ParseOtoolOutput(out), nil
}

// ParseOtoolOutput extracts dependency names from `otool -L` output. The
// first line echoes the inspected file and is skipped:
//
//	/opt/mods/libcore.dylib:
//		@rpath/libbase.dylib (compatibility version 1.0.0, current version 1.0.0)
//		/usr/lib/libSystem.B.dylib (compatibility version 1.0.0, current version 1311.0.0)
func ParseOtoolOutput(out []byte) []string {
	names := []string{}
	sc := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		installName, _, _ := strings.Cut(line, " ")
		if i := strings.LastIndexByte(installName, '/'); i >= 0 {
			installName = installName[i+1:]
		}
		if installName == "" {
			continue
		}
		names = append(names, installName)
	}
	return names
}
