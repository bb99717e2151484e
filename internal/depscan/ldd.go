// SPDX-License-Identifier: MPL-2.0

package depscan

import (
	"bufio"
	"bytes"
	"context"
	"strings"
)

const (
	lddTool      = "ldd"
	lddSeparator = " => "
)

// virtualDSOPrefixes name kernel-provided objects that ldd lists but that
// never exist on disk.
var virtualDSOPrefixes = []string{"linux-vdso", "linux-gate", "linux-vdso64"}

// LddStrategy lists ELF dependencies by running ldd.
type LddStrategy struct {
	Runner CommandRunner
}

// Name implements Strategy.
func (*LddStrategy) Name() string { return lddTool }

// Scan implements Strategy. A failing or missing ldd yields no names.
func (s *LddStrategy) Scan(ctx context.Context, path string) ([]string, error) {
	out, err := s.Runner.Output(ctx, lddTool, path)
	if err != nil {
		return []string{}, nil
	}
	return ParseLddOutput(out), nil
}

// ParseLddOutput extracts dependency names from ldd output such as
//
//	linux-vdso.so.1 (0x00007ffd4b1f2000)
//	libfoo.so => /opt/app/libfoo.so (0x00007f1a2c000000)
//	/lib64/ld-linux-x86-64.so.2 (0x00007f1a2c400000)
func ParseLddOutput(out []byte) []string {
	names := []string{}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.Contains(line, "statically linked") {
			continue
		}
		head, _, _ := strings.Cut(line, lddSeparator)
		fields := strings.Fields(head)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if isVirtualDSO(name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

func isVirtualDSO(name string) bool {
	for _, prefix := range virtualDSOPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
