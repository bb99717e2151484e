// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"path/filepath"

	"mvdan.cc/sh/v3/shell"
)

// Resolve returns a copy of c with environment references in every path
// expanded and relative directories joined to the root load path. A nil env
// reads the process environment.
func (c *Config) Resolve(env func(string) string) (*Config, error) {
	out := *c
	out.Scan.ExtraSystemLibraries = append([]string(nil), c.Scan.ExtraSystemLibraries...)

	root, err := expand(c.Paths.RootLoadPath, env)
	if err != nil {
		return nil, fmt.Errorf("paths.root_load_path: %w", err)
	}
	if root != "" {
		if root, err = filepath.Abs(root); err != nil {
			return nil, fmt.Errorf("paths.root_load_path: %w", err)
		}
	}
	out.Paths.RootLoadPath = root

	for _, f := range out.Paths.fields() {
		if f.name == "root_load_path" || *f.value == "" {
			continue
		}
		v, err := expand(*f.value, env)
		if err != nil {
			return nil, fmt.Errorf("paths.%s: %w", f.name, err)
		}
		if v != "" && !filepath.IsAbs(v) && root != "" {
			v = filepath.Join(root, v)
		}
		*f.value = v
	}
	return &out, nil
}

func expand(s string, env func(string) string) (string, error) {
	if s == "" {
		return "", nil
	}
	v, err := shell.Expand(s, env)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", s, err)
	}
	return filepath.Clean(v), nil
}
