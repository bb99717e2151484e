// SPDX-License-Identifier: MPL-2.0

package depscan

import (
	"context"
	"os/exec"
)

type (
	// CommandRunner runs an external diagnostic tool and returns its standard
	// output. A non-zero exit status is reported as an error.
	CommandRunner interface {
		Output(ctx context.Context, name string, args ...string) ([]byte, error)
	}

	// ExecRunner runs tools with os/exec.
	ExecRunner struct{}
)

// Output implements CommandRunner.
func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
