// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modhost/modhost/internal/depsort"
	"github.com/modhost/modhost/internal/issue"
	"github.com/modhost/modhost/pkg/types"
)

// newValidateCommand creates `modhost validate [dir]`.
func newValidateCommand(app *App) *cobra.Command {
	var flags dirFlags
	cmd := &cobra.Command{
		Use:   "validate [dir]",
		Short: "Report missing dependencies and cycles",
		Long: `Report missing dependencies and cycles.

A dependency is missing when it is neither another module in the directory
nor a known system library. Extend the system library list with
scan.extra_system_libraries. Exits with status 2 when anything is found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.newHost(cmd.Context())
			if err != nil {
				return err
			}
			dir, descs, err := flags.describe(cmd.Context(), h, args)
			if err != nil {
				return err
			}

			ok, findings := h.Sorter.Validate(descs)
			if ok {
				fmt.Fprintf(app.stdout, "%s %d module(s) in %s\n", SuccessStyle.Render("✓"), len(descs), dir)
				return nil
			}

			var missing, cyclic bool
			for _, f := range findings {
				fmt.Fprintf(app.stdout, "%s %s\n", ErrorStyle.Render("✗"), f)
				missing = missing || errors.Is(f, depsort.ErrMissingDependency)
				cyclic = cyclic || errors.Is(f, depsort.ErrCircularDependency)
			}
			if app.flags.verbose {
				if missing {
					app.renderIssue(issue.Get(issue.MissingDependenciesId))
				}
				if cyclic {
					app.renderIssue(issue.Get(issue.DependencyCycleId))
				}
			}
			return &ExitError{Code: types.ExitValidationFailed}
		},
	}
	flags.register(cmd)
	return cmd
}
