// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modhost/modhost/internal/descriptor"
	"github.com/modhost/modhost/internal/issue"
	"github.com/modhost/modhost/pkg/types"
)

// newScanCommand creates `modhost scan <file>...`.
func newScanCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <file>...",
		Short: "List the libraries each binary imports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.newHost(cmd.Context())
			if err != nil {
				return err
			}

			t := newTable("Module", "Dependencies")
			failed := 0
			for _, path := range args {
				d, err := descriptor.New(cmd.Context(), path, h.Runtime.Scanner)
				if err != nil {
					if errors.Is(err, descriptor.ErrFileNotFound) {
						return issue.NewErrorContext().
							WithOperation("scan module").
							WithResource(path).
							WithIssue(issue.ModuleNotFoundId).
							WithSuggestion("Check the path for typos").
							Wrap(err).
							BuildError()
					}
					return err
				}
				if !d.HasDependencies() {
					failed++
					t.Row(ModuleStyle.Render(d.Name()), WarningStyle.Render("scan failed: "+d.ScanError()))
					continue
				}
				t.Row(ModuleStyle.Render(d.Name()), joinOrDash(d.Dependencies()))
			}
			fmt.Fprintln(app.stdout, t.Render())

			if failed > 0 {
				return &ExitError{Code: types.ExitFailure}
			}
			return nil
		},
	}
}
