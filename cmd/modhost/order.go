// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modhost/modhost/internal/descriptor"
	"github.com/modhost/modhost/internal/discovery"
	"github.com/modhost/modhost/internal/host"
	"github.com/modhost/modhost/internal/issue"
)

type dirFlags struct {
	pattern   string
	recursive bool
}

func (f *dirFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.pattern, "pattern", "", "file name glob (default from config, else the platform extension)")
	cmd.Flags().BoolVarP(&f.recursive, "recursive", "r", false, "descend into subdirectories")
}

// describe scans the module directory named by args, or the configured mods
// directory when none is given.
func (f *dirFlags) describe(ctx context.Context, h *host.Host, args []string) (string, []*descriptor.Descriptor, error) {
	dir, err := dirOrDefault(args, h.Config.Paths.ModsDir)
	if err != nil {
		return "", nil, err
	}
	pattern := f.pattern
	if pattern == "" {
		pattern = h.Config.Scan.Pattern
	}
	descs, err := h.Loader.Describe(ctx, dir, pattern, f.recursive || h.Config.Scan.Recursive)
	if err != nil {
		if errors.Is(err, discovery.ErrDirNotFound) {
			return "", nil, issue.NewErrorContext().
				WithOperation("scan module directory").
				WithResource(dir).
				WithIssue(issue.DirectoryNotFoundId).
				WithSuggestion("Pass an existing directory or set paths.mods_dir").
				Wrap(err).
				BuildError()
		}
		return "", nil, err
	}
	return dir, descs, nil
}

// newOrderCommand creates `modhost order [dir]`.
func newOrderCommand(app *App) *cobra.Command {
	var flags dirFlags
	cmd := &cobra.Command{
		Use:   "order [dir]",
		Short: "Show the order modules would be loaded in",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.newHost(cmd.Context())
			if err != nil {
				return err
			}
			dir, descs, err := flags.describe(cmd.Context(), h, args)
			if err != nil {
				return err
			}

			plan := h.Sorter.Resolve(descs)
			fmt.Fprintf(app.stdout, "%s %s\n", TitleStyle.Render("Load order for"), dir)
			t := newTable("#", "Module", "Dependencies")
			for i, d := range plan.Order {
				t.Row(fmt.Sprintf("%d", i+1), ModuleStyle.Render(d.Name()), joinOrDash(d.Dependencies()))
			}
			fmt.Fprintln(app.stdout, t.Render())

			if plan.Cyclic() {
				names := make([]string, len(plan.Unresolved))
				for i, d := range plan.Unresolved {
					names[i] = d.Name()
				}
				fmt.Fprintf(app.stdout, "%s %s\n", WarningStyle.Render("Cycle: loaded last in directory order:"), joinOrDash(names))
				if app.flags.verbose {
					app.renderIssue(issue.Get(issue.DependencyCycleId))
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
