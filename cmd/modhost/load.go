// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/modhost/modhost/internal/host"
	"github.com/modhost/modhost/internal/issue"
	"github.com/modhost/modhost/internal/report"
	"github.com/modhost/modhost/pkg/types"
)

// newLoadCommand creates `modhost load [dir]`.
func newLoadCommand(app *App) *cobra.Command {
	var (
		flags      dirFlags
		reportPath string
	)
	cmd := &cobra.Command{
		Use:   "load [dir]",
		Short: "Load modules and run their entry points",
		Long: `Load modules into this process and run their entry points.

Without a directory, every lifecycle phase runs against the configured
paths: libraries_dir is opened, then mods_dir is opened and each mod's
setup runs, then load and late_load are called on every mod.

With a directory, only that directory is loaded as mods before load and
late_load run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := app.newHost(ctx)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				h.Start(ctx)
			} else {
				pattern := flags.pattern
				if pattern == "" {
					pattern = h.Config.Scan.Pattern
				}
				h.Loader.LoadAll(ctx, args[0], pattern, flags.recursive || h.Config.Scan.Recursive)
				h.Loader.LoadMods()
				h.Loader.LateLoadMods()
			}

			renderRegistry(app, h)

			if reportPath != "" {
				snap := report.Build(h.Registry, runtime.GOOS+"/"+runtime.GOARCH, app.now())
				if err := report.WriteFile(reportPath, snap); err != nil {
					return err
				}
				fmt.Fprintf(app.stdout, "%s Report written to %s\n", SuccessStyle.Render("✓"), reportPath)
			}

			if stats := h.Registry.Stats(); stats.Failed > 0 {
				return &ExitError{
					Code: types.ExitFailure,
					Err: issue.NewErrorContext().
						WithOperation("load modules").
						WithIssue(issue.ModuleLoadFailedId).
						WithSuggestion("Run 'modhost validate' to look for missing dependencies").
						Wrap(fmt.Errorf("%d of %d module(s) failed to load", stats.Failed, stats.Failed+stats.Loaded)).
						BuildError(),
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&reportPath, "report", "", "write a TOML snapshot of the registry to this file")
	return cmd
}

func renderRegistry(app *App, h *host.Host) {
	t := newTable("Module", "Kind", "Status", "ID", "Version", "Instance")
	for _, m := range h.Registry.Records() {
		status := SuccessStyle.Render("loaded")
		if !m.Succeeded() {
			status = ErrorStyle.Render("failed: " + m.Err)
		}
		version := m.VersionString()
		if version == "" {
			version = "-"
		}
		t.Row(ModuleStyle.Render(m.Name()), m.Kind.String(), status, m.ID, version, m.InstanceID.String()[:8])
	}
	stats := h.Registry.Stats()
	fmt.Fprintln(app.stdout, t.Render())
	fmt.Fprintf(app.stdout, "%s loaded, %s failed, phase %s\n",
		SuccessStyle.Render(fmt.Sprint(stats.Loaded)),
		ErrorStyle.Render(fmt.Sprint(stats.Failed)),
		h.Registry.Phase())
}

