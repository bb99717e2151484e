// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the modhost command tree.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "modhost",
		Short: "Native module loader",
		Long: TitleStyle.Render("modhost") + SubtitleStyle.Render(" - Native module loader") + `

modhost discovers shared libraries in a directory, orders them so that
every library is loaded after the libraries it imports, opens them with
the platform loader and drives their setup, load and late_load entry
points.

` + SubtitleStyle.Render("Examples:") + `
  modhost scan ./mods/libcore.so    List what a binary imports
  modhost order ./mods              Show the computed load order
  modhost validate ./mods           Report missing dependencies and cycles
  modhost load --report run.toml    Run every lifecycle phase
  modhost config show               Show current configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output and debug logging")
	pf.StringVar(&app.flags.configFile, "config", "", "config file (default is the platform config dir/modhost/config.cue)")
	pf.StringVar(&app.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newScanCommand(app),
		newOrderCommand(app),
		newValidateCommand(app),
		newLoadCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with the command's status.
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(_ io.Writer, _ fang.Styles, err error) {
			var exitErr *ExitError
			if errors.As(err, &exitErr) && exitErr.Err == nil {
				return
			}
			app.renderError(err)
		}),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}
