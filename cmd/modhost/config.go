// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modhost/modhost/internal/config"
)

// newConfigCommand creates the `modhost config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage modhost configuration",
		Long: `Manage modhost configuration.

Configuration is stored in:
  - Linux: ~/.config/modhost/config.cue
  - macOS: ~/Library/Application Support/modhost/config.cue
  - Windows: %APPDATA%\modhost\config.cue

Every key can be overridden from the environment, e.g. MODHOST_SCAN_RECURSIVE=true.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			path, err := config.FilePath()
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "Config directory: %s\n", dir)
			fmt.Fprintf(app.stdout, "Config file: %s\n", path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}

	out := app.stdout
	key := ModuleStyle.Render
	val := SuccessStyle.Render
	none := SubtitleStyle.Render("(unset)")
	show := func(s string) string {
		if s == "" {
			return none
		}
		return val(s)
	}

	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)
	source := app.flags.configFile
	if source == "" {
		source = SubtitleStyle.Render("(default lookup)")
	}
	fmt.Fprintf(out, "%s: %s\n\n", key("Config file"), source)

	fmt.Fprintf(out, "%s: %s\n\n", key("application_id"), show(cfg.ApplicationID))

	fmt.Fprintf(out, "%s:\n", key("paths"))
	for _, f := range []struct{ name, value string }{
		{"root_load_path", cfg.Paths.RootLoadPath},
		{"files_dir", cfg.Paths.FilesDir},
		{"external_dir", cfg.Paths.ExternalDir},
		{"source_path", cfg.Paths.SourcePath},
		{"libil2cpp_path", cfg.Paths.Libil2cppPath},
		{"libraries_dir", cfg.Paths.LibrariesDir},
		{"mods_dir", cfg.Paths.ModsDir},
	} {
		fmt.Fprintf(out, "  %s: %s\n", f.name, show(f.value))
	}

	fmt.Fprintf(out, "\n%s:\n", key("scan"))
	fmt.Fprintf(out, "  pattern: %s\n", show(cfg.Scan.Pattern))
	fmt.Fprintf(out, "  recursive: %s\n", val(fmt.Sprintf("%v", cfg.Scan.Recursive)))
	fmt.Fprintf(out, "  extra_system_libraries: %s\n", show(strings.Join(cfg.Scan.ExtraSystemLibraries, ", ")))

	fmt.Fprintf(out, "\n%s:\n", key("log"))
	fmt.Fprintf(out, "  level: %s\n", show(cfg.Log.Level.String()))
	fmt.Fprintf(out, "  prefix: %s\n", show(cfg.Log.Prefix))
	return nil
}
