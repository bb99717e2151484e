// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/modhost/modhost/internal/config"
	"github.com/modhost/modhost/internal/host"
	"github.com/modhost/modhost/internal/issue"
	"github.com/modhost/modhost/internal/loader"
	"github.com/modhost/modhost/internal/native"
	"github.com/modhost/modhost/pkg/types"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// RuntimeFactory returns the native capabilities used to scan and load.
	RuntimeFactory func() (host.Runtime, error)

	// App wires CLI services and shared dependencies. All command
	// constructors receive an App reference.
	App struct {
		Config  ConfigProvider
		Runtime RuntimeFactory
		stdout  io.Writer
		stderr  io.Writer
		now     func() time.Time

		// loaderOptions are appended to every loader the App builds.
		loaderOptions []loader.Option

		flags globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config        ConfigProvider
		Runtime       RuntimeFactory
		Stdout        io.Writer
		Stderr        io.Writer
		Now           func() time.Time
		LoaderOptions []loader.Option
	}

	globalFlags struct {
		verbose    bool
		configFile string
		logLevel   string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Runtime == nil {
		deps.Runtime = host.NativeRuntime
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &App{
		Config:        deps.Config,
		Runtime:       deps.Runtime,
		stdout:        deps.Stdout,
		stderr:        deps.Stderr,
		now:           deps.Now,
		loaderOptions: deps.LoaderOptions,
	}
}

// loadConfig loads configuration honoring --config and --log-level.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: types.FilesystemPath(a.flags.configFile)})
	if err != nil {
		return nil, err
	}
	switch {
	case a.flags.logLevel != "":
		level := config.LogLevel(a.flags.logLevel)
		if err := level.Validate(); err != nil {
			return nil, err
		}
		cfg.Log.Level = level
	case a.flags.verbose:
		cfg.Log.Level = config.LogLevelDebug
	}
	return cfg, nil
}

// newHost loads configuration and assembles a loader for one command.
func (a *App) newHost(ctx context.Context) (*host.Host, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	rt, err := a.Runtime()
	if err != nil {
		if errors.Is(err, native.ErrUnsupportedPlatform) {
			return nil, issue.NewErrorContext().
				WithOperation("select native loader").
				WithIssue(issue.UnsupportedPlatformId).
				WithSuggestion("Run modhost on Linux, Android, Windows or macOS").
				Wrap(err).
				BuildError()
		}
		return nil, err
	}

	self, _ := os.Executable()
	return host.New(cfg, host.Options{
		Runtime:       &rt,
		LogOutput:     a.stderr,
		ModloaderPath: self,
		LoaderOptions: a.loaderOptions,
	})
}

// dirOrDefault returns args[0] or the configured fallback.
func dirOrDefault(args []string, fallback string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if fallback == "" {
		return "", errors.New("no directory given and none configured")
	}
	return fallback, nil
}

// renderError prints err for the user. Actionable errors linked to a
// catalog page also render that page in verbose mode.
func (a *App) renderError(err error) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+err.Error())
		return
	}
	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+ae.Format(a.flags.verbose))
	if page := ae.Page(); page != nil && a.flags.verbose {
		a.renderIssue(page)
	}
}

func (a *App) renderIssue(page *issue.Issue) {
	rendered, err := page.Render("dark")
	if err != nil {
		fmt.Fprintln(a.stderr, string(page.MarkdownMsg()))
		return
	}
	fmt.Fprint(a.stderr, rendered)
}
