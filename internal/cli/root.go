// Package cli wires the chromepack command tree.
//
// The [App] struct carries the configuration and every step implementation
// behind small interfaces, so tests swap in mocks without touching the
// command definitions. [Execute] is the entry point used by main.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chromepack/internal/config"
	"chromepack/internal/export"
	"chromepack/internal/fetch"
	"chromepack/internal/output"
	"chromepack/internal/pgo"
	"chromepack/internal/pipeline"
	"chromepack/internal/release"
	"chromepack/internal/rules"
	"chromepack/internal/stamp"
	"chromepack/internal/state"
	"chromepack/internal/toolchain"
)

// Fetcher syncs the checkout at a tag.
type Fetcher interface {
	Fetch(ctx context.Context, tag string) error
}

// Stamper runs the metadata-stamping scripts in the checkout.
type Stamper interface {
	Stamp(ctx context.Context) error
}

// ProfileDownloader downloads the PGO profile, returning its path.
type ProfileDownloader interface {
	Download(ctx context.Context) (string, error)
}

// Exporter produces the two release tarballs, returning their paths.
type Exporter interface {
	ExportSource(ctx context.Context, srcDir, tag string) (string, error)
	ExportTestData(ctx context.Context, srcDir, tag string) (string, error)
}

// Publisher attaches the tarballs to the release for a tag.
type Publisher interface {
	Publish(ctx context.Context, tag string, assetPaths []string) error
}

// App carries the wired dependencies for the command tree.
type App struct {
	Config      *config.Config
	Printer     *output.Printer
	Fetcher     Fetcher
	Stamper     Stamper
	PGO         ProfileDownloader
	Exporter    Exporter
	Publisher   Publisher
	StateReader *state.Reader
	StateWriter pipeline.StateWriter
}

// NewApp builds the production [App] from configuration.
func NewApp(cfg *config.Config) (*App, error) {
	printer := output.NewPrinter()
	executor := toolchain.NewCommandExecutor()
	sink := toolchain.LineSink(printer.ToolLine)

	ruleSet, err := rules.Load(cfg.Export.RulesManifest)
	if err != nil {
		return nil, err
	}

	exportCfg := cfg.Export
	if exportCfg.OutputDir == "" {
		exportCfg.OutputDir = cfg.Source.WorkDir
	}
	exporter := export.NewExporter(exportCfg, ruleSet)
	exporter.Notice = printer.Info

	return &App{
		Config:   cfg,
		Printer:  printer,
		Fetcher:  fetch.NewFetcher(cfg.Source, executor, sink),
		Stamper:  stamp.NewStamper(cfg.Stamp, cfg.Source.SrcDir(), executor, sink),
		PGO:      pgo.NewDownloader(cfg.PGO, cfg.Source.SrcDir()),
		Exporter: exporter,
		Publisher: release.NewPublisher(release.Info{
			Owner:           cfg.Release.Owner,
			Repo:            cfg.Release.Repo,
			TargetCommitish: cfg.Release.TargetCommitish,
			Draft:           cfg.Release.Draft,
		}, os.Getenv(cfg.Release.TokenEnv)),
		StateReader: state.NewReader(cfg.Source.WorkDir),
		StateWriter: state.NewWriter(cfg.Source.WorkDir),
	}, nil
}

// NewRootCommand builds the chromepack command tree.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "chromepack",
		Short: "Package and publish Chromium source releases",
		Long: `chromepack fetches a tagged Chromium revision, stamps the metadata a
tarball build needs, optionally downloads the PGO profile, exports the
source and testdata tarballs, and publishes both to a release.`,
		SilenceErrors: true,
	}

	root.AddCommand(
		newFetchCommand(app),
		newStampCommand(app),
		newPGOCommand(app),
		newExportCommand(app),
		newPublishCommand(app),
		newRunCommand(app),
		newStatusCommand(app),
	)
	return root
}

// ExecuteResult carries the outcome of a CLI invocation.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// RunWithConfig builds the app and runs the command tree with the given
// arguments. It never calls os.Exit, making full-invocation tests possible.
func RunWithConfig(cfg *config.Config, args []string) ExecuteResult {
	app, err := NewApp(cfg)
	if err != nil {
		return ExecuteResult{ExitCode: 1, Err: err}
	}

	root := NewRootCommand(app)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	return ExecuteResult{}
}

// Execute loads configuration, runs the CLI, and exits the process.
func Execute() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	result := RunWithConfig(cfg, os.Args[1:])
	if result.Err != nil {
		if _, ok := IsExitError(result.Err); !ok {
			fmt.Fprintln(os.Stderr, "Error:", result.Err)
		}
	}
	os.Exit(result.ExitCode)
}
