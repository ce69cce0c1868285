package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"chromepack/internal/export"
	"chromepack/internal/fetch"
	"chromepack/internal/router"
	"chromepack/internal/toolchain"
)

// stepRunner adapts the App's step implementations to pipeline.StepRunner.
type stepRunner struct {
	app *App
}

func (r *stepRunner) RunStep(ctx context.Context, stepName, tag string) error {
	app := r.app
	switch stepName {
	case "fetch":
		return app.Fetcher.Fetch(ctx, tag)

	case "stamp":
		return app.Stamper.Stamp(ctx)

	case router.StepPGO:
		path, err := app.PGO.Download(ctx)
		if err != nil {
			return err
		}
		app.Printer.Info("PGO profile at " + path)
		return nil

	case "export":
		srcDir := app.Config.Source.SrcDir()
		src, err := app.Exporter.ExportSource(ctx, srcDir, tag)
		if err != nil {
			return err
		}
		app.Printer.Info("wrote " + src)
		testdata, err := app.Exporter.ExportTestData(ctx, srcDir, tag)
		if err != nil {
			return err
		}
		app.Printer.Info("wrote " + testdata)
		return nil

	case "publish":
		return app.Publisher.Publish(ctx, tag, app.assetPaths(tag))
	}
	return fmt.Errorf("unknown step: %s", stepName)
}

// assetPaths returns the deterministic tarball paths for a tag, so publish
// can run without the export step in the same process.
func (a *App) assetPaths(tag string) []string {
	dir := a.Config.Export.OutputDir
	if dir == "" {
		dir = a.Config.Source.WorkDir
	}
	return []string{
		filepath.Join(dir, export.ArchiveName(a.Config.Export.Prefix, tag)),
		filepath.Join(dir, export.TestDataArchiveName(a.Config.Export.Prefix, tag)),
	}
}

// exitCodeFor maps a step error to a shell exit code, passing through the
// exit code of a failed external tool.
func exitCodeFor(err error) int {
	var toolErr *toolchain.ExitError
	if errors.As(err, &toolErr) && toolErr.Code != 0 {
		return toolErr.Code
	}
	return 1
}

// newStepCommand builds a single-step command: validate the tag, run the
// step, record the stage it establishes.
func newStepCommand(app *App, stepName, short, long string) *cobra.Command {
	return &cobra.Command{
		Use:   stepName + " <tag>",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			tag := args[0]
			if err := fetch.ValidateTag(tag); err != nil {
				app.Printer.Failure(err.Error())
				return NewExitError(1)
			}

			runner := &stepRunner{app: app}
			if err := runner.RunStep(cmd.Context(), stepName, tag); err != nil {
				app.Printer.Failure(fmt.Sprintf("%s failed: %v", stepName, err))
				return NewExitError(exitCodeFor(err))
			}

			if stage, ok := router.StageFor(stepName); ok {
				if err := app.StateWriter.UpdateStage(tag, stage); err != nil {
					app.Printer.Failure(err.Error())
					return NewExitError(1)
				}
			}

			app.Printer.Success(stepName + " complete")
			return nil
		},
	}
}

func newFetchCommand(app *App) *cobra.Command {
	return newStepCommand(app, "fetch",
		"Fetch the source tree at a tag",
		`Write the .gclient solutions file and sync the checkout at
refs/tags/<tag> via depot_tools, then run hooks.`)
}

func newStampCommand(app *App) *cobra.Command {
	return newStepCommand(app, "stamp",
		"Run the metadata-stamping scripts",
		`Run the configured stamping scripts inside the checkout: LASTCHANGE,
the GPU lists version header, and the Skia commit hash header.`)
}

func newPGOCommand(app *App) *cobra.Command {
	return newStepCommand(app, "pgo",
		"Download the PGO profile",
		`Download the profile named by chrome/build/<target>.pgo.txt from the
public profile bucket into the checkout.`)
}

func newExportCommand(app *App) *cobra.Command {
	return newStepCommand(app, "export",
		"Export the source and testdata tarballs",
		`Export <prefix>-<tag>.tar.xz (sources, nonessential files removed)
and <prefix>-<tag>-testdata.tar.xz (test data only).`)
}

func newPublishCommand(app *App) *cobra.Command {
	return newStepCommand(app, "publish",
		"Publish both tarballs to the release",
		`Create or update the release for <tag> and upload both tarballs,
replacing same-named assets from a previous run.`)
}
