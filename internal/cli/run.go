package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chromepack/internal/fetch"
	"chromepack/internal/output"
	"chromepack/internal/pipeline"
	"chromepack/internal/router"
)

// timedRunner wraps a StepRunner to record per-step durations for the
// final summary.
type timedRunner struct {
	inner   pipeline.StepRunner
	results []output.StepResult
}

func (t *timedRunner) RunStep(ctx context.Context, stepName, tag string) error {
	start := time.Now()
	err := t.inner.RunStep(ctx, stepName, tag)
	t.results = append(t.results, output.StepResult{
		Name:     stepName,
		Duration: time.Since(start),
		OK:       err == nil,
	})
	return err
}

func newRunCommand(app *App) *cobra.Command {
	var skipPGO bool

	cmd := &cobra.Command{
		Use:   "run <tag>",
		Short: "Run the full release pipeline for a tag",
		Long: `Run every remaining pipeline step for a tag:
  1. fetch   - sync the checkout at the tag
  2. stamp   - run the metadata-stamping scripts
  3. pgo     - download the PGO profile (skipped with --skip-pgo)
  4. export  - produce the source and testdata tarballs
  5. publish - create or update the release with both tarballs

Progress is recorded per tag, so an interrupted run resumes at the first
incomplete step instead of re-fetching the checkout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			tag := args[0]
			if err := fetch.ValidateTag(tag); err != nil {
				app.Printer.Failure(err.Error())
				return NewExitError(1)
			}

			timed := &timedRunner{inner: &stepRunner{app: app}}
			exec := pipeline.NewExecutor(timed, app.StateReader, app.StateWriter)
			exec.SetIncludePGO(!skipPGO)
			exec.SetProgressCallback(func(i, n int, name string) {
				app.Printer.StepHeader(i, n, name)
			})

			r, err := router.NewRouterFromSteps(app.Config.Pipeline.Steps)
			if err != nil {
				app.Printer.Failure(err.Error())
				return NewExitError(1)
			}
			exec.SetRouter(r)

			steps, err := exec.GetSteps(tag)
			if err == nil {
				names := make([]string, len(steps))
				for i, s := range steps {
					names[i] = s.Name
				}
				app.Printer.Banner("Release pipeline: "+tag,
					"Steps: "+strings.Join(names, " → "))
			}

			start := time.Now()
			err = exec.Execute(cmd.Context(), tag)
			if errors.Is(err, router.ErrAlreadyPublished) {
				app.Printer.Info(fmt.Sprintf("%s is already published; nothing to do", tag))
				return nil
			}

			if len(timed.results) > 0 {
				app.Printer.Summary(tag, timed.results, time.Since(start))
			}

			if err != nil {
				app.Printer.Failure(err.Error())
				return NewExitError(exitCodeFor(err))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPGO, "skip-pgo", false, "skip the PGO profile download")
	return cmd
}
