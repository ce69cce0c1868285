// Package pipeline orchestrates full pipeline execution for a tag.
//
// The pipeline package provides [Executor], which runs a tag through its
// remaining steps (fetch -> stamp -> pgo -> export -> publish) based on the
// stage recorded in the state file. Each step advances the recorded stage
// after successful completion.
//
// Key concepts:
//   - Remaining steps are determined by [router.Router.Remaining]
//   - Each step runs via [StepRunner] then advances the stage via [StateWriter]
//   - Progress can be reported via [ProgressCallback]
package pipeline

import (
	"context"
	"fmt"

	"chromepack/internal/router"
	"chromepack/internal/state"
)

// StepRunner is the interface for executing individual pipeline steps.
//
// RunStep executes the named step for a tag. A nil return indicates
// success; any error aborts the pipeline. The cli package provides the
// production implementation wiring step names to the fetch, stamp, pgo,
// export and release packages.
type StepRunner interface {
	RunStep(ctx context.Context, stepName, tag string) error
}

// StateReader is the interface for looking up a tag's recorded stage.
type StateReader interface {
	GetStage(tag string) (state.Stage, error)
}

// StateWriter is the interface for persisting stage updates.
//
// UpdateStage records the new [state.Stage] after a successful step.
type StateWriter interface {
	UpdateStage(tag string, stage state.Stage) error
}

// ProgressCallback is invoked before each step begins execution.
//
// The callback receives stepIndex (1-based), totalSteps count, and the step
// name. It is optional; set it via [Executor.SetProgressCallback].
type ProgressCallback func(stepIndex, totalSteps int, stepName string)

// Executor runs the remaining pipeline steps for a tag.
//
// Executor uses dependency injection for testability: [StepRunner] executes
// steps, [StateReader] looks up the current stage, and [StateWriter]
// persists stage updates. Use [NewExecutor] to create an instance and
// [Executor.Execute] to run the pipeline.
type Executor struct {
	runner     StepRunner
	stateRead  StateReader
	stateWrite StateWriter
	progress   ProgressCallback
	router     *router.Router
	includePGO bool
}

// NewExecutor creates a new Executor with the required dependencies.
//
// The default router chain is used and the PGO step is included; use
// [Executor.SetRouter] and [Executor.SetIncludePGO] to change either.
func NewExecutor(runner StepRunner, reader StateReader, writer StateWriter) *Executor {
	return &Executor{
		runner:     runner,
		stateRead:  reader,
		stateWrite: writer,
		router:     router.NewRouter(),
		includePGO: true,
	}
}

// SetRouter configures a custom [router.Router], typically built from the
// pipeline.steps config value via [router.NewRouterFromSteps].
func (e *Executor) SetRouter(r *router.Router) {
	if r != nil {
		e.router = r
	}
}

// SetIncludePGO controls whether the PGO download step executes.
// It defaults to true.
func (e *Executor) SetIncludePGO(include bool) {
	e.includePGO = include
}

// SetProgressCallback configures an optional progress callback, invoked
// with the 1-based step index, total step count, and step name before each
// step begins.
func (e *Executor) SetProgressCallback(cb ProgressCallback) {
	e.progress = cb
}

// Execute runs the remaining pipeline steps for a tag.
//
// Execute looks up the tag's recorded stage, determines the remaining steps
// via the router, and runs each step in sequence. After each successful
// step the recorded stage advances, so an interrupted pipeline resumes
// where it left off.
//
// Execute is fail-fast: it stops on the first error and returns
// immediately. For tags already published it returns
// [router.ErrAlreadyPublished].
func (e *Executor) Execute(ctx context.Context, tag string) error {
	stage, err := e.stateRead.GetStage(tag)
	if err != nil {
		return err
	}

	steps, err := e.router.Remaining(stage, e.includePGO)
	if err != nil {
		return err
	}

	totalSteps := len(steps)
	for i, step := range steps {
		if e.progress != nil {
			e.progress(i+1, totalSteps, step.Name)
		}

		if err := e.runner.RunStep(ctx, step.Name, tag); err != nil {
			return fmt.Errorf("step %s failed: %w", step.Name, err)
		}

		if err := e.stateWrite.UpdateStage(tag, step.NextStage); err != nil {
			return err
		}
	}

	return nil
}

// GetSteps returns the remaining steps for a tag without executing them.
//
// This provides dry-run preview functionality, showing which steps would
// run and what stage each would establish. For tags already published it
// returns [router.ErrAlreadyPublished].
func (e *Executor) GetSteps(tag string) ([]router.Step, error) {
	stage, err := e.stateRead.GetStage(tag)
	if err != nil {
		return nil, err
	}
	return e.router.Remaining(stage, e.includePGO)
}
