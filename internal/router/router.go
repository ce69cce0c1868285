// Package router maps a tag's pipeline stage to its remaining steps.
//
// The router holds the ordered step chain (fetch -> stamp -> pgo -> export
// -> publish by default) and decides, from the stage a tag has reached,
// which steps the run command still needs to execute.
//
// Key types:
//   - [Router] - configurable step router
//   - [Step] - a single step with the stage reached on success
package router

import (
	"errors"
	"fmt"

	"chromepack/internal/state"
)

// Sentinel errors for stage routing.
var (
	// ErrAlreadyPublished indicates the tag has already reached the
	// published stage and no steps remain. Callers should report this as
	// informational, not as a failure.
	ErrAlreadyPublished = errors.New("tag is already published, no steps remaining")

	// ErrUnknownStage indicates a stage value with no routing entry. This
	// points at a corrupted or hand-edited state file.
	ErrUnknownStage = errors.New("unknown stage value")
)

// StepPGO is the name of the conditional PGO download step, which
// [Router.Remaining] elides when profile download is disabled.
const StepPGO = "pgo"

// Step is a single pipeline step with its resulting stage.
type Step struct {
	// Name is the step name, matching the pipeline config entries.
	Name string

	// NextStage is the stage recorded after the step succeeds.
	NextStage state.Stage
}

// stageAfter maps each step name to the stage it establishes.
var stageAfter = map[string]state.Stage{
	"fetch":   state.StageFetched,
	"stamp":   state.StageStamped,
	StepPGO:   state.StageProfiled,
	"export":  state.StagePackaged,
	"publish": state.StagePublished,
}

// stageRank orders stages by pipeline progress. A step is still pending for
// a tag when the stage it establishes ranks above the tag's current stage.
var stageRank = map[state.Stage]int{
	state.StagePending:   0,
	state.StageFetched:   1,
	state.StageStamped:   2,
	state.StageProfiled:  3,
	state.StagePackaged:  4,
	state.StagePublished: 5,
}

// Router routes pipeline stages to remaining steps.
//
// Create with [NewRouter] for the default chain, or [NewRouterFromSteps]
// to honor a custom pipeline.steps configuration.
type Router struct {
	// chain is the ordered step chain for full pipeline execution.
	chain []Step
}

// NewRouter creates a [Router] with the default step chain:
// fetch -> stamp -> pgo -> export -> publish.
func NewRouter() *Router {
	r, err := NewRouterFromSteps([]string{"fetch", "stamp", StepPGO, "export", "publish"})
	if err != nil {
		// The default chain is known-good.
		panic(err)
	}
	return r
}

// NewRouterFromSteps creates a [Router] from an ordered list of step names,
// typically the pipeline.steps config value. Unknown step names are an
// error, as they would leave the tag stage untrackable.
func NewRouterFromSteps(steps []string) (*Router, error) {
	r := &Router{}
	for _, name := range steps {
		next, ok := stageAfter[name]
		if !ok {
			return nil, fmt.Errorf("unknown pipeline step: %s", name)
		}
		r.chain = append(r.chain, Step{Name: name, NextStage: next})
	}
	return r, nil
}

// Remaining returns the steps left for a tag at the given stage.
//
// A step remains when the stage it establishes ranks above the tag's
// current stage, so a tag resumes exactly where its last successful step
// left off. When includePGO is false the [StepPGO] step is elided; the
// chain otherwise proceeds unchanged, so a skipped profile download moves
// a tag directly from stamped to packaged.
//
// Returns [ErrAlreadyPublished] for published tags and [ErrUnknownStage]
// for stages with no routing entry.
func (r *Router) Remaining(stage state.Stage, includePGO bool) ([]Step, error) {
	if stage == state.StagePublished {
		return nil, ErrAlreadyPublished
	}

	rank, ok := stageRank[stage]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}

	var steps []Step
	for _, step := range r.chain {
		if stageRank[step.NextStage] <= rank {
			continue
		}
		if step.Name == StepPGO && !includePGO {
			continue
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// StageFor returns the stage a step establishes on success.
// ok is false for unknown step names.
func StageFor(step string) (stage state.Stage, ok bool) {
	stage, ok = stageAfter[step]
	return stage, ok
}
