package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chromepack/internal/router"
	"chromepack/internal/state"
)

// mockRunner records executed steps and can fail on a named step.
type mockRunner struct {
	executed []string
	failOn   string
}

func (m *mockRunner) RunStep(ctx context.Context, stepName, tag string) error {
	m.executed = append(m.executed, stepName)
	if m.failOn == stepName {
		return fmt.Errorf("boom")
	}
	return nil
}

// mockState implements StateReader and StateWriter in memory.
type mockState struct {
	stages  map[string]state.Stage
	updates []state.Stage
	readErr error
}

func newMockState() *mockState {
	return &mockState{stages: map[string]state.Stage{}}
}

func (m *mockState) GetStage(tag string) (state.Stage, error) {
	if m.readErr != nil {
		return "", m.readErr
	}
	if s, ok := m.stages[tag]; ok {
		return s, nil
	}
	return state.StagePending, nil
}

func (m *mockState) UpdateStage(tag string, stage state.Stage) error {
	m.stages[tag] = stage
	m.updates = append(m.updates, stage)
	return nil
}

func TestExecutor_RunsAllSteps(t *testing.T) {
	runner := &mockRunner{}
	st := newMockState()
	exec := NewExecutor(runner, st, st)

	var progress []string
	exec.SetProgressCallback(func(i, n int, name string) {
		progress = append(progress, fmt.Sprintf("%d/%d %s", i, n, name))
	})

	err := exec.Execute(context.Background(), "140.0.7339.80")
	require.NoError(t, err)

	assert.Equal(t, []string{"fetch", "stamp", "pgo", "export", "publish"}, runner.executed)
	assert.Equal(t, []state.Stage{
		state.StageFetched,
		state.StageStamped,
		state.StageProfiled,
		state.StagePackaged,
		state.StagePublished,
	}, st.updates)
	assert.Equal(t, []string{
		"1/5 fetch", "2/5 stamp", "3/5 pgo", "4/5 export", "5/5 publish",
	}, progress)
}

func TestExecutor_ResumesFromRecordedStage(t *testing.T) {
	runner := &mockRunner{}
	st := newMockState()
	st.stages["140.0.7339.80"] = state.StageStamped

	exec := NewExecutor(runner, st, st)
	err := exec.Execute(context.Background(), "140.0.7339.80")
	require.NoError(t, err)

	assert.Equal(t, []string{"pgo", "export", "publish"}, runner.executed)
}

func TestExecutor_SkipPGO(t *testing.T) {
	runner := &mockRunner{}
	st := newMockState()

	exec := NewExecutor(runner, st, st)
	exec.SetIncludePGO(false)

	err := exec.Execute(context.Background(), "140.0.7339.80")
	require.NoError(t, err)

	assert.Equal(t, []string{"fetch", "stamp", "export", "publish"}, runner.executed)
	assert.NotContains(t, st.updates, state.StageProfiled)
}

func TestExecutor_FailFast(t *testing.T) {
	runner := &mockRunner{failOn: "stamp"}
	st := newMockState()

	exec := NewExecutor(runner, st, st)
	err := exec.Execute(context.Background(), "140.0.7339.80")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stamp")

	// The failed step executed but nothing after it did, and the stage
	// reflects the last successful step.
	assert.Equal(t, []string{"fetch", "stamp"}, runner.executed)
	assert.Equal(t, []state.Stage{state.StageFetched}, st.updates)
}

func TestExecutor_AlreadyPublished(t *testing.T) {
	runner := &mockRunner{}
	st := newMockState()
	st.stages["139.0.7258.1"] = state.StagePublished

	exec := NewExecutor(runner, st, st)
	err := exec.Execute(context.Background(), "139.0.7258.1")
	assert.ErrorIs(t, err, router.ErrAlreadyPublished)
	assert.Empty(t, runner.executed)
}

func TestExecutor_StateReadError(t *testing.T) {
	runner := &mockRunner{}
	st := newMockState()
	st.readErr = errors.New("corrupt state")

	exec := NewExecutor(runner, st, st)
	err := exec.Execute(context.Background(), "140.0.7339.80")
	assert.ErrorContains(t, err, "corrupt state")
	assert.Empty(t, runner.executed)
}

func TestExecutor_GetSteps(t *testing.T) {
	st := newMockState()
	st.stages["140.0.7339.80"] = state.StageProfiled

	exec := NewExecutor(&mockRunner{}, st, st)
	steps, err := exec.GetSteps("140.0.7339.80")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "export", steps[0].Name)
	assert.Equal(t, "publish", steps[1].Name)
}
