package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chromepack/internal/state"
	"chromepack/internal/toolchain"
)

func TestRunCommand_FullPipeline(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run("run", "140.0.7339.80")
	require.NoError(t, err)

	assert.Equal(t, []string{"140.0.7339.80"}, ta.fetcher.tags)
	assert.Equal(t, 1, ta.stamper.calls)
	assert.Equal(t, 1, ta.pgo.calls)
	assert.Equal(t, []string{"140.0.7339.80"}, ta.exporter.sourceTags)
	assert.Equal(t, []string{"140.0.7339.80"}, ta.exporter.testdataTags)
	assert.Equal(t, []string{"140.0.7339.80"}, ta.publisher.tags)

	assert.Equal(t, state.StagePublished, ta.stage(t, "140.0.7339.80"))

	out := ta.out.String()
	assert.Contains(t, out, "Release pipeline: 140.0.7339.80")
	assert.Contains(t, out, "[1/5] fetch")
	assert.Contains(t, out, "[5/5] publish")
	assert.Contains(t, out, "PIPELINE COMPLETE")
}

func TestRunCommand_SkipPGO(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run("run", "--skip-pgo", "140.0.7339.80")
	require.NoError(t, err)

	assert.Zero(t, ta.pgo.calls)
	assert.Equal(t, state.StagePublished, ta.stage(t, "140.0.7339.80"))
	assert.Contains(t, ta.out.String(), "Steps: fetch → stamp → export → publish")
}

func TestRunCommand_ResumesFromRecordedStage(t *testing.T) {
	ta := newTestApp(t)
	ta.setStage(t, "140.0.7339.80", state.StageStamped)

	err := ta.run("run", "140.0.7339.80")
	require.NoError(t, err)

	// Fetch and stamp already ran in a previous invocation.
	assert.Empty(t, ta.fetcher.tags)
	assert.Zero(t, ta.stamper.calls)
	assert.Equal(t, 1, ta.pgo.calls)
	assert.Equal(t, []string{"140.0.7339.80"}, ta.publisher.tags)
	assert.Equal(t, state.StagePublished, ta.stage(t, "140.0.7339.80"))
}

func TestRunCommand_AlreadyPublished(t *testing.T) {
	ta := newTestApp(t)
	ta.setStage(t, "140.0.7339.80", state.StagePublished)

	err := ta.run("run", "140.0.7339.80")
	require.NoError(t, err)

	assert.Empty(t, ta.fetcher.tags)
	assert.Empty(t, ta.publisher.tags)
	assert.Contains(t, ta.out.String(), "already published")
}

func TestRunCommand_FailurePreservesProgress(t *testing.T) {
	ta := newTestApp(t)
	ta.stamper.err = &toolchain.ExitError{
		Invocation: toolchain.Invocation{Command: "python3"},
		Code:       2,
	}

	err := ta.run("run", "140.0.7339.80")
	require.Error(t, err)

	// The subprocess exit code passes through to the shell.
	code, ok := IsExitError(err)
	require.True(t, ok)
	assert.Equal(t, 2, code)

	// Nothing past the failed step ran, and the recorded stage lets the
	// next run resume at stamp.
	assert.Zero(t, ta.pgo.calls)
	assert.Empty(t, ta.publisher.tags)
	assert.Equal(t, state.StageFetched, ta.stage(t, "140.0.7339.80"))
	assert.Contains(t, ta.out.String(), "PIPELINE FAILED")
}

func TestRunCommand_InvalidTag(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run("run", "refs/tags/oops")
	require.Error(t, err)

	code, ok := IsExitError(err)
	require.True(t, ok)
	assert.Equal(t, 1, code)
	assert.Empty(t, ta.fetcher.tags)
}

func TestRunCommand_PublishReceivesBothTarballs(t *testing.T) {
	ta := newTestApp(t)
	ta.app.Config.Export.OutputDir = "/releases"

	err := ta.run("run", "140.0.7339.80")
	require.NoError(t, err)

	require.Len(t, ta.publisher.assets, 1)
	assert.Equal(t, []string{
		"/releases/chromium-140.0.7339.80.tar.xz",
		"/releases/chromium-140.0.7339.80-testdata.tar.xz",
	}, ta.publisher.assets[0])
}
