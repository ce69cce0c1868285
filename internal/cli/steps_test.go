package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chromepack/internal/state"
	"chromepack/internal/toolchain"
)

func TestFetchCommand_RecordsStage(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run("fetch", "140.0.7339.80")
	require.NoError(t, err)

	assert.Equal(t, []string{"140.0.7339.80"}, ta.fetcher.tags)
	assert.Equal(t, state.StageFetched, ta.stage(t, "140.0.7339.80"))
	assert.Contains(t, ta.out.String(), "fetch complete")
}

func TestStampCommand_RecordsStage(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run("stamp", "140.0.7339.80")
	require.NoError(t, err)

	assert.Equal(t, 1, ta.stamper.calls)
	assert.Equal(t, state.StageStamped, ta.stage(t, "140.0.7339.80"))
}

func TestPGOCommand_PrintsProfilePath(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run("pgo", "140.0.7339.80")
	require.NoError(t, err)

	assert.Equal(t, 1, ta.pgo.calls)
	assert.Equal(t, state.StageProfiled, ta.stage(t, "140.0.7339.80"))
	assert.Contains(t, ta.out.String(), "PGO profile at /profiles/chrome-linux.profdata")
}

func TestExportCommand_WritesBothTarballs(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run("export", "140.0.7339.80")
	require.NoError(t, err)

	assert.Equal(t, []string{"140.0.7339.80"}, ta.exporter.sourceTags)
	assert.Equal(t, []string{"140.0.7339.80"}, ta.exporter.testdataTags)
	assert.Equal(t, state.StagePackaged, ta.stage(t, "140.0.7339.80"))

	out := ta.out.String()
	assert.Contains(t, out, "wrote chromium-140.0.7339.80.tar.xz")
	assert.Contains(t, out, "wrote chromium-140.0.7339.80-testdata.tar.xz")
}

func TestPublishCommand_RecordsStage(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run("publish", "140.0.7339.80")
	require.NoError(t, err)

	assert.Equal(t, []string{"140.0.7339.80"}, ta.publisher.tags)
	assert.Equal(t, state.StagePublished, ta.stage(t, "140.0.7339.80"))
}

func TestStepCommand_InvalidTag(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run("fetch", ".bad tag")
	require.Error(t, err)

	code, ok := IsExitError(err)
	require.True(t, ok)
	assert.Equal(t, 1, code)
	assert.Empty(t, ta.fetcher.tags)
	assert.Equal(t, state.StagePending, ta.stage(t, ".bad tag"))
}

func TestStepCommand_FailureDoesNotRecordStage(t *testing.T) {
	ta := newTestApp(t)
	ta.fetcher.err = errors.New("network unreachable")

	err := ta.run("fetch", "140.0.7339.80")
	require.Error(t, err)

	code, ok := IsExitError(err)
	require.True(t, ok)
	assert.Equal(t, 1, code)
	assert.Equal(t, state.StagePending, ta.stage(t, "140.0.7339.80"))
	assert.Contains(t, ta.out.String(), "fetch failed")
}

func TestStepCommand_PassesThroughToolExitCode(t *testing.T) {
	ta := newTestApp(t)
	ta.fetcher.err = &toolchain.ExitError{
		Invocation: toolchain.Invocation{Command: "gclient"},
		Code:       42,
	}

	err := ta.run("fetch", "140.0.7339.80")
	require.Error(t, err)

	code, ok := IsExitError(err)
	require.True(t, ok)
	assert.Equal(t, 42, code)
}

func TestStatusCommand_SingleTag(t *testing.T) {
	ta := newTestApp(t)
	ta.setStage(t, "140.0.7339.80", state.StageStamped)

	err := ta.run("status", "140.0.7339.80")
	require.NoError(t, err)
	assert.Contains(t, ta.out.String(), "140.0.7339.80: stamped")
}

func TestStatusCommand_UnknownTagIsPending(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run("status", "141.0.7400.1")
	require.NoError(t, err)
	assert.Contains(t, ta.out.String(), "141.0.7400.1: pending")
}

func TestStatusCommand_AllTags(t *testing.T) {
	ta := newTestApp(t)
	ta.setStage(t, "139.0.7258.1", state.StagePublished)
	ta.setStage(t, "140.0.7339.80", state.StageFetched)

	err := ta.run("status")
	require.NoError(t, err)

	out := ta.out.String()
	assert.Contains(t, out, "139.0.7258.1")
	assert.Contains(t, out, "published")
	assert.Contains(t, out, "140.0.7339.80")
	assert.Contains(t, out, "fetched")
}

func TestStatusCommand_NoTags(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run("status")
	require.NoError(t, err)
	assert.Contains(t, ta.out.String(), "no tags recorded")
}

func TestIsExitError(t *testing.T) {
	code, ok := IsExitError(NewExitError(3))
	assert.True(t, ok)
	assert.Equal(t, 3, code)

	_, ok = IsExitError(errors.New("plain"))
	assert.False(t, ok)

	assert.Equal(t, "exit status 3", NewExitError(3).Error())
}
