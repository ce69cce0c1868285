package stamp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chromepack/internal/config"
	"chromepack/internal/toolchain"
)

func TestStamper_RunsScriptsInOrder(t *testing.T) {
	cfg := config.DefaultConfig().Stamp
	mock := &toolchain.MockExecutor{}
	s := NewStamper(cfg, "/work/src", mock, nil)

	require.NoError(t, s.Stamp(context.Background()))
	require.Len(t, mock.Invocations, len(cfg.Scripts))

	for i, inv := range mock.Invocations {
		assert.Equal(t, "/work/src", inv.Dir)
		assert.Equal(t, "python3", inv.Command)
		assert.Equal(t, cfg.Scripts[i], inv.Args)
	}

	// The standard set stamps LASTCHANGE first.
	assert.Contains(t, mock.Invocations[0].Args[0], "lastchange.py")
}

func TestStamper_CustomPython(t *testing.T) {
	cfg := config.StampConfig{
		Python:  "/usr/local/bin/python3.12",
		Scripts: [][]string{{"build/util/lastchange.py", "-o", "build/util/LASTCHANGE"}},
	}
	mock := &toolchain.MockExecutor{}
	s := NewStamper(cfg, "/work/src", mock, nil)

	require.NoError(t, s.Stamp(context.Background()))
	require.Len(t, mock.Invocations, 1)
	assert.Equal(t, "/usr/local/bin/python3.12", mock.Invocations[0].Command)
}

func TestStamper_FailFast(t *testing.T) {
	cfg := config.DefaultConfig().Stamp
	mock := &toolchain.MockExecutor{FailOn: "python3"}
	s := NewStamper(cfg, "/work/src", mock, nil)

	err := s.Stamp(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stamping script")
	assert.Len(t, mock.Invocations, 1)
}

func TestStamper_SkipsEmptyScripts(t *testing.T) {
	cfg := config.StampConfig{Scripts: [][]string{{}, {"script.py"}}}
	mock := &toolchain.MockExecutor{}
	s := NewStamper(cfg, "/work/src", mock, nil)

	require.NoError(t, s.Stamp(context.Background()))
	require.Len(t, mock.Invocations, 1)
	assert.Equal(t, []string{"script.py"}, mock.Invocations[0].Args)
}
