package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://chromium.googlesource.com/chromium/src.git", cfg.Source.URL)
	assert.Equal(t, "src", cfg.Source.SrcDirName)
	assert.Equal(t, "python3", cfg.Stamp.Python)
	require.Len(t, cfg.Stamp.Scripts, 3)
	assert.Equal(t, "build/util/lastchange.py", cfg.Stamp.Scripts[0][0])

	assert.Equal(t, "chromium-optimization-profiles", cfg.PGO.Bucket)
	assert.Equal(t, "linux", cfg.PGO.Target)

	assert.Equal(t, "chromium", cfg.Export.Prefix)
	assert.Equal(t, []string{"-T", "0", "-9"}, cfg.Export.XZFlags)

	assert.Equal(t, "GITHUB_TOKEN", cfg.Release.TokenEnv)
	assert.Equal(t, []string{"fetch", "stamp", "pgo", "export", "publish"}, cfg.Pipeline.Steps)
}

func TestSourceConfig_SrcDir(t *testing.T) {
	s := SourceConfig{WorkDir: "/mnt/work", SrcDirName: "src"}
	assert.Equal(t, filepath.Join("/mnt/work", "src"), s.SrcDir())
}

func TestLoader_Defaults(t *testing.T) {
	// No config file anywhere: pure defaults.
	t.Setenv(ConfigPathEnv, "")
	t.Chdir(t.TempDir())

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Export.Prefix, cfg.Export.Prefix)
}

func TestLoader_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chromepack.yaml")
	content := `export:
  prefix: myproject
release:
  owner: example
  repo: tarballs
source:
  work_dir: /mnt/big
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv(ConfigPathEnv, path)

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "myproject", cfg.Export.Prefix)
	assert.Equal(t, "example", cfg.Release.Owner)
	assert.Equal(t, "tarballs", cfg.Release.Repo)
	assert.Equal(t, "/mnt/big", cfg.Source.WorkDir)
	// Unset keys keep their defaults.
	assert.Equal(t, "xz", cfg.Export.XZPath)
	assert.Equal(t, "src", cfg.Source.SrcDirName)
}

func TestLoader_EnvOverride(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")
	t.Chdir(t.TempDir())
	t.Setenv("CHROMEPACK_EXPORT_PREFIX", "env-prefix")
	t.Setenv("CHROMEPACK_PGO_TARGET", "win64")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "env-prefix", cfg.Export.Prefix)
	assert.Equal(t, "win64", cfg.PGO.Target)
}

func TestLoader_MissingExplicitFile(t *testing.T) {
	t.Setenv(ConfigPathEnv, filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := NewLoader().Load()
	require.Error(t, err)
}

func TestLoader_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chromepack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("export: [not a map"), 0644))
	t.Setenv(ConfigPathEnv, path)

	_, err := NewLoader().Load()
	require.Error(t, err)
}
