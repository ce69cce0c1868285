package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides.
// For example, CHROMEPACK_EXPORT_PREFIX overrides export.prefix.
const EnvPrefix = "CHROMEPACK"

// ConfigPathEnv names the environment variable holding an explicit config
// file path. When set, no other file locations are searched.
const ConfigPathEnv = "CHROMEPACK_CONFIG"

// ConfigFileName is the base name of the config file searched for in the
// working directory and the user config directory.
const ConfigFileName = "chromepack.yaml"

// Loader loads configuration using Viper.
//
// Use [NewLoader] to create an instance and [Loader.Load] to produce a
// [Config]. The loader starts from [DefaultConfig], merges any config file
// it finds, and applies environment variable overrides.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new [Loader] with environment binding configured.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load produces a [Config] from defaults, an optional config file, and
// environment overrides.
//
// A missing config file is not an error; a present but malformed one is.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(l.v, cfg)

	path := configFilePath()
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// configFilePath resolves the config file location.
//
// Resolution order: CHROMEPACK_CONFIG env var, ./chromepack.yaml, then the
// platform user config directory. Discovered paths are only returned when
// the file exists; the env override is returned as-is so a bad path fails
// loudly instead of silently falling back to defaults.
func configFilePath() string {
	if envPath := os.Getenv(ConfigPathEnv); envPath != "" {
		return envPath
	}

	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}

	if dir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(dir, "chromepack", ConfigFileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// setDefaults registers the default config values with Viper so that
// environment overrides apply even for keys absent from the config file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("source.url", cfg.Source.URL)
	v.SetDefault("source.work_dir", cfg.Source.WorkDir)
	v.SetDefault("source.src_dir_name", cfg.Source.SrcDirName)
	v.SetDefault("source.depot_tools_path", cfg.Source.DepotToolsPath)
	v.SetDefault("source.sync_flags", cfg.Source.SyncFlags)
	v.SetDefault("stamp.python", cfg.Stamp.Python)
	v.SetDefault("stamp.scripts", cfg.Stamp.Scripts)
	v.SetDefault("pgo.bucket", cfg.PGO.Bucket)
	v.SetDefault("pgo.object_prefix", cfg.PGO.ObjectPrefix)
	v.SetDefault("pgo.target", cfg.PGO.Target)
	v.SetDefault("export.prefix", cfg.Export.Prefix)
	v.SetDefault("export.output_dir", cfg.Export.OutputDir)
	v.SetDefault("export.xz_path", cfg.Export.XZPath)
	v.SetDefault("export.xz_flags", cfg.Export.XZFlags)
	v.SetDefault("export.rules_manifest", cfg.Export.RulesManifest)
	v.SetDefault("release.owner", cfg.Release.Owner)
	v.SetDefault("release.repo", cfg.Release.Repo)
	v.SetDefault("release.token_env", cfg.Release.TokenEnv)
	v.SetDefault("release.target_commitish", cfg.Release.TargetCommitish)
	v.SetDefault("release.draft", cfg.Release.Draft)
	v.SetDefault("pipeline.steps", cfg.Pipeline.Steps)
}
