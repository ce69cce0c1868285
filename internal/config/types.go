// Package config provides configuration loading and management for chromepack.
//
// Configuration is loaded using Viper, supporting YAML config files and environment
// variable overrides. The package provides sensible defaults that work out of the
// box for packaging Chromium source releases, with the ability to customize the
// checkout location, stamping scripts, exclusion rules, and release destination.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//
// Configuration priority (highest to lowest):
//  1. Environment variables (CHROMEPACK_ prefix)
//  2. Config file specified by CHROMEPACK_CONFIG
//  3. ./chromepack.yaml in the working directory
//  4. User config directory (platform-standard):
//     - Linux: ~/.config/chromepack/chromepack.yaml
//     - macOS: ~/Library/Application Support/chromepack/chromepack.yaml
//  5. [DefaultConfig] defaults
package config

import "path/filepath"

// Config represents the root configuration structure.
//
// This is the main configuration container loaded by [Loader] and used throughout
// the application. Use [DefaultConfig] to get sensible defaults.
type Config struct {
	// Source contains checkout settings for the gclient-managed source tree.
	Source SourceConfig `mapstructure:"source"`

	// Stamp lists the metadata-stamping scripts run after a fetch.
	Stamp StampConfig `mapstructure:"stamp"`

	// PGO contains profile-guided-optimization profile download settings.
	PGO PGOConfig `mapstructure:"pgo"`

	// Export contains tarball export settings.
	Export ExportConfig `mapstructure:"export"`

	// Release contains release publishing settings.
	Release ReleaseConfig `mapstructure:"release"`

	// Pipeline defines the ordered steps for full pipeline execution.
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// SourceConfig contains settings for the gclient-managed checkout.
type SourceConfig struct {
	// URL is the git URL of the source repository.
	// Default: https://chromium.googlesource.com/chromium/src.git
	URL string `mapstructure:"url"`

	// WorkDir is the directory holding the .gclient file and the checkout.
	// In CI this is typically a large mounted volume. Default: ".".
	WorkDir string `mapstructure:"work_dir"`

	// SrcDirName is the name of the checkout directory under WorkDir.
	// This is also the gclient solution name. Default: "src".
	SrcDirName string `mapstructure:"src_dir_name"`

	// DepotToolsPath is the directory containing the depot_tools binaries
	// (gclient et al). Empty means the binaries are expected on PATH.
	DepotToolsPath string `mapstructure:"depot_tools_path"`

	// SyncFlags are extra flags appended to the gclient sync invocation.
	SyncFlags []string `mapstructure:"sync_flags"`
}

// SrcDir returns the full path of the checkout directory.
func (s SourceConfig) SrcDir() string {
	return filepath.Join(s.WorkDir, s.SrcDirName)
}

// StampConfig lists the metadata-stamping scripts run inside the checkout.
type StampConfig struct {
	// Python is the interpreter used to run the stamping scripts.
	// Default: "python3".
	Python string `mapstructure:"python"`

	// Scripts are the script invocations (path plus arguments, relative to
	// the checkout root) run in order. See [DefaultConfig] for the standard
	// LASTCHANGE / gpu_lists_version / skia_commit_hash set.
	Scripts [][]string `mapstructure:"scripts"`
}

// PGOConfig contains settings for downloading the PGO profile.
//
// The profile name is read from chrome/build/<target>.pgo.txt inside the
// checkout, and the profile itself is fetched from a public GCS bucket.
type PGOConfig struct {
	// Bucket is the GCS bucket holding the profiles.
	// Default: "chromium-optimization-profiles".
	Bucket string `mapstructure:"bucket"`

	// ObjectPrefix is the object path prefix within the bucket.
	// Default: "pgo_profiles".
	ObjectPrefix string `mapstructure:"object_prefix"`

	// Target selects the per-platform profile state file,
	// chrome/build/<target>.pgo.txt. Default: "linux".
	Target string `mapstructure:"target"`
}

// ExportConfig contains tarball export settings.
type ExportConfig struct {
	// Prefix is the archive name prefix. Archives are named
	// <prefix>-<tag>.tar.xz and <prefix>-<tag>-testdata.tar.xz.
	// Default: "chromium".
	Prefix string `mapstructure:"prefix"`

	// OutputDir is the directory where archives are written.
	// Default: the source work dir.
	OutputDir string `mapstructure:"output_dir"`

	// XZPath is the xz binary used for compression. Default: "xz".
	XZPath string `mapstructure:"xz_path"`

	// XZFlags are the flags passed to xz. Default: ["-T", "0", "-9"],
	// multithreaded maximum compression.
	XZFlags []string `mapstructure:"xz_flags"`

	// RulesManifest is an optional YAML file overriding the built-in
	// exclusion rules. Empty means built-in defaults only.
	RulesManifest string `mapstructure:"rules_manifest"`
}

// ReleaseConfig contains release publishing settings.
type ReleaseConfig struct {
	// Owner is the GitHub repository owner receiving the release.
	Owner string `mapstructure:"owner"`

	// Repo is the GitHub repository name receiving the release.
	Repo string `mapstructure:"repo"`

	// TokenEnv names the environment variable holding the API token.
	// Default: "GITHUB_TOKEN".
	TokenEnv string `mapstructure:"token_env"`

	// TargetCommitish is the commitish a newly created release points at.
	// Empty uses the repository default branch.
	TargetCommitish string `mapstructure:"target_commitish"`

	// Draft creates new releases as drafts.
	Draft bool `mapstructure:"draft"`
}

// PipelineConfig defines the steps for full pipeline execution.
//
// This configuration is used by the run command to determine the sequence
// of steps to execute for a tag.
type PipelineConfig struct {
	// Steps is the ordered list of step names to execute.
	// Default: ["fetch", "stamp", "pgo", "export", "publish"]
	Steps []string `mapstructure:"steps"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
//
// The defaults target the standard Chromium source release flow: fetch via
// gclient, stamp LASTCHANGE and the generated version headers, pull the linux
// PGO profile from the public profile bucket, and export chromium-<tag>
// tarballs. Only the release owner/repo have no useful default and must be
// configured before publish can run.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			URL:        "https://chromium.googlesource.com/chromium/src.git",
			WorkDir:    ".",
			SrcDirName: "src",
			SyncFlags:  []string{"--with_branch_heads", "--no-history", "--nohooks"},
		},
		Stamp: StampConfig{
			Python: "python3",
			Scripts: [][]string{
				{"build/util/lastchange.py", "-o", "build/util/LASTCHANGE"},
				{"build/util/lastchange.py", "-m", "GPU_LISTS_VERSION", "--revision-id-only", "--header", "gpu/config/gpu_lists_version.h"},
				{"build/util/lastchange.py", "-m", "SKIA_COMMIT_HASH", "-s", "third_party/skia", "--header", "skia/ext/skia_commit_hash.h"},
			},
		},
		PGO: PGOConfig{
			Bucket:       "chromium-optimization-profiles",
			ObjectPrefix: "pgo_profiles",
			Target:       "linux",
		},
		Export: ExportConfig{
			Prefix:  "chromium",
			XZPath:  "xz",
			XZFlags: []string{"-T", "0", "-9"},
		},
		Release: ReleaseConfig{
			TokenEnv: "GITHUB_TOKEN",
		},
		Pipeline: PipelineConfig{
			Steps: []string{"fetch", "stamp", "pgo", "export", "publish"},
		},
	}
}
