package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the YAML override format for exclusion rules.
//
// Each base list, when present and non-empty, replaces the corresponding
// built-in default; the extra_* lists append to whatever the base resolves
// to. This lets a manifest pin the full rule set for reproducibility or
// just add a directory or two for a new milestone.
//
// Example:
//
//	extra_nonessential_dirs:
//	  - third_party/new_prebuilt_toolchain
//	extra_test_dirs:
//	  - components/new_feature/test/data
type Manifest struct {
	NonessentialDirs      []string `yaml:"nonessential_dirs"`
	ExtraNonessentialDirs []string `yaml:"extra_nonessential_dirs"`
	TestDirs              []string `yaml:"test_dirs"`
	ExtraTestDirs         []string `yaml:"extra_test_dirs"`
	EssentialFiles        []string `yaml:"essential_files"`
	ExtraEssentialFiles   []string `yaml:"extra_essential_files"`
	EssentialGitDirs      []string `yaml:"essential_git_dirs"`
	ExtraEssentialGitDirs []string `yaml:"extra_essential_git_dirs"`
}

// Load reads a manifest file and resolves it against the built-in defaults.
//
// An empty path returns [Default] unchanged.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse rules manifest: %w", err)
	}

	return m.Resolve(), nil
}

// Resolve applies the manifest to the built-in defaults.
func (m *Manifest) Resolve() *Set {
	s := Default()
	if len(m.NonessentialDirs) > 0 {
		s.NonessentialDirs = m.NonessentialDirs
	}
	if len(m.TestDirs) > 0 {
		s.TestDirs = m.TestDirs
	}
	if len(m.EssentialFiles) > 0 {
		s.EssentialFiles = m.EssentialFiles
	}
	if len(m.EssentialGitDirs) > 0 {
		s.EssentialGitDirs = m.EssentialGitDirs
	}
	s.NonessentialDirs = append(s.NonessentialDirs, m.ExtraNonessentialDirs...)
	s.TestDirs = append(s.TestDirs, m.ExtraTestDirs...)
	s.EssentialFiles = append(s.EssentialFiles, m.ExtraEssentialFiles...)
	s.EssentialGitDirs = append(s.EssentialGitDirs, m.ExtraEssentialGitDirs...)
	return s
}
