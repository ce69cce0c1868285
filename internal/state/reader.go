package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultStateFile is the state file name, relative to the work directory.
const DefaultStateFile = "release-state.yaml"

// StatePathEnv names the environment variable overriding the state file
// location. When set it is used as-is.
const StatePathEnv = "CHROMEPACK_STATE_PATH"

// ResolvePath determines the state file location.
//
// Resolution order:
//  1. CHROMEPACK_STATE_PATH environment variable (used as-is if set)
//  2. Explicit statePath parameter (if non-empty)
//  3. <basePath>/release-state.yaml
//
// The basePath is the work directory. Pass empty string for cwd.
func ResolvePath(basePath, statePath string) string {
	if envPath := os.Getenv(StatePathEnv); envPath != "" {
		return envPath
	}
	if statePath != "" {
		return statePath
	}
	return filepath.Join(basePath, DefaultStateFile)
}

// Reader reads pipeline state from the YAML state file.
//
// Use [NewReader] with the work directory; a missing state file is treated
// as empty state, since every tag starts at [StagePending].
type Reader struct {
	statePath string
}

// NewReader creates a [Reader] for the state file under basePath.
func NewReader(basePath string) *Reader {
	return &Reader{statePath: ResolvePath(basePath, "")}
}

// Read reads and parses the complete state file.
//
// A missing file yields an empty [ReleaseState]. A present but malformed
// file is an error.
func (r *Reader) Read() (*ReleaseState, error) {
	data, err := os.ReadFile(r.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &ReleaseState{Tags: map[string]Stage{}}, nil
		}
		return nil, fmt.Errorf("failed to read release state: %w", err)
	}

	var st ReleaseState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse release state: %w", err)
	}
	if st.Tags == nil {
		st.Tags = map[string]Stage{}
	}
	return &st, nil
}

// GetStage returns the [Stage] recorded for a tag.
//
// A tag absent from the state file is at [StagePending]. An invalid stage
// value in the file is an error.
func (r *Reader) GetStage(tag string) (Stage, error) {
	st, err := r.Read()
	if err != nil {
		return "", err
	}

	stage, ok := st.Tags[tag]
	if !ok {
		return StagePending, nil
	}
	if err := validateStage(stage); err != nil {
		return "", fmt.Errorf("tag %s: %w", tag, err)
	}
	return stage, nil
}

// Tags returns all recorded tag names, sorted.
func (r *Reader) Tags() ([]string, error) {
	st, err := r.Read()
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(st.Tags))
	for tag := range st.Tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}
