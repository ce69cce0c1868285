package state

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Writer updates the YAML state file.
type Writer struct {
	statePath string
}

// NewWriter creates a new Writer for the state file under basePath.
func NewWriter(basePath string) *Writer {
	return &Writer{statePath: ResolvePath(basePath, "")}
}

// UpdateStage records the stage reached by a tag.
//
// The file is created when absent. The update is atomic: the full state is
// written to a temp file and renamed over the original, so a crash mid-write
// never leaves a truncated state file.
func (w *Writer) UpdateStage(tag string, stage Stage) error {
	if err := validateStage(stage); err != nil {
		return err
	}

	st, err := (&Reader{statePath: w.statePath}).Read()
	if err != nil {
		return err
	}

	st.Tags[tag] = stage

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal release state: %w", err)
	}

	tmpPath := w.statePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write release state: %w", err)
	}
	if err := os.Rename(tmpPath, w.statePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write release state: %w", err)
	}
	return nil
}
