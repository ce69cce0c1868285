// Package state tracks pipeline progress per tag.
//
// Progress is persisted in a release-state.yaml file in the work directory,
// mapping each tag to the [Stage] reached by its last successful step. The
// run command uses this to resume a partially completed pipeline instead of
// re-fetching a multi-gigabyte checkout.
//
// Key types:
//   - [Stage] - the pipeline stage a tag has reached
//   - [Reader] - reads the state file
//   - [Writer] - updates the state file atomically
package state

import "fmt"

// Stage represents how far a tag has progressed through the pipeline.
type Stage string

const (
	// StagePending means no pipeline step has completed for the tag.
	StagePending Stage = "pending"

	// StageFetched means the source tree has been synced at the tag.
	StageFetched Stage = "fetched"

	// StageStamped means the metadata-stamping scripts have run.
	StageStamped Stage = "stamped"

	// StageProfiled means the PGO profile has been downloaded.
	StageProfiled Stage = "profiled"

	// StagePackaged means both tarballs have been exported.
	StagePackaged Stage = "packaged"

	// StagePublished means the release has been created or updated with
	// both tarballs attached.
	StagePublished Stage = "published"
)

// validStages enumerates every recognized stage value.
var validStages = map[Stage]bool{
	StagePending:   true,
	StageFetched:   true,
	StageStamped:   true,
	StageProfiled:  true,
	StagePackaged:  true,
	StagePublished: true,
}

// IsValid reports whether s is a recognized stage value.
func (s Stage) IsValid() bool {
	return validStages[s]
}

// ReleaseState is the on-disk structure of the state file.
type ReleaseState struct {
	// Tags maps tag name to the stage it has reached.
	Tags map[string]Stage `yaml:"tags"`
}

// validateStage returns an error for unrecognized stage values so a typo in
// a hand-edited state file fails loudly.
func validateStage(s Stage) error {
	if !s.IsValid() {
		return fmt.Errorf("invalid stage: %s", s)
	}
	return nil
}
