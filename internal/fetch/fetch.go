// Package fetch syncs the source checkout at a tag via depot_tools.
//
// Fetching writes the .gclient solutions file into the work directory, runs
// `gclient sync` pinned to refs/tags/<tag>, then `gclient runhooks`. The
// heavy lifting (DEPS resolution, git fetches, hooks) belongs to
// depot_tools; this package only constructs and sequences the invocations.
package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"chromepack/internal/config"
	"chromepack/internal/toolchain"
)

// tagPattern accepts tags usable both as a git ref and as a path component
// of the archive name: no slashes, no leading dot or dash.
var tagPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateTag checks that a tag is well-formed.
func ValidateTag(tag string) error {
	if !tagPattern.MatchString(tag) {
		return fmt.Errorf("invalid tag %q: must match %s", tag, tagPattern)
	}
	return nil
}

// gclientTemplate is the solutions file written into the work directory.
// managed is false: the revision is pinned on the sync command line.
const gclientTemplate = `solutions = [
  {
    "name": %q,
    "url": %q,
    "deps_file": "DEPS",
    "managed": False,
    "custom_deps": {},
    "custom_vars": {},
  },
]
`

// Fetcher syncs the checkout at a tag.
type Fetcher struct {
	cfg  config.SourceConfig
	exec toolchain.Executor
	sink toolchain.LineSink
}

// NewFetcher creates a [Fetcher]. The sink receives gclient output and may
// be nil.
func NewFetcher(cfg config.SourceConfig, exec toolchain.Executor, sink toolchain.LineSink) *Fetcher {
	return &Fetcher{cfg: cfg, exec: exec, sink: sink}
}

// Fetch syncs the source tree at refs/tags/<tag>.
//
// The work directory is created if needed and the .gclient file is
// (re)written on every fetch, so switching tags in an existing work
// directory just works. Sync runs with the configured flags (hookless by
// default) and hooks run as a separate invocation afterwards, mirroring
// how the upstream CI splits the two.
func (f *Fetcher) Fetch(ctx context.Context, tag string) error {
	if err := ValidateTag(tag); err != nil {
		return err
	}

	if err := os.MkdirAll(f.cfg.WorkDir, 0755); err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}

	gclientFile := filepath.Join(f.cfg.WorkDir, ".gclient")
	content := fmt.Sprintf(gclientTemplate, f.cfg.SrcDirName, f.cfg.URL)
	if err := os.WriteFile(gclientFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write .gclient: %w", err)
	}

	syncArgs := []string{
		"sync",
		"--revision", fmt.Sprintf("%s@refs/tags/%s", f.cfg.SrcDirName, tag),
	}
	syncArgs = append(syncArgs, f.cfg.SyncFlags...)

	if err := f.exec.Run(ctx, f.invocation(syncArgs), f.sink); err != nil {
		return fmt.Errorf("gclient sync failed: %w", err)
	}

	if err := f.exec.Run(ctx, f.invocation([]string{"runhooks"}), f.sink); err != nil {
		return fmt.Errorf("gclient runhooks failed: %w", err)
	}

	return nil
}

// invocation builds a gclient invocation in the work directory, resolving
// the binary out of the configured depot_tools checkout when one is set.
func (f *Fetcher) invocation(args []string) toolchain.Invocation {
	command := "gclient"
	if f.cfg.DepotToolsPath != "" {
		command = filepath.Join(f.cfg.DepotToolsPath, "gclient")
	}
	return toolchain.Invocation{
		Dir:     f.cfg.WorkDir,
		Command: command,
		Args:    args,
	}
}
