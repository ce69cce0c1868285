// Package export produces the release tarballs from a fetched checkout.
//
// Two archives are produced for a tag: the source tarball, with
// nonessential and test-data directories stripped, and the testdata
// tarball, holding only the test-data directories. Both share the same
// top-level directory name so they unpack over each other.
//
// Tar headers are normalized for reproducibility: every entry carries the
// checkout's commit timestamp, uid/gid 0 with owner names "0", and an
// owner-writable mode. The tar stream is piped through xz as it is
// written; the tree is never staged on disk a second time.
package export

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"chromepack/internal/config"
	"chromepack/internal/rules"
)

// CommitTimeFile is the checkout-relative path of the commit timestamp
// stamped by the lastchange script. Its value becomes the mtime of every
// archive entry.
const CommitTimeFile = "build/util/LASTCHANGE.committime"

// ArchiveName returns the source tarball name for a tag:
// <prefix>-<tag>.tar.xz.
func ArchiveName(prefix, tag string) string {
	return fmt.Sprintf("%s-%s.tar.xz", prefix, tag)
}

// TestDataArchiveName returns the testdata tarball name for a tag:
// <prefix>-<tag>-testdata.tar.xz.
func TestDataArchiveName(prefix, tag string) string {
	return fmt.Sprintf("%s-%s-testdata.tar.xz", prefix, tag)
}

// Exporter writes the release tarballs.
//
// Create with [NewExporter]. The Notice callback, when set, receives
// human-readable notices (for example a configured test directory missing
// from this milestone).
type Exporter struct {
	cfg      config.ExportConfig
	rules    *rules.Set
	compress Compressor

	// Notice receives informational messages during export. May be nil.
	Notice func(msg string)
}

// NewExporter creates an [Exporter] using xz compression per cfg.
func NewExporter(cfg config.ExportConfig, ruleSet *rules.Set) *Exporter {
	return &Exporter{
		cfg:      cfg,
		rules:    ruleSet,
		compress: &XZCompressor{Path: cfg.XZPath, Flags: cfg.XZFlags},
	}
}

// SetCompressor replaces the compressor; tests use a passthrough.
func (e *Exporter) SetCompressor(c Compressor) {
	e.compress = c
}

// ExportSource writes the source tarball for a tag and returns its path.
//
// Nonessential and test-data directory contents are excluded, except for
// files the rule set marks as kept (GN inputs and the essential-file
// allowlist).
func (e *Exporter) ExportSource(ctx context.Context, srcDir, tag string) (string, error) {
	return e.export(ctx, srcDir, tag, false)
}

// ExportTestData writes the testdata tarball for a tag and returns its
// path. Only the rule set's test-data directories are archived; configured
// directories absent from this checkout are skipped with a notice, since
// the set of test directories drifts between milestones.
func (e *Exporter) ExportTestData(ctx context.Context, srcDir, tag string) (string, error) {
	return e.export(ctx, srcDir, tag, true)
}

func (e *Exporter) export(ctx context.Context, srcDir, tag string, testdata bool) (string, error) {
	mtime, err := readCommitTime(srcDir)
	if err != nil {
		return "", err
	}

	name := ArchiveName(e.cfg.Prefix, tag)
	if testdata {
		name = TestDataArchiveName(e.cfg.Prefix, tag)
	}
	outDir := e.cfg.OutputDir
	if outDir == "" {
		outDir = "."
	}
	outPath := filepath.Join(outDir, name)

	// Both archives unpack into <prefix>-<tag>/.
	baseName := fmt.Sprintf("%s-%s", e.cfg.Prefix, tag)

	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", outPath, err)
	}

	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer pr.Close()
		return e.compress.Compress(gctx, pr, out)
	})

	g.Go(func() error {
		tw := tar.NewWriter(pw)
		walker := &treeWalker{
			tw:       tw,
			srcDir:   srcDir,
			baseName: baseName,
			rules:    e.rules,
			mtime:    time.Unix(mtime, 0),
			notice:   e.notice,
		}

		var werr error
		if testdata {
			werr = walker.writeTestData(gctx)
		} else {
			werr = walker.writeSource(gctx)
		}
		if cerr := tw.Close(); werr == nil {
			werr = cerr
		}
		// Closing the pipe with the walk error propagates it to the
		// compressor side as well.
		pw.CloseWithError(werr)
		return werr
	})

	err = g.Wait()
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(outPath)
		return "", err
	}
	return outPath, nil
}

func (e *Exporter) notice(msg string) {
	if e.Notice != nil {
		e.Notice(msg)
	}
}

// readCommitTime reads the commit timestamp stamped into the checkout.
// A missing or malformed file means the stamp step has not run.
func readCommitTime(srcDir string) (int64, error) {
	data, err := os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(CommitTimeFile)))
	if err != nil {
		return 0, fmt.Errorf("failed to read %s (has the stamp step run?): %w", CommitTimeFile, err)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed %s: %w", CommitTimeFile, err)
	}
	return ts, nil
}
