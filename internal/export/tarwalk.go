package export

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chromepack/internal/rules"
)

// treeWalker writes filtered directory trees into a tar stream.
type treeWalker struct {
	tw       *tar.Writer
	srcDir   string
	baseName string
	rules    *rules.Set
	mtime    time.Time
	notice   func(string)
}

// writeSource archives the whole checkout with nonessential filtering on.
func (w *treeWalker) writeSource(ctx context.Context) error {
	return w.walk(ctx, w.srcDir, true)
}

// writeTestData archives only the test-data directories, filtering off
// (everything inside a test dir ships, modulo the always-skipped names).
func (w *treeWalker) writeTestData(ctx context.Context) error {
	for _, dir := range w.rules.TestDirs {
		full := filepath.Join(w.srcDir, filepath.FromSlash(dir))
		info, err := os.Stat(full)
		if err != nil || !info.IsDir() {
			// A directory may not exist depending on the milestone
			// we're building a tarball for.
			w.notice(fmt.Sprintf("%q not present; skipping.", dir))
			continue
		}
		if err := w.walk(ctx, full, false); err != nil {
			return err
		}
	}
	return nil
}

// walk archives the tree rooted at root. Entry names in the archive are
// the entry's path relative to the checkout root, under baseName.
func (w *treeWalker) walk(ctx context.Context, root string, removeNonessential bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(w.srcDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			// The checkout root itself becomes the baseName entry.
			return w.writeHeader(path, d, "", "")
		}

		switch skip := w.filter(path, rel, d, removeNonessential); skip {
		case skipEntry:
			return nil
		case skipTree:
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		return w.writeEntry(path, rel, d)
	})
}

type skipAction int

const (
	keepEntry skipAction = iota
	skipEntry            // drop this entry but keep descending
	skipTree             // drop this entry and everything below it
)

// filter reproduces the upstream exporter's per-entry decisions.
func (w *treeWalker) filter(path, rel string, d fs.DirEntry, removeNonessential bool) skipAction {
	base := d.Name()

	// Beware of symlinks whose target is nonessential.
	if d.Type()&fs.ModeSymlink != 0 {
		if _, err := os.Stat(path); err != nil {
			return skipEntry
		}
	}

	if base == "__pycache__" || strings.HasSuffix(base, ".pyc") {
		return skipTree
	}

	if base == ".svn" || base == "out" {
		// Since m132 devtools-frontend requires files in
		// node_modules/<module>/out, so exclusion is based on the
		// parent path rather than an explicit allowlist.
		parent := filepath.ToSlash(filepath.Dir(rel))
		if !strings.Contains(parent+"/", "node_modules/") {
			return skipTree
		}
	}

	if base == ".git" && !w.rules.EssentialGit(rel) {
		return skipTree
	}

	if removeNonessential {
		// WebKit change logs take a surprising amount of space in the
		// compressed tarball.
		if strings.Contains(rel, "ChangeLog") {
			return skipTree
		}

		// Files inside excluded directories are dropped, but the
		// directories themselves are still descended: GN inputs and
		// allowlisted files within them must survive.
		if !d.IsDir() && !w.rules.KeepFile(rel) && w.rules.InExcludedDir(rel) {
			return skipEntry
		}
	}

	return keepEntry
}

// writeEntry writes the header (and contents, for regular files) for one
// filesystem entry.
func (w *treeWalker) writeEntry(path, rel string, d fs.DirEntry) error {
	var link string
	if d.Type()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return fmt.Errorf("failed to read symlink %s: %w", path, err)
		}
		link = target
	}
	return w.writeHeader(path, d, link, rel)
}

// writeHeader writes a normalized tar header for the entry, plus file
// contents for regular files. An empty rel means the checkout root itself.
func (w *treeWalker) writeHeader(path string, d fs.DirEntry, link, rel string) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("failed to build tar header for %s: %w", path, err)
	}

	name := w.baseName
	if rel != "" {
		name += "/" + rel
	}
	if info.IsDir() {
		name += "/"
	}
	hdr.Name = name

	// Deterministic ownership and timestamps, matching the upstream
	// exporter: the commit time for mtime, uid/gid 0, numeric owner
	// names, and owner-writable so the tree can be deleted after unpack.
	hdr.ModTime = w.mtime
	hdr.AccessTime = time.Time{}
	hdr.ChangeTime = time.Time{}
	hdr.Uid = 0
	hdr.Gid = 0
	hdr.Uname = "0"
	hdr.Gname = "0"
	hdr.Mode |= 0200
	hdr.Format = tar.FormatGNU

	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", hdr.Name, err)
	}

	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(w.tw, f); err != nil {
		return fmt.Errorf("failed to archive %s: %w", path, err)
	}
	return nil
}
