package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Compressor consumes a raw stream and writes its compressed form.
//
// The production implementation is [XZCompressor]; tests substitute a
// passthrough so archives can be inspected with a plain tar reader.
type Compressor interface {
	Compress(ctx context.Context, r io.Reader, w io.Writer) error
}

// XZCompressor pipes the stream through an external xz process.
//
// Compression stays external rather than in-process: with -T 0 xz spreads
// compression across all cores, which matters for a checkout this size.
type XZCompressor struct {
	// Path is the xz binary. Empty means "xz" on PATH.
	Path string

	// Flags are passed before the trailing "-". Defaults to
	// ["-T", "0", "-9"] when nil.
	Flags []string
}

// Compress runs xz with stdin from r and stdout to w.
func (x *XZCompressor) Compress(ctx context.Context, r io.Reader, w io.Writer) error {
	path := x.Path
	if path == "" {
		path = "xz"
	}
	flags := x.Flags
	if flags == nil {
		flags = []string{"-T", "0", "-9"}
	}
	args := append(append([]string{}, flags...), "-")

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = r
	cmd.Stdout = w
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("xz failed: %w: %s", err, msg)
		}
		return fmt.Errorf("xz failed: %w", err)
	}
	return nil
}
