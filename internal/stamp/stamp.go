// Package stamp runs the metadata-stamping scripts inside a checkout.
//
// The scripts ship with the source tree itself (lastchange.py and friends)
// and generate the files a tarball build needs in place of git metadata:
// build/util/LASTCHANGE with its committime sidecar, the GPU lists version
// header, and the Skia commit hash header. The script list is configurable;
// see config.DefaultConfig for the standard set.
package stamp

import (
	"context"
	"fmt"

	"chromepack/internal/config"
	"chromepack/internal/toolchain"
)

// Stamper runs the configured stamping scripts in order.
type Stamper struct {
	cfg    config.StampConfig
	srcDir string
	exec   toolchain.Executor
	sink   toolchain.LineSink
}

// NewStamper creates a [Stamper] for the checkout at srcDir. The sink
// receives script output and may be nil.
func NewStamper(cfg config.StampConfig, srcDir string, exec toolchain.Executor, sink toolchain.LineSink) *Stamper {
	return &Stamper{cfg: cfg, srcDir: srcDir, exec: exec, sink: sink}
}

// Stamp runs every configured script, stopping at the first failure.
func (s *Stamper) Stamp(ctx context.Context) error {
	python := s.cfg.Python
	if python == "" {
		python = "python3"
	}

	for _, script := range s.cfg.Scripts {
		if len(script) == 0 {
			continue
		}
		inv := toolchain.Invocation{
			Dir:     s.srcDir,
			Command: python,
			Args:    script,
		}
		if err := s.exec.Run(ctx, inv, s.sink); err != nil {
			return fmt.Errorf("stamping script %s failed: %w", script[0], err)
		}
	}
	return nil
}
