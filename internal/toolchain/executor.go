// Package toolchain runs the external tools the pipeline depends on:
// the depot_tools binaries (gclient), the Python stamping scripts shipped
// inside the checkout, and xz.
//
// Key types:
//   - [Executor]: interface for running external commands
//   - [CommandExecutor]: real implementation spawning subprocesses
//   - [MockExecutor]: test implementation recording invocations
//
// Output is streamed line by line to a [LineSink] so callers can relay
// tool output to the terminal as it is produced. A failing command is
// reported as an [ExitError] carrying the subprocess exit code.
package toolchain

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// LineSink receives one line of tool output at a time.
//
// Stderr lines are delivered with stderr set to true so callers can
// distinguish diagnostic output. Sinks must be safe for concurrent calls;
// [CommandExecutor] serializes delivery internally.
type LineSink func(line string, stderr bool)

// Invocation describes a single external command execution.
type Invocation struct {
	// Dir is the working directory for the command. Empty means the
	// current directory.
	Dir string

	// Command is the binary to run, resolved via PATH when not absolute.
	Command string

	// Args are the command arguments.
	Args []string

	// Env holds extra environment entries in KEY=VALUE form, appended to
	// the inherited environment.
	Env []string
}

// String renders the invocation for logging, e.g. "gclient sync --nohooks".
func (i Invocation) String() string {
	s := i.Command
	for _, a := range i.Args {
		s += " " + a
	}
	return s
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	// Invocation is the command that failed.
	Invocation Invocation

	// Code is the subprocess exit code.
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Invocation.Command, e.Code)
}

// Executor is the interface for running external commands.
//
// Run executes the invocation, streaming output to sink (which may be nil),
// and returns nil on a zero exit. A non-zero exit is reported as an
// [ExitError]; failures to start the process are returned as-is.
type Executor interface {
	Run(ctx context.Context, inv Invocation, sink LineSink) error
}

// maxLineSize is the scanner limit for a single output line. Some of the
// stamping scripts echo entire generated headers on one line.
const maxLineSize = 10 * 1024 * 1024

// CommandExecutor is the real [Executor], spawning subprocesses via os/exec.
type CommandExecutor struct{}

// NewCommandExecutor creates a new [CommandExecutor].
func NewCommandExecutor() *CommandExecutor {
	return &CommandExecutor{}
}

// Run executes the invocation and streams its output.
//
// Stdout and stderr are scanned concurrently; delivery to the sink is
// serialized. The command inherits the parent environment plus any entries
// in [Invocation.Env]. Cancellation of ctx kills the subprocess.
func (e *CommandExecutor) Run(ctx context.Context, inv Invocation, sink LineSink) error {
	cmd := exec.CommandContext(ctx, inv.Command, inv.Args...)
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", inv.Command, err)
	}

	var mu sync.Mutex
	emit := func(line string, isStderr bool) {
		if sink == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		sink(line, isStderr)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanLines(stdout, func(line string) { emit(line, false) })
	}()
	go func() {
		defer wg.Done()
		scanLines(stderr, func(line string) { emit(line, true) })
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &ExitError{Invocation: inv, Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("%s failed: %w", inv.Command, err)
	}
	return nil
}

// scanLines reads r line by line. Scanner errors (for example a line over
// the buffer limit) stop reading; partial output is preferable to killing
// a long-running sync.
func scanLines(r io.Reader, emit func(string)) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLineSize)
	for scanner.Scan() {
		emit(scanner.Text())
	}
}
