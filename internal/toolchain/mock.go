package toolchain

import "context"

// MockExecutor implements [Executor] for tests without spawning processes.
//
// Invocations are recorded in order. FailOn selects a command name that
// should fail with FailCode (default 1), and Output lines are replayed to
// the sink for every invocation.
type MockExecutor struct {
	// Invocations records every Run call in order.
	Invocations []Invocation

	// FailOn is the command name that should fail. Empty means all
	// invocations succeed.
	FailOn string

	// FailCode is the exit code reported for a failing command.
	// Zero is treated as 1.
	FailCode int

	// Output lines are sent to the sink on every invocation, as stdout.
	Output []string
}

func (m *MockExecutor) Run(ctx context.Context, inv Invocation, sink LineSink) error {
	m.Invocations = append(m.Invocations, inv)
	if sink != nil {
		for _, line := range m.Output {
			sink(line, false)
		}
	}
	if m.FailOn != "" && inv.Command == m.FailOn {
		code := m.FailCode
		if code == 0 {
			code = 1
		}
		return &ExitError{Invocation: inv, Code: code}
	}
	return nil
}
