package cli

import "fmt"

// ExitError represents a command failure with a specific exit code.
//
// Cobra RunE functions return an ExitError instead of calling os.Exit
// directly, so tests can assert on exit codes without terminating the
// process. The code propagates up through [RunWithConfig], and [Execute]
// performs the actual os.Exit.
type ExitError struct {
	// Code is the exit code to return to the shell. 0 is success, 1 a
	// general error; other values pass through a failed subprocess code.
	Code int
}

// Error returns "exit status N", matching the os/exec convention.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewExitError creates an [ExitError] with the given exit code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// IsExitError reports whether err is an [ExitError], extracting its code.
func IsExitError(err error) (int, bool) {
	if exitErr, ok := err.(*ExitError); ok {
		return exitErr.Code, true
	}
	return 0, false
}
