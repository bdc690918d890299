package cli

import (
	"errors"
	"fmt"
)

// ExitMismatch is the exit code of a failed comparison in strict mode and
// of a manifest check that found differences.
const ExitMismatch = 2

var (
	// ErrMismatch reports a digest that differs from the expected one.
	ErrMismatch = errors.New("digest mismatch")

	// ErrFlagConflict reports flags that cannot be used together.
	ErrFlagConflict = errors.New("conflicting flags")
)

// ExitError carries the process exit code for an error whose message has
// already been shown to the user.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d: %v", e.Code, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
