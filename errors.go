package e2e

import (
	"errors"
	"fmt"
	"strings"
)

// RuntimeError is a fatal error: the run could not get as far as running
// its tests, or could not be set up at all. State is the step the run
// aborted in, and is StateIdle for errors raised before a run began.
type RuntimeError struct {
	State State
	Err   error
}

func (e *RuntimeError) Error() string {
	if e.State == StateIdle {
		return fmt.Sprintf("runtime error: %v", e.Err)
	}
	return fmt.Sprintf("runtime error in %s: %v", e.State, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError wraps an error raised outside of a run, such as invalid
// configuration.
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{State: StateIdle, Err: err}
}

// newAbortError wraps the fatal error of an aborted run.
func newAbortError(r *Report) *RuntimeError {
	return &RuntimeError{State: r.State, Err: r.Fatal}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// TestFailureError reports the cases that failed in a completed run.
type TestFailureError struct {
	Failed []string
	Total  int
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test failure: %d of %d tests failed: %s", len(e.Failed), e.Total, strings.Join(e.Failed, ", "))
}

func NewTestFailureError(failed []string, total int) *TestFailureError {
	return &TestFailureError{Failed: failed, Total: total}
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return err != nil && errors.As(err, &testErr)
}
