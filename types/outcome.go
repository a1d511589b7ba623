package types

import (
	"errors"
	"time"
)

// TestStatus represents the possible states of a test execution
type TestStatus string

const (
	TestStatusPass TestStatus = "pass"
	TestStatusFail TestStatus = "fail"
)

// FailureKind classifies why a test case failed.
type FailureKind string

const (
	FailureKindAssertion  FailureKind = "assertion"
	FailureKindInvocation FailureKind = "invocation"
	FailureKindPanic      FailureKind = "panic"
	FailureKindUnexpected FailureKind = "unexpected"
)

// FailureDetail carries the evidence captured for a failed test case.
type FailureDetail struct {
	Kind    FailureKind
	Command string
	Stdout  string
	Stderr  string
	Err     error
}

// NewFailureDetail classifies err and lifts any captured command output out
// of it.
func NewFailureDetail(err error) FailureDetail {
	detail := FailureDetail{Kind: FailureKindUnexpected, Err: err}

	var assertErr *AssertionError
	var invErr *InvocationError
	var panicErr *PanicError
	switch {
	case errors.As(err, &assertErr):
		detail.Kind = FailureKindAssertion
		detail.Command = assertErr.Command
		detail.Stdout = assertErr.Stdout
		detail.Stderr = assertErr.Stderr
	case errors.As(err, &invErr):
		detail.Kind = FailureKindInvocation
		detail.Command = invErr.Command
	case errors.As(err, &panicErr):
		detail.Kind = FailureKindPanic
	}
	return detail
}

// Message returns the error message, or an empty string.
func (d FailureDetail) Message() string {
	if d.Err == nil {
		return ""
	}
	return d.Err.Error()
}

// Failure pairs a failed test name with its detail.
type Failure struct {
	Name   string
	Detail FailureDetail
}

// TestOutcome captures the outcome of a single test case.
type TestOutcome struct {
	Name     string
	Status   TestStatus
	Detail   *FailureDetail // nil for passed tests
	Duration time.Duration
}

// Passed returns a passing outcome.
func Passed(name string, duration time.Duration) TestOutcome {
	return TestOutcome{Name: name, Status: TestStatusPass, Duration: duration}
}

// Failed returns a failing outcome carrying detail.
func Failed(name string, detail FailureDetail, duration time.Duration) TestOutcome {
	return TestOutcome{Name: name, Status: TestStatusFail, Detail: &detail, Duration: duration}
}
