package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ConfigurationError is a caller error, such as a bad CLI identity
// combination. It is fatal before any run starts.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(reason string) *ConfigurationError {
	return &ConfigurationError{Reason: reason}
}

// IsConfigurationError checks if the error is or wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return err != nil && errors.As(err, &cfgErr)
}

// LaunchError is returned when the node container could not be launched.
type LaunchError struct {
	Image string
	Err   error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch local testnet from image %s: %v", e.Image, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsLaunchError checks if the error is or wraps a LaunchError
func IsLaunchError(err error) bool {
	var launchErr *LaunchError
	return err != nil && errors.As(err, &launchErr)
}

// StartupTimeoutError is returned when the node or faucet does not become
// ready before the startup timeout elapses.
type StartupTimeoutError struct {
	Container string
	Timeout   time.Duration
	LastErr   error
}

func (e *StartupTimeoutError) Error() string {
	msg := fmt.Sprintf("node and faucet in %s did not start up within %s", e.Container, e.Timeout)
	if e.LastErr != nil {
		msg += fmt.Sprintf(": %v", e.LastErr)
	}
	return msg
}

func (e *StartupTimeoutError) Unwrap() error {
	return e.LastErr
}

// IsStartupTimeoutError checks if the error is or wraps a StartupTimeoutError
func IsStartupTimeoutError(err error) bool {
	var timeoutErr *StartupTimeoutError
	return err != nil && errors.As(err, &timeoutErr)
}

// PrepareError is returned when the CLI under test is not usable.
type PrepareError struct {
	Identity CLIIdentity
	Err      error
}

func (e *PrepareError) Error() string {
	return fmt.Sprintf("failed to prepare test CLI (%s): %v", e.Identity, e.Err)
}

func (e *PrepareError) Unwrap() error {
	return e.Err
}

// IsPrepareError checks if the error is or wraps a PrepareError
func IsPrepareError(err error) bool {
	var prepErr *PrepareError
	return err != nil && errors.As(err, &prepErr)
}

// AssertionError is returned by a test case when a CLI invocation's output
// or the resulting chain state does not match what was expected.
type AssertionError struct {
	Message string
	Command string
	Stdout  string
	Stderr  string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s", e.Message)
}

// IsAssertionError checks if the error is or wraps an AssertionError
func IsAssertionError(err error) bool {
	var assertErr *AssertionError
	return err != nil && errors.As(err, &assertErr)
}

// InvocationError is returned when the CLI process itself could not be started.
type InvocationError struct {
	Command string
	Err     error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("failed to invoke %q: %v", e.Command, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// IsInvocationError checks if the error is or wraps an InvocationError
func IsInvocationError(err error) bool {
	var invErr *InvocationError
	return err != nil && errors.As(err, &invErr)
}

// PanicError wraps a value recovered from a panicking test case.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// JoinCommand renders an argument list the way it is written to transcripts.
func JoinCommand(args []string) string {
	return strings.Join(args, " ")
}
