// Package cases holds the CLI scenarios run against the local testnet.
package cases

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/movemntdev/movement-cli-e2e/runhelper"
	"github.com/movemntdev/movement-cli-e2e/types"
)

// TestCase is one named scenario. Fn returns nil when the scenario passed.
type TestCase struct {
	Name string
	Fn   func(ctx context.Context, log log.Logger, h *runhelper.RunHelper) error
}

// Run executes the case. A panic inside Fn is returned as a PanicError
// instead of unwinding into the caller.
func (t TestCase) Run(ctx context.Context, log log.Logger, h *runhelper.RunHelper) (err error) {
	if t.Fn == nil {
		return fmt.Errorf("test function is nil")
	}
	defer func() {
		if r := recover(); r != nil {
			err = &types.PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()

	log.Info("Running test", "test", t.Name)
	err = t.Fn(ctx, log, h)
	log.Info("Finished test", "test", t.Name, "passed", err == nil, "err", err)
	return err
}

// All returns the cases in the order they must run. init creates the
// profile the account cases rely on.
func All() []TestCase {
	return []TestCase{
		Init,
		AccountFundWithFaucet,
		AccountCreate,
	}
}

// run invokes the CLI and fails unless it started and exited zero.
func run(ctx context.Context, h *runhelper.RunHelper, testName string, args []string, opts ...runhelper.RunOption) (runhelper.CommandResult, error) {
	res := h.RunCommand(ctx, testName, args, opts...)
	if res.Err != nil {
		if types.IsInvocationError(res.Err) {
			return res, res.Err
		}
		return res, assertionFailure(res, res.Err.Error())
	}
	if res.ExitCode != 0 {
		return res, assertionFailure(res, fmt.Sprintf("command exited with code %d", res.ExitCode))
	}
	return res, nil
}

// requireResult checks that stdout is the CLI's JSON envelope with a
// "Result" key, and returns the raw result.
func requireResult(res runhelper.CommandResult) (json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(res.Stdout)), &envelope); err != nil {
		return nil, assertionFailure(res, fmt.Sprintf("stdout is not a JSON envelope: %v", err))
	}
	if msg, ok := envelope["Error"]; ok {
		return nil, assertionFailure(res, fmt.Sprintf("CLI reported an error: %s", msg))
	}
	result, ok := envelope["Result"]
	if !ok {
		return nil, assertionFailure(res, `stdout has no "Result" field`)
	}
	return result, nil
}

func assertionFailure(res runhelper.CommandResult, msg string) *types.AssertionError {
	return &types.AssertionError{
		Message: msg,
		Command: res.Command,
		Stdout:  res.Stdout,
		Stderr:  res.Stderr,
	}
}
