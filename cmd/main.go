package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"

	e2e "github.com/movemntdev/movement-cli-e2e"
	"github.com/movemntdev/movement-cli-e2e/exitcodes"
	"github.com/movemntdev/movement-cli-e2e/flags"
	"github.com/movemntdev/movement-cli-e2e/metrics"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "movement-cli-e2e"
	app.Usage = "Movement CLI end-to-end tester"
	app.Description = "movement-cli-e2e runs the Movement CLI against a local testnet"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			// Runtime errors, test failures and anything unspecified all
			// exit with the same code.
			if e2e.IsRuntimeError(err) {
				log.Error("Run aborted", "err", err)
			}
			cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.Failure))
		}
	}

	// Start telemetry. Spans are only exported when an OTEL endpoint is
	// configured in the environment.
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	// Start CLI
	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logCfg := oplog.ReadCLIConfig(ctx)
	if ctx.Bool(flags.Debug.Name) {
		logCfg.Level = log.LevelDebug
	}
	log := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(log.Handler())
	oplog.SetupDefaults()

	cfg, err := e2e.NewConfig(ctx, log)
	if err != nil {
		return nil, e2e.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	cfg.Log.Debug("Config", "config", cfg)
	metrics.Debug = cfg.Debug

	tester, err := e2e.New(ctx.Context, cfg, Version, closeApp)
	if err != nil {
		return nil, e2e.NewRuntimeError(fmt.Errorf("failed to create tester: %w", err))
	}

	return tester, nil
}
