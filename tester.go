package e2e

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/httputil"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/movemntdev/movement-cli-e2e/cases"
	"github.com/movemntdev/movement-cli-e2e/exitcodes"
	"github.com/movemntdev/movement-cli-e2e/metrics"
	"github.com/movemntdev/movement-cli-e2e/node"
)

// tester implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &tester{}

// tester runs the CLI end-to-end suite once and then asks the app to exit.
type tester struct {
	config       *Config
	version      string
	orchestrator *Orchestrator
	closer       io.Closer
	report       *Report

	metricsServer *httputil.HTTPServer

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*tester, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating tester with config",
		"network", config.Network,
		"imageRepo", config.ImageRepo,
		"cli", config.Identity,
		"workDir", config.WorkDir,
		"startupTimeout", config.StartupTimeout)

	runtime, err := node.NewDockerRuntime(node.DockerConfig{Log: config.Log})
	if err != nil {
		return nil, fmt.Errorf("failed to create container runtime: %w", err)
	}
	lifecycle, err := node.New(node.Config{
		Runtime: runtime,
		Prober:  node.NewHTTPProber(config.NodeURL, config.FaucetURL),
		Log:     config.Log,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create node lifecycle: %w", err), runtime.Close())
	}
	orchestrator, err := NewOrchestrator(config, lifecycle, runtime, cases.All(), NewDefaultReporter(os.Stdout, config.Log))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create orchestrator: %w", err), runtime.Close())
	}

	return newTester(config, version, orchestrator, runtime, shutdownCallback), nil
}

func newTester(config *Config, version string, orchestrator *Orchestrator, closer io.Closer, shutdownCallback func(error)) *tester {
	return &tester{
		config:           config,
		version:          version,
		orchestrator:     orchestrator,
		closer:           closer,
		shutdownCallback: shutdownCallback,
	}
}

// Start runs the suite once. It returns nil and triggers shutdown when every
// test passed.
// Start implements the cliapp.Lifecycle interface.
func (t *tester) Start(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			t.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.Failure)
		}
	}()

	t.running.Store(true)
	t.config.Log.Info("Starting movement-cli-e2e", "version", t.version, "network", t.config.Network)

	if err := t.startMetrics(); err != nil {
		return NewRuntimeError(err)
	}

	t.report = t.orchestrator.Run(ctx)
	if t.report.Fatal != nil {
		return newAbortError(t.report)
	}
	if !t.report.Succeeded() {
		_, failed := t.report.Results.Summary()
		names := make([]string, 0, len(failed))
		for _, f := range failed {
			names = append(names, f.Name)
		}
		t.config.Log.Warn("Test run completed with failures, returning exit code 1", "failed", len(failed))
		return NewTestFailureError(names, t.report.Results.Total())
	}

	t.config.Log.Info("Tests completed, exiting")
	go func() {
		t.shutdownCallback(nil)
	}()
	return nil
}

func (t *tester) startMetrics() error {
	cfg := t.config.MetricsConfig
	if !cfg.Enabled {
		return nil
	}
	t.config.Log.Info("Starting metrics server", "addr", cfg.ListenAddr, "port", cfg.ListenPort)
	srv, err := opmetrics.StartServer(metrics.Registry, cfg.ListenAddr, cfg.ListenPort)
	if err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	t.config.Log.Info("Started metrics server", "endpoint", srv.Addr())
	t.metricsServer = srv
	return nil
}

// Stop releases the metrics server and the container runtime. The testnet
// itself is already torn down by the time Start returns.
// Stop implements the cliapp.Lifecycle interface.
func (t *tester) Stop(ctx context.Context) error {
	if !t.running.Swap(false) {
		return nil
	}
	t.config.Log.Info("Stopping movement-cli-e2e")

	var result error
	if t.metricsServer != nil {
		if err := t.metricsServer.Stop(ctx); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to stop metrics server: %w", err))
		}
	}
	if t.closer != nil {
		if err := t.closer.Close(); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to close container runtime: %w", err))
		}
	}
	return result
}

// Stopped implements the cliapp.Lifecycle interface.
func (t *tester) Stopped() bool {
	return !t.running.Load()
}

// Report returns the report of the last run, or nil before Start.
func (t *tester) Report() *Report {
	return t.report
}
