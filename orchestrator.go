package e2e

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/movemntdev/movement-cli-e2e/cases"
	"github.com/movemntdev/movement-cli-e2e/node"
	"github.com/movemntdev/movement-cli-e2e/reporting"
	"github.com/movemntdev/movement-cli-e2e/results"
	"github.com/movemntdev/movement-cli-e2e/runhelper"
	"github.com/movemntdev/movement-cli-e2e/types"
)

// TracerName is the instrumentation name of the run spans.
const TracerName = "orchestrator"

// StopTimeout bounds teardown. Teardown runs on a context detached from the
// run, so an interrupted run still removes its container.
const StopTimeout = 30 * time.Second

// State is a step of a run. A run only ever moves forward.
type State int

const (
	StateIdle State = iota
	StateNodeStarting
	StateNodeReady
	StateContextPreparing
	StateContextReady
	StateRunningTests
	StateNodeStopping
	StateReporting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNodeStarting:
		return "node-starting"
	case StateNodeReady:
		return "node-ready"
	case StateContextPreparing:
		return "context-preparing"
	case StateContextReady:
		return "context-ready"
	case StateRunningTests:
		return "running-tests"
	case StateNodeStopping:
		return "node-stopping"
	case StateReporting:
		return "reporting"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Report is the result of one run.
//
// State is Done for a run that got through its tests. For an aborted run it
// stays at the step that failed, and Fatal holds the cause. History lists
// every step entered, including teardown and reporting of aborted runs.
type Report struct {
	RunID           string
	Network         types.Network
	WorkDir         string
	TranscriptDir   string // Empty when the run aborted before preparing
	State           State
	History         []State
	Results         *results.Collector
	Fatal           error
	Duration        time.Duration
	StartupDuration time.Duration
}

// Succeeded reports whether the run completed and no test failed.
func (r *Report) Succeeded() bool {
	return r.Fatal == nil && r.Results.Succeeded()
}

// Summary converts the report for rendering.
func (r *Report) Summary() reporting.Summary {
	return reporting.Summary{
		RunID:    r.RunID,
		Network:  r.Network,
		State:    r.State.String(),
		Fatal:    r.Fatal,
		Outcomes: r.Results.Outcomes(),
		Duration: r.Duration,
	}
}

func (r *Report) enter(s State) {
	r.History = append(r.History, s)
	if r.Fatal == nil {
		r.State = s
	}
}

func (r *Report) abort(err error) {
	if r.Fatal == nil {
		r.Fatal = err
	}
}

// Orchestrator sequences a run: start the node, prepare the CLI, run each
// case, stop the node, report.
type Orchestrator struct {
	cfg       *Config
	lifecycle node.Lifecycle
	runtime   node.Runtime
	cases     []cases.TestCase
	reporter  Reporter
	tracer    trace.Tracer
	log       log.Logger
}

type OrchestratorOption func(*Orchestrator)

// WithTracerProvider traces runs with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) OrchestratorOption {
	return func(o *Orchestrator) {
		o.tracer = tp.Tracer(TracerName)
	}
}

func NewOrchestrator(cfg *Config, lifecycle node.Lifecycle, runtime node.Runtime, testCases []cases.TestCase, reporter Reporter, opts ...OrchestratorOption) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Identity.Validate(); err != nil {
		return nil, err
	}
	if lifecycle == nil {
		return nil, errors.New("node lifecycle is required")
	}
	if reporter == nil {
		return nil, errors.New("reporter is required")
	}
	if len(testCases) == 0 {
		return nil, errors.New("at least one test case is required")
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.New()
	}
	o := &Orchestrator{
		cfg:       cfg,
		lifecycle: lifecycle,
		runtime:   runtime,
		cases:     testCases,
		reporter:  reporter,
		tracer:    otel.Tracer(TracerName),
		log:       logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run performs one full run. It never panics on behalf of a test case and
// always hands its report to the reporter before returning it.
func (o *Orchestrator) Run(ctx context.Context) *Report {
	start := time.Now()
	report := &Report{
		RunID:   uuid.New().String(),
		Network: o.cfg.Network,
		WorkDir: o.cfg.WorkDir,
		State:   StateIdle,
		History: []State{StateIdle},
		Results: results.NewCollector(),
	}
	ctx, span := o.tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("run_id", report.RunID),
		attribute.String("network", report.Network.String()),
	))
	defer span.End()
	o.log.Info("Starting run", "run_id", report.RunID, "network", report.Network, "cli", o.cfg.Identity)

	o.runWithNode(ctx, report)

	report.Duration = time.Since(start)
	_, endReporting := o.startState(ctx, report, StateReporting)
	o.reporter.Report(report)
	endReporting(nil)
	report.enter(StateDone)

	switch {
	case report.Fatal != nil:
		span.RecordError(report.Fatal)
		span.SetStatus(codes.Error, fmt.Sprintf("aborted in %s", report.State))
	case !report.Succeeded():
		_, failed := report.Results.Summary()
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d tests failed", len(failed), report.Results.Total()))
	}

	o.log.Info("Run finished", "run_id", report.RunID, "state", report.State, "succeeded", report.Succeeded())
	return report
}

// startState enters s and opens its span. The returned func ends the span,
// marking it failed when err is non-nil.
func (o *Orchestrator) startState(ctx context.Context, report *Report, s State) (context.Context, func(error)) {
	report.enter(s)
	ctx, span := o.tracer.Start(ctx, fmt.Sprintf("state %s", s))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func (o *Orchestrator) runWithNode(ctx context.Context, report *Report) {
	startCtx, endStart := o.startState(ctx, report, StateNodeStarting)
	startedAt := time.Now()
	handle, err := o.lifecycle.Start(startCtx, o.cfg.Network, o.cfg.ImageRepo)
	defer func() {
		stopCtx, endStop := o.startState(context.WithoutCancel(ctx), report, StateNodeStopping)
		stopCtx, cancel := context.WithTimeout(stopCtx, StopTimeout)
		defer cancel()
		o.lifecycle.Stop(stopCtx, handle)
		endStop(nil)
	}()
	if err != nil {
		o.log.Error("Failed to start local testnet", "err", err)
		endStart(err)
		report.abort(err)
		return
	}
	if err := o.lifecycle.WaitForStartup(startCtx, handle, o.cfg.StartupTimeout); err != nil {
		o.log.Error("Local testnet did not become ready", "err", err)
		endStart(err)
		report.abort(err)
		return
	}
	endStart(nil)
	report.StartupDuration = time.Since(startedAt)
	_, endReady := o.startState(ctx, report, StateNodeReady)
	endReady(nil)

	prepareCtx, endPrepare := o.startState(ctx, report, StateContextPreparing)
	helper, err := o.prepare(prepareCtx)
	endPrepare(err)
	if err != nil {
		o.log.Error("Failed to prepare the CLI under test", "err", err)
		report.abort(err)
		return
	}
	report.TranscriptDir = helper.TranscriptDir()
	_, endContextReady := o.startState(ctx, report, StateContextReady)
	endContextReady(nil)

	testsCtx, endTests := o.startState(ctx, report, StateRunningTests)
	o.runTests(testsCtx, helper, report.Results)
	endTests(nil)
}

// prepare resets the working directory and readies the CLI under test.
func (o *Orchestrator) prepare(ctx context.Context) (*runhelper.RunHelper, error) {
	if err := os.RemoveAll(o.cfg.WorkDir); err != nil {
		return nil, fmt.Errorf("failed to reset working directory %s: %w", o.cfg.WorkDir, err)
	}
	if err := os.MkdirAll(o.cfg.WorkDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create working directory %s: %w", o.cfg.WorkDir, err)
	}

	helper, err := runhelper.New(runhelper.Config{
		WorkDir:   o.cfg.WorkDir,
		ImageRepo: o.cfg.ImageRepo,
		Identity:  o.cfg.Identity,
		NodeURL:   o.cfg.NodeURL,
		FaucetURL: o.cfg.FaucetURL,
		Runtime:   o.runtime,
		Log:       o.log,
	})
	if err != nil {
		return nil, err
	}
	if err := helper.Prepare(ctx); err != nil {
		return nil, err
	}
	o.log.Info("CLI under test is ready", "cli", o.cfg.Identity, "workdir", o.cfg.WorkDir)
	return helper, nil
}

// runTests records exactly one outcome per case, in order.
func (o *Orchestrator) runTests(ctx context.Context, helper *runhelper.RunHelper, collector *results.Collector) {
	for _, tc := range o.cases {
		o.runTest(ctx, helper, collector, tc)
	}
}

func (o *Orchestrator) runTest(ctx context.Context, helper *runhelper.RunHelper, collector *results.Collector, tc cases.TestCase) {
	testCtx, span := o.tracer.Start(ctx, fmt.Sprintf("test %s", tc.Name))
	defer span.End()

	if err := ctx.Err(); err != nil {
		detail := types.NewFailureDetail(fmt.Errorf("not run: %w", err))
		o.failSpan(span, detail)
		collector.Record(types.Failed(tc.Name, detail, 0))
		o.writeFailure(helper, tc.Name, detail)
		return
	}

	start := time.Now()
	err := tc.Run(testCtx, o.log, helper)
	duration := time.Since(start)
	if err == nil {
		collector.Record(types.Passed(tc.Name, duration))
		return
	}

	detail := types.NewFailureDetail(err)
	o.log.Error("Test failed", "test", tc.Name, "kind", detail.Kind, "err", detail.Message())
	o.failSpan(span, detail)
	collector.Record(types.Failed(tc.Name, detail, duration))
	o.writeFailure(helper, tc.Name, detail)
}

func (o *Orchestrator) failSpan(span trace.Span, detail types.FailureDetail) {
	span.RecordError(detail.Err, trace.WithAttributes(attribute.String("failure.kind", string(detail.Kind))))
	span.SetStatus(codes.Error, detail.Message())
}

func (o *Orchestrator) writeFailure(helper *runhelper.RunHelper, name string, detail types.FailureDetail) {
	path, err := helper.WriteFailure(name, detail)
	if err != nil {
		o.log.Warn("Failed to write failure file", "test", name, "err", err)
		return
	}
	o.log.Debug("Wrote failure file", "test", name, "path", path)
}
