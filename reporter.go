package e2e

import (
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/movemntdev/movement-cli-e2e/metrics"
	"github.com/movemntdev/movement-cli-e2e/reporting"
)

// Reporter publishes the report of a finished run.
type Reporter interface {
	Report(r *Report)
}

// DefaultReporter logs the results, prints the results table, writes
// summary.log into the working directory and records run metrics.
type DefaultReporter struct {
	out io.Writer
	log log.Logger
}

var _ Reporter = (*DefaultReporter)(nil)

// NewDefaultReporter creates a new DefaultReporter. A nil out prints to stdout.
func NewDefaultReporter(out io.Writer, logger log.Logger) *DefaultReporter {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = log.New()
	}
	return &DefaultReporter{out: out, log: logger}
}

func (d *DefaultReporter) Report(r *Report) {
	passed, failed := r.Results.Summary()
	failedNames := make([]string, 0, len(failed))
	for _, f := range failed {
		failedNames = append(failedNames, f.Name)
	}
	d.log.Info("Passed tests", "count", len(passed), "tests", strings.Join(passed, ", "))
	if len(failed) > 0 {
		d.log.Error("Failed tests", "count", len(failed), "tests", strings.Join(failedNames, ", "))
	}
	for _, f := range failed {
		d.log.Error("Failure", "test", f.Name, "kind", f.Detail.Kind, "command", f.Detail.Command, "err", f.Detail.Message())
	}
	if r.TranscriptDir != "" {
		d.log.Info("CLI transcripts", "dir", r.TranscriptDir)
	}
	if r.Fatal != nil {
		d.log.Error("Run aborted", "state", r.State, "err", r.Fatal)
	}

	summary := r.Summary()
	reporting.RenderTable(d.out, summary)

	if r.WorkDir != "" {
		if err := os.MkdirAll(r.WorkDir, 0755); err != nil {
			d.log.Warn("Failed to create working directory for summary", "dir", r.WorkDir, "err", err)
		} else if path, err := reporting.WriteSummary(r.WorkDir, summary); err != nil {
			d.log.Warn("Failed to write summary", "err", err)
		} else {
			d.log.Info("Wrote summary", "path", path)
		}
	}

	d.recordMetrics(r, summary)
}

func (d *DefaultReporter) recordMetrics(r *Report, s reporting.Summary) {
	network := r.Network.String()
	for _, o := range s.Outcomes {
		metrics.RecordTest(network, r.RunID, o.Name, o.Status, o.Duration)
	}
	if r.StartupDuration > 0 {
		metrics.RecordStartup(network, r.RunID, r.StartupDuration)
	}
	if r.Fatal != nil {
		metrics.RecordErrorDetails(r.State.String(), r.Fatal)
	}
	metrics.RecordRun(network, r.RunID, string(s.Status()), s.Passed(), s.Failed(), r.Duration)
}
