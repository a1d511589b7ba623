// Package reporting renders the outcome of a run for people: a results
// table on the console and a summary file in the working directory.
package reporting

import (
	"fmt"
	"time"

	"github.com/movemntdev/movement-cli-e2e/types"
)

const SummaryFilename = "summary.log"

// Summary is everything reported about one run.
type Summary struct {
	RunID    string
	Network  types.Network
	State    string
	Fatal    error
	Outcomes []types.TestOutcome
	Duration time.Duration
}

// Passed returns the number of passed outcomes.
func (s Summary) Passed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == types.TestStatusPass {
			n++
		}
	}
	return n
}

func (s Summary) Failed() int {
	return len(s.Outcomes) - s.Passed()
}

// Status is pass iff the run was not aborted and nothing failed.
func (s Summary) Status() types.TestStatus {
	if s.Fatal != nil || s.Failed() > 0 {
		return types.TestStatusFail
	}
	return types.TestStatusPass
}

func getResultString(status types.TestStatus) string {
	switch status {
	case types.TestStatusPass:
		return "✓ pass"
	default:
		return "✗ fail"
	}
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
