// Package results accumulates test outcomes for a single run.
package results

import (
	"github.com/movemntdev/movement-cli-e2e/types"
)

// Collector holds the ordered outcomes of one run. It is not safe for
// concurrent use; test cases run strictly one after another.
type Collector struct {
	outcomes []types.TestOutcome
	passed   []string
	failed   []types.Failure
}

func NewCollector() *Collector {
	return &Collector{}
}

// Record appends an outcome.
func (c *Collector) Record(outcome types.TestOutcome) {
	c.outcomes = append(c.outcomes, outcome)
	if outcome.Status == types.TestStatusPass {
		c.passed = append(c.passed, outcome.Name)
		return
	}
	var detail types.FailureDetail
	if outcome.Detail != nil {
		detail = *outcome.Detail
	}
	c.failed = append(c.failed, types.Failure{Name: outcome.Name, Detail: detail})
}

func (c *Collector) RecordPass(name string) {
	c.Record(types.Passed(name, 0))
}

func (c *Collector) RecordFail(name string, detail types.FailureDetail) {
	c.Record(types.Failed(name, detail, 0))
}

// Summary returns copies of the passed names and failed entries, in the order
// they were recorded.
func (c *Collector) Summary() ([]string, []types.Failure) {
	passed := make([]string, len(c.passed))
	copy(passed, c.passed)
	failed := make([]types.Failure, len(c.failed))
	copy(failed, c.failed)
	return passed, failed
}

// Outcomes returns a copy of every recorded outcome.
func (c *Collector) Outcomes() []types.TestOutcome {
	out := make([]types.TestOutcome, len(c.outcomes))
	copy(out, c.outcomes)
	return out
}

func (c *Collector) Total() int {
	return len(c.outcomes)
}

// Succeeded reports whether no failures were recorded.
func (c *Collector) Succeeded() bool {
	return len(c.failed) == 0
}
