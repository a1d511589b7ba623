package results

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movemntdev/movement-cli-e2e/types"
)

func TestCollectorOrdering(t *testing.T) {
	c := NewCollector()
	c.RecordPass("init")
	c.RecordFail("account_fund_with_faucet", types.NewFailureDetail(errors.New("no funds")))
	c.Record(types.Passed("account_create", time.Second))

	passed, failed := c.Summary()
	assert.Equal(t, []string{"init", "account_create"}, passed)
	require.Len(t, failed, 1)
	assert.Equal(t, "account_fund_with_faucet", failed[0].Name)
	assert.Equal(t, "no funds", failed[0].Detail.Message())

	assert.Equal(t, 3, c.Total())
	assert.Equal(t, len(passed)+len(failed), c.Total())
	assert.False(t, c.Succeeded())

	outcomes := c.Outcomes()
	require.Len(t, outcomes, 3)
	assert.Equal(t, "account_create", outcomes[2].Name)
	assert.Equal(t, time.Second, outcomes[2].Duration)
}

func TestCollectorSummaryReturnsCopies(t *testing.T) {
	c := NewCollector()
	c.RecordPass("init")

	passed, _ := c.Summary()
	passed[0] = "mutated"

	again, _ := c.Summary()
	assert.Equal(t, "init", again[0])
}

func TestEmptyCollectorSucceeds(t *testing.T) {
	c := NewCollector()
	assert.True(t, c.Succeeded())
	assert.Zero(t, c.Total())
	passed, failed := c.Summary()
	assert.Empty(t, passed)
	assert.Empty(t, failed)
}
