package realtime

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/aga/pkg/dashboard"
	"github.com/Ramsey-B/aga/pkg/models"
)

const createEvent = `{
	"payload": {
		"before": null,
		"after": {
			"run_id": "run-1",
			"status": "In Queue",
			"lead_count": 500,
			"source": "Apollo URL",
			"campaign_name": "Spring Outreach",
			"user_auth_id": "user-1"
		},
		"source": {"connector": "postgresql", "db": "aga", "schema": "public", "table": "runs_progress"},
		"op": "c",
		"ts_ms": 1756700000000
	}
}`

const deleteEvent = `{
	"payload": {
		"before": {"run_id": "run-1", "status": "completed", "campaign_name": "Spring Outreach", "user_auth_id": "user-1"},
		"after": null,
		"op": "d",
		"ts_ms": 1756700000000
	}
}`

func TestParseDebeziumMessage(t *testing.T) {
	t.Run("parses a create event and its run row", func(t *testing.T) {
		envelope, err := ParseDebeziumMessage([]byte(createEvent))
		require.NoError(t, err)
		assert.True(t, envelope.Payload.IsCreate())
		assert.Equal(t, "runs_progress", envelope.Payload.Source.Table)

		row, err := envelope.Payload.ParseRunRow()
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, "run-1", row.RunID)
		assert.Equal(t, "In Queue", row.Status)
		require.NotNil(t, row.LeadCount)
		assert.Equal(t, 500, *row.LeadCount)
	})

	t.Run("a delete event carries the before state", func(t *testing.T) {
		envelope, err := ParseDebeziumMessage([]byte(deleteEvent))
		require.NoError(t, err)
		assert.True(t, envelope.Payload.IsDelete())

		row, err := envelope.Payload.ParseRunRow()
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, "completed", row.Status)
	})

	t.Run("a tombstone yields no row", func(t *testing.T) {
		envelope, err := ParseDebeziumMessage([]byte(`{"payload": {"before": null, "after": null, "op": "d"}}`))
		require.NoError(t, err)

		row, err := envelope.Payload.ParseRunRow()
		require.NoError(t, err)
		assert.Nil(t, row)
	})

	t.Run("malformed json is an error", func(t *testing.T) {
		_, err := ParseDebeziumMessage([]byte("not json"))
		assert.Error(t, err)
	})
}

type countingRunLister struct {
	calls int32
}

func (c *countingRunLister) ListRecent(_ context.Context, _ string, _ int) ([]models.Run, error) {
	atomic.AddInt32(&c.calls, 1)
	return []models.Run{{RunID: "run-1", Status: models.RunStatusInQueue}}, nil
}

type emptyMetricsLister struct{}

func (emptyMetricsLister) ListForUser(_ context.Context, _ string) ([]models.ClientMetrics, error) {
	return nil, nil
}

func TestRefreshFanOut(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	t.Run("every registered session is refreshed", func(t *testing.T) {
		lister := &countingRunLister{}
		aggregator := dashboard.NewAggregator(lister, emptyMetricsLister{}, 20, logger)
		registry := dashboard.NewRegistry()
		a := registry.Open("user-a")
		b := registry.Open("user-b")

		consumer := &Consumer{registry: registry, aggregator: aggregator, logger: logger}
		consumer.refreshSessions(context.Background())

		assert.Equal(t, int32(2), atomic.LoadInt32(&lister.calls))
		assert.Len(t, a.Snapshot().Runs, 1)
		assert.Len(t, b.Snapshot().Runs, 1)
	})

	t.Run("a deregistered session is not refreshed", func(t *testing.T) {
		lister := &countingRunLister{}
		aggregator := dashboard.NewAggregator(lister, emptyMetricsLister{}, 20, logger)
		registry := dashboard.NewRegistry()
		kept := registry.Open("user-a")
		gone := registry.Open("user-b")
		registry.Close(gone.ID())

		consumer := &Consumer{registry: registry, aggregator: aggregator, logger: logger}
		consumer.refreshSessions(context.Background())

		assert.Equal(t, int32(1), atomic.LoadInt32(&lister.calls))
		assert.Len(t, kept.Snapshot().Runs, 1)
		assert.Empty(t, gone.Snapshot().Runs)
	})

	t.Run("multiple sessions for one owner each get their own refresh", func(t *testing.T) {
		lister := &countingRunLister{}
		aggregator := dashboard.NewAggregator(lister, emptyMetricsLister{}, 20, logger)
		registry := dashboard.NewRegistry()

		for i := 0; i < 3; i++ {
			registry.Open("user-a")
		}

		consumer := &Consumer{registry: registry, aggregator: aggregator, logger: logger}
		consumer.refreshSessions(context.Background())

		// All three sessions saw a refresh even though the reads coalesce
		// per session, not per owner.
		assert.Equal(t, int32(3), atomic.LoadInt32(&lister.calls))
	})
}
