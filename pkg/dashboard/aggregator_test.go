package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/aga/pkg/models"
)

type fakeRunLister struct {
	mu    sync.Mutex
	runs  []models.Run
	err   error
	calls int32
	delay time.Duration
}

func (f *fakeRunLister) ListRecent(_ context.Context, _ string, _ int) ([]models.Run, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs, f.err
}

type fakeMetricsLister struct {
	rows []models.ClientMetrics
	err  error
}

func (f *fakeMetricsLister) ListForUser(_ context.Context, _ string) ([]models.ClientMetrics, error) {
	return f.rows, f.err
}

func ptr(s string) *string { return &s }

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestAggregator(t *testing.T) {
	ctx := context.Background()

	t.Run("sums metrics rows treating non-numeric values as zero", func(t *testing.T) {
		metrics := &fakeMetricsLister{rows: []models.ClientMetrics{
			{NumPersonalizedLeads: ptr("2"), HoursSaved: ptr("1"), MoneySaved: ptr("10")},
			{NumPersonalizedLeads: ptr("3"), HoursSaved: ptr("x"), MoneySaved: ptr("5")},
		}}
		agg := NewAggregator(&fakeRunLister{}, metrics, 20, testLogger())

		stats, err := agg.ClientStats(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, models.ClientStats{TotalMessages: 5, HoursSaved: 1, MoneySaved: 15}, stats)
	})

	t.Run("resolves status views at the read boundary", func(t *testing.T) {
		runs := &fakeRunLister{runs: []models.Run{
			{RunID: "r1", Status: "Check Instantly Campaign"},
			{RunID: "r2", Status: "processing"},
		}}
		agg := NewAggregator(runs, &fakeMetricsLister{}, 20, testLogger())

		views, err := agg.ListRecentRuns(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, models.RunStatusKindExternalLink, views[0].StatusView.Kind)
		assert.Equal(t, "https://app.instantly.ai/app/campaign/r1/leads", views[0].StatusView.Link)
		assert.Equal(t, models.RunStatusKindProcessing, views[1].StatusView.Kind)
	})

	t.Run("refresh replaces both projections", func(t *testing.T) {
		runs := &fakeRunLister{runs: []models.Run{{RunID: "r1", Status: models.RunStatusInQueue}}}
		metrics := &fakeMetricsLister{rows: []models.ClientMetrics{{MoneySaved: ptr("7")}}}
		agg := NewAggregator(runs, metrics, 20, testLogger())

		registry := NewRegistry()
		session := registry.Open("user-1")
		agg.Refresh(ctx, session)

		snap := session.Snapshot()
		require.Len(t, snap.Runs, 1)
		assert.Equal(t, "r1", snap.Runs[0].RunID)
		assert.Equal(t, 7, snap.Stats.MoneySaved)
	})

	t.Run("a failed read keeps that part of the previous projection", func(t *testing.T) {
		runs := &fakeRunLister{err: errors.New("store down")}
		metrics := &fakeMetricsLister{rows: []models.ClientMetrics{{HoursSaved: ptr("3")}}}
		agg := NewAggregator(runs, metrics, 20, testLogger())

		registry := NewRegistry()
		session := registry.Open("user-1")
		session.SetRuns([]models.RunView{{Run: models.Run{RunID: "old"}}})

		agg.Refresh(ctx, session)

		snap := session.Snapshot()
		require.Len(t, snap.Runs, 1)
		assert.Equal(t, "old", snap.Runs[0].RunID)
		assert.Equal(t, 3, snap.Stats.HoursSaved)
	})

	t.Run("concurrent refreshes of one session are coalesced", func(t *testing.T) {
		runs := &fakeRunLister{delay: 50 * time.Millisecond}
		agg := NewAggregator(runs, &fakeMetricsLister{}, 20, testLogger())

		registry := NewRegistry()
		session := registry.Open("user-1")

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				agg.Refresh(ctx, session)
			}()
		}
		wg.Wait()

		assert.Less(t, atomic.LoadInt32(&runs.calls), int32(5))
	})
}

func TestSession(t *testing.T) {
	t.Run("remove run drops only the matching run", func(t *testing.T) {
		registry := NewRegistry()
		session := registry.Open("user-1")
		session.SetRuns([]models.RunView{
			{Run: models.Run{RunID: "r1"}},
			{Run: models.Run{RunID: "r2"}},
		})

		session.RemoveRun("r1")

		snap := session.Snapshot()
		require.Len(t, snap.Runs, 1)
		assert.Equal(t, "r2", snap.Runs[0].RunID)
	})

	t.Run("clear empties runs and zeroes stats", func(t *testing.T) {
		registry := NewRegistry()
		session := registry.Open("user-1")
		session.SetRuns([]models.RunView{{Run: models.Run{RunID: "r1"}}})
		session.SetStats(models.ClientStats{MoneySaved: 10})

		session.Clear()

		snap := session.Snapshot()
		assert.Empty(t, snap.Runs)
		assert.Equal(t, models.ClientStats{}, snap.Stats)
	})

	t.Run("closing a session deregisters it", func(t *testing.T) {
		registry := NewRegistry()
		session := registry.Open("user-1")
		require.NotNil(t, registry.Get(session.ID()))

		registry.Close(session.ID())
		assert.Nil(t, registry.Get(session.ID()))
		assert.Empty(t, registry.All())
	})
}
