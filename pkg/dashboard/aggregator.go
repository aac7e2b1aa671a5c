// Package dashboard computes and holds the per-session run list and usage
// stats projections.
package dashboard

import (
	"context"
	"sync"

	"github.com/Gobusters/ectologger"
	"golang.org/x/sync/singleflight"

	"github.com/Ramsey-B/aga/pkg/models"
	"github.com/Ramsey-B/aga/pkg/tracing"
)

// RunLister reads recent runs for an owner
type RunLister interface {
	ListRecent(ctx context.Context, userID string, limit int) ([]models.Run, error)
}

// MetricsLister reads usage accounting rows for an owner
type MetricsLister interface {
	ListForUser(ctx context.Context, userID string) ([]models.ClientMetrics, error)
}

// Aggregator recomputes the dashboard projections. Both reads are idempotent
// and side-effect-free; Refresh runs them concurrently and tolerates each
// failing independently, keeping that part of the previous projection.
type Aggregator struct {
	runs    RunLister
	metrics MetricsLister
	limit   int
	logger  ectologger.Logger

	// coalesces concurrent refreshes of the same session
	group singleflight.Group
}

// NewAggregator creates a new aggregator. The limit caps the run history
// length per owner.
func NewAggregator(runs RunLister, metrics MetricsLister, limit int, logger ectologger.Logger) *Aggregator {
	if limit < 1 {
		limit = 20
	}
	return &Aggregator{
		runs:    runs,
		metrics: metrics,
		limit:   limit,
		logger:  logger,
	}
}

// ListRecentRuns loads the owner's recent runs with resolved status views
func (a *Aggregator) ListRecentRuns(ctx context.Context, userID string) ([]models.RunView, error) {
	ctx, span := tracing.StartSpan(ctx, "dashboard.Aggregator.ListRecentRuns")
	defer span.End()

	runs, err := a.runs.ListRecent(ctx, userID, a.limit)
	if err != nil {
		return nil, err
	}

	views := make([]models.RunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, models.RunView{
			Run:        run,
			StatusView: models.ResolveRunStatus(run.Status, run.RunID),
		})
	}

	return views, nil
}

// ClientStats sums every metrics row for the owner into the dashboard
// triple. Counter values arrive as text; non-numeric or absent values count
// as zero.
func (a *Aggregator) ClientStats(ctx context.Context, userID string) (models.ClientStats, error) {
	ctx, span := tracing.StartSpan(ctx, "dashboard.Aggregator.ClientStats")
	defer span.End()

	rows, err := a.metrics.ListForUser(ctx, userID)
	if err != nil {
		return models.ClientStats{}, err
	}

	var stats models.ClientStats
	for _, row := range rows {
		stats.Add(row)
	}

	return stats, nil
}

// Refresh recomputes both projections for the session and replaces them
// outright. Concurrent refreshes of the same session are coalesced; every
// caller observes the shared outcome.
func (a *Aggregator) Refresh(ctx context.Context, session *Session) {
	_, _, _ = a.group.Do(session.ID(), func() (any, error) {
		a.refresh(ctx, session)
		return nil, nil
	})
}

func (a *Aggregator) refresh(ctx context.Context, session *Session) {
	ctx, span := tracing.StartSpan(ctx, "dashboard.Aggregator.Refresh")
	defer span.End()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		runs, err := a.ListRecentRuns(ctx, session.UserID())
		if err != nil {
			a.logger.WithContext(ctx).WithError(err).Error("Failed to refresh run list")
			return
		}
		session.SetRuns(runs)
	}()

	go func() {
		defer wg.Done()
		stats, err := a.ClientStats(ctx, session.UserID())
		if err != nil {
			a.logger.WithContext(ctx).WithError(err).Error("Failed to refresh client stats")
			return
		}
		session.SetStats(stats)
	}()

	wg.Wait()
}
