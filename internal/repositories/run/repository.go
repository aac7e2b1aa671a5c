package run

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/aga/pkg/database"
	"github.com/Ramsey-B/aga/pkg/tracing"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/aga/pkg/models"
)

const table = "runs_progress"

var columns = []string{"run_id", "status", "lead_count", "source", "campaign_name", "user_auth_id", "created_at"}

// Repository handles run progress persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new run repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new run row in the "In Queue" state with a fresh run id.
// The run id doubles as the correlation id handed to the external job.
func (r *Repository) Create(ctx context.Context, userID, campaignName string, source models.LeadSource, leadCount *int) (*models.Run, error) {
	ctx, span := tracing.StartSpan(ctx, "run.Repository.Create")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":        "Create",
		"user_id":       userID,
		"campaign_name": campaignName,
	})

	run := &models.Run{
		RunID:        uuid.New().String(),
		Status:       models.RunStatusInQueue,
		LeadCount:    leadCount,
		Source:       source.Label(),
		CampaignName: campaignName,
		UserAuthID:   userID,
		CreatedAt:    time.Now().UTC(),
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(table)
	sb.Cols(columns...)
	sb.Values(run.RunID, run.Status, run.LeadCount, run.Source, run.CampaignName, run.UserAuthID, run.CreatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to create run record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create run record")
	}

	log.WithFields(map[string]any{"run_id": run.RunID}).Info("Created run record")
	return run, nil
}

// ListRecent returns up to limit runs for the owner, newest first
func (r *Repository) ListRecent(ctx context.Context, userID string, limit int) ([]models.Run, error) {
	ctx, span := tracing.StartSpan(ctx, "run.Repository.ListRecent")
	defer span.End()

	if limit < 1 {
		limit = 20
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("user_auth_id", userID))
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var runs []models.Run
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list runs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list runs")
	}

	return runs, nil
}

// DeleteByRunID removes one run row owned by the user
func (r *Repository) DeleteByRunID(ctx context.Context, userID, runID string) error {
	ctx, span := tracing.StartSpan(ctx, "run.Repository.DeleteByRunID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(table)
	sb.Where(
		sb.Equal("run_id", runID),
		sb.Equal("user_auth_id", userID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": runID}).
			Error("Failed to delete run")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete run")
	}

	return nil
}

// DeleteByCampaignNames removes every run row whose campaign_name is in the
// given set. Runs join to campaigns by name, not id, so this is how bulk
// deletion clears the dashboard.
func (r *Repository) DeleteByCampaignNames(ctx context.Context, userID string, names []string) error {
	ctx, span := tracing.StartSpan(ctx, "run.Repository.DeleteByCampaignNames")
	defer span.End()

	if len(names) == 0 {
		return nil
	}

	vals := make([]any, 0, len(names))
	for _, name := range names {
		vals = append(vals, name)
	}

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(table)
	sb.Where(
		sb.In("campaign_name", vals...),
		sb.Equal("user_auth_id", userID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete runs by campaign names")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete runs")
	}

	return nil
}
