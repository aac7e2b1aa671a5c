package clientmetrics

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/aga/pkg/database"
	"github.com/Ramsey-B/aga/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/aga/pkg/models"
)

const table = "client_metrics"

// Repository reads usage accounting rows. This service never writes them;
// the external job system does.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new client metrics repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListForUser returns every metrics row for the owner
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]models.ClientMetrics, error) {
	ctx, span := tracing.StartSpan(ctx, "clientmetrics.Repository.ListForUser")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "user_auth_id", "num_personalized_leads", "hours_saved", "money_saved")
	sb.From(table)
	sb.Where(sb.Equal("user_auth_id", userID))

	query, args := sb.Build()
	var rows []models.ClientMetrics
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list client metrics")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list client metrics")
	}

	return rows, nil
}
