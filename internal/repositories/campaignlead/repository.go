package campaignlead

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/aga/pkg/database"
	"github.com/Ramsey-B/aga/pkg/tracing"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/aga/pkg/models"
)

const table = "campaign_leads"

// Repository handles campaign lead persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new campaign lead repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// CreatePlaceholder inserts the initial lead row for a just-created campaign.
// The source picks which cache column starts as an empty object; the other
// stays NULL.
func (r *Repository) CreatePlaceholder(ctx context.Context, campaignID string, source models.LeadSource) (*models.CampaignLead, error) {
	ctx, span := tracing.StartSpan(ctx, "campaignlead.Repository.CreatePlaceholder")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":      "CreatePlaceholder",
		"campaign_id": campaignID,
		"source":      source,
	})

	lead := &models.CampaignLead{
		ID:         uuid.New().String(),
		CampaignID: campaignID,
		LeadData:   []byte(`{}`),
	}

	emptyObject := database.JSONB[map[string]any]{Data: map[string]any{}}

	var apolloCache, csvCache any
	if source == models.LeadSourceApollo {
		apolloCache = emptyObject
		lead.ApolloCache = []byte(`{}`)
	} else {
		csvCache = emptyObject
		lead.CSVCache = []byte(`{}`)
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(table)
	sb.Cols("id", "campaign_id", "lead_data", "apollo_cache", "csv_cache")
	sb.Values(lead.ID, lead.CampaignID, emptyObject, apolloCache, csvCache)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to create campaign lead")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create campaign lead")
	}

	log.WithFields(map[string]any{"id": lead.ID}).Info("Created campaign lead placeholder")
	return lead, nil
}

// DeleteByCampaignID removes every lead row referencing the campaign
func (r *Repository) DeleteByCampaignID(ctx context.Context, campaignID string) error {
	return r.DeleteByCampaignIDs(ctx, []string{campaignID})
}

// DeleteByCampaignIDs removes every lead row referencing any of the campaigns
func (r *Repository) DeleteByCampaignIDs(ctx context.Context, campaignIDs []string) error {
	ctx, span := tracing.StartSpan(ctx, "campaignlead.Repository.DeleteByCampaignIDs")
	defer span.End()

	if len(campaignIDs) == 0 {
		return nil
	}

	ids := make([]any, 0, len(campaignIDs))
	for _, id := range campaignIDs {
		ids = append(ids, id)
	}

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(table)
	sb.Where(sb.In("campaign_id", ids...))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"campaign_ids": campaignIDs}).
			Error("Failed to delete campaign leads")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete campaign leads")
	}

	return nil
}
