package campaign

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/aga/pkg/database"
	"github.com/Ramsey-B/aga/pkg/tracing"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/aga/pkg/models"
)

const table = "campaigns"

var columns = []string{
	"id", "user_auth_id", "name", "source", "lead_count", "personalization_strategy",
	"custom_prompt", "instantly_campaign_id", "completed_count", "webhook_payload", "created_at",
}

// Repository handles campaign persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new campaign repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// CreateParams are the write-once fields of a new campaign
type CreateParams struct {
	Name                    string
	Source                  models.LeadSource
	LeadCount               *int
	PersonalizationStrategy *string
	CustomPrompt            *string
}

// Create inserts a new campaign row for the owner
func (r *Repository) Create(ctx context.Context, userID string, params CreateParams) (*models.Campaign, error) {
	ctx, span := tracing.StartSpan(ctx, "campaign.Repository.Create")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":  "Create",
		"user_id": userID,
		"name":    params.Name,
		"source":  params.Source,
	})

	campaign := &models.Campaign{
		ID:                      uuid.New().String(),
		UserAuthID:              userID,
		Name:                    params.Name,
		Source:                  params.Source.Label(),
		LeadCount:               params.LeadCount,
		PersonalizationStrategy: params.PersonalizationStrategy,
		CustomPrompt:            params.CustomPrompt,
		CompletedCount:          0,
		CreatedAt:               time.Now().UTC(),
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(table)
	sb.Cols("id", "user_auth_id", "name", "source", "lead_count", "personalization_strategy",
		"custom_prompt", "instantly_campaign_id", "completed_count", "created_at")
	sb.Values(campaign.ID, campaign.UserAuthID, campaign.Name, campaign.Source, campaign.LeadCount,
		campaign.PersonalizationStrategy, campaign.CustomPrompt, nil, campaign.CompletedCount, campaign.CreatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to create campaign")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create campaign record")
	}

	log.WithFields(map[string]any{"id": campaign.ID}).Info("Created campaign")
	return campaign, nil
}

// Exists reports whether the owner already has a campaign with the given
// name. The name is trimmed first; an empty name never exists. A query
// failure is logged and reported as "does not exist": the check deliberately
// fails open so a store hiccup cannot block a submission.
func (r *Repository) Exists(ctx context.Context, userID, name string) bool {
	ctx, span := tracing.StartSpan(ctx, "campaign.Repository.Exists")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" || userID == "" {
		return false
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id")
	sb.From(table)
	sb.Where(
		sb.Equal("name", name),
		sb.Equal("user_auth_id", userID),
	)
	sb.Limit(1)

	query, args := sb.Build()
	var id string
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.logger.WithContext(ctx).WithError(err).Error("Failed to check campaign name, treating as available")
		}
		return false
	}

	return id != ""
}

// GetRefByName resolves a campaign (id, name) pair by name for the owner.
// Returns nil with no error when no campaign matches.
func (r *Repository) GetRefByName(ctx context.Context, userID, name string) (*models.CampaignRef, error) {
	ctx, span := tracing.StartSpan(ctx, "campaign.Repository.GetRefByName")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name")
	sb.From(table)
	sb.Where(
		sb.Equal("name", name),
		sb.Equal("user_auth_id", userID),
	)

	query, args := sb.Build()
	var ref models.CampaignRef
	if err := r.db.GetContext(ctx, &ref, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to find campaign by name")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find campaign")
	}

	return &ref, nil
}

// Get retrieves a full campaign row by id for the owner
func (r *Repository) Get(ctx context.Context, userID, id string) (*models.Campaign, error) {
	ctx, span := tracing.StartSpan(ctx, "campaign.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("user_auth_id", userID),
	)

	query, args := sb.Build()
	var campaign models.Campaign
	if err := r.db.GetContext(ctx, &campaign, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "campaign not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get campaign")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get campaign")
	}

	return &campaign, nil
}

// AttachWebhookPayload writes the persisted payload snapshot onto the
// campaign row after creation
func (r *Repository) AttachWebhookPayload(ctx context.Context, campaignID string, payload json.RawMessage) error {
	ctx, span := tracing.StartSpan(ctx, "campaign.Repository.AttachWebhookPayload")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(table)
	sb.Set(sb.Assign("webhook_payload", []byte(payload)))
	sb.Where(sb.Equal("id", campaignID))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": campaignID}).
			Error("Failed to attach webhook payload to campaign")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to store webhook payload")
	}

	return nil
}

// ListRefs returns every (id, name) pair owned by the user
func (r *Repository) ListRefs(ctx context.Context, userID string) ([]models.CampaignRef, error) {
	ctx, span := tracing.StartSpan(ctx, "campaign.Repository.ListRefs")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name")
	sb.From(table)
	sb.Where(sb.Equal("user_auth_id", userID))

	query, args := sb.Build()
	var refs []models.CampaignRef
	if err := r.db.SelectContext(ctx, &refs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list campaigns")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list campaigns")
	}

	return refs, nil
}

// DeleteByID removes one campaign row
func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "campaign.Repository.DeleteByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(table)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).
			Error("Failed to delete campaign")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete campaign")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("Deleted campaign")
	return nil
}

// DeleteAllForUser removes every campaign row owned by the user
func (r *Repository) DeleteAllForUser(ctx context.Context, userID string) error {
	ctx, span := tracing.StartSpan(ctx, "campaign.Repository.DeleteAllForUser")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(table)
	sb.Where(sb.Equal("user_auth_id", userID))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete all campaigns for user")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete all campaigns")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"user_id": userID}).Info("Deleted all campaigns for user")
	return nil
}
