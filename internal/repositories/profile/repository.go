package profile

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/aga/pkg/database"
	"github.com/Ramsey-B/aga/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/aga/pkg/models"
)

const table = "profiles"

// Repository manages user profiles and their prompt overrides
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new profile repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByUserID returns the profile for a user. Returns nil (no error) when
// the user has no profile row yet.
func (r *Repository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	ctx, span := tracing.StartSpan(ctx, "profile.Repository.GetByUserID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("user_id", "email", "is_power_user", "prompt_task", "prompt_guidelines", "prompt_example", "prompts_updated_at", "created_at")
	sb.From(table)
	sb.Where(sb.Equal("user_id", userID))

	query, args := sb.Build()
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get profile")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get profile")
	}

	return &profile, nil
}

// SavePromptOverrides upserts the power-user prompt overrides for a user.
// Nil fields clear an override back to the built-in default.
func (r *Repository) SavePromptOverrides(ctx context.Context, userID string, overrides models.PromptOverrides) error {
	ctx, span := tracing.StartSpan(ctx, "profile.Repository.SavePromptOverrides")
	defer span.End()

	now := time.Now().UTC()

	ib := database.NewInsertBuilder()
	ib.InsertInto(table)
	ib.Cols("user_id", "prompt_task", "prompt_guidelines", "prompt_example", "prompts_updated_at")
	ib.Values(userID, overrides.Task, overrides.Guidelines, overrides.Example, now)
	ub := ib.OnConflict("user_id")
	ub.Set(
		ub.Assign("prompt_task", database.Excluded("prompt_task")),
		ub.Assign("prompt_guidelines", database.Excluded("prompt_guidelines")),
		ub.Assign("prompt_example", database.Excluded("prompt_example")),
		ub.Assign("prompts_updated_at", database.Excluded("prompts_updated_at")),
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to save prompt overrides")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save prompt overrides")
	}

	return nil
}
