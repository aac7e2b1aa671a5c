package profile

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	profilerepo "github.com/Ramsey-B/aga/internal/repositories/profile"
	ctxutil "github.com/Ramsey-B/aga/pkg/context"
	"github.com/Ramsey-B/aga/pkg/models"
	"github.com/Ramsey-B/aga/pkg/prompts"
	"github.com/Ramsey-B/aga/pkg/tracing"
)

// Register registers profile routes
func Register(g *echo.Group) {
	g.GET("", Get)
	g.PUT("/prompts", SavePrompts)
}

// SavePromptsRequest carries the power-user prompt overrides. Omitted or null
// fields clear that override back to the built-in default.
type SavePromptsRequest struct {
	Task       *string `json:"task"`
	Guidelines *string `json:"guidelines"`
	Example    *string `json:"example"`
}

// EffectivePrompts is the task/guidelines/example trio after overrides are
// applied, as the next custom-strategy submission would use them.
type EffectivePrompts struct {
	Task       string `json:"task"`
	Guidelines string `json:"guidelines"`
	Example    string `json:"example"`
}

// SavePromptsResponse returns the saved overrides with their effective values
type SavePromptsResponse struct {
	Overrides models.PromptOverrides `json:"overrides"`
	Effective EffectivePrompts       `json:"effective"`
	Notices   []models.Notice        `json:"notices"`
}

// Get returns the caller's profile. Users without a profile row get an empty
// default profile rather than a 404; the row is created lazily on first save.
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "profile_handler.Get")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user identity is required")
	}

	ctx, repo, err := ectoinject.GetContext[*profilerepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get profile repository")
	}

	profile, err := repo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil {
		profile = &models.Profile{UserID: userID, CreatedAt: time.Now().UTC()}
	}

	return c.JSON(http.StatusOK, profile)
}

// SavePrompts persists the caller's prompt overrides and returns the
// effective prompt set so the client can preview what future submissions
// will send.
func SavePrompts(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "profile_handler.SavePrompts")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user identity is required")
	}

	var req SavePromptsRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, repo, err := ectoinject.GetContext[*profilerepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get profile repository")
	}

	overrides := models.PromptOverrides{
		Task:       req.Task,
		Guidelines: req.Guidelines,
		Example:    req.Example,
	}
	if err := repo.SavePromptOverrides(ctx, userID, overrides); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, SavePromptsResponse{
		Overrides: overrides,
		Effective: effective(overrides),
		Notices:   []models.Notice{models.Info("Success!", "Your prompt settings have been saved.")},
	})
}

func effective(overrides models.PromptOverrides) EffectivePrompts {
	e := EffectivePrompts{
		Task:       prompts.DefaultTask,
		Guidelines: prompts.DefaultGuidelines,
		Example:    prompts.DefaultExample,
	}
	if v := overrides.Task; v != nil && *v != "" {
		e.Task = *v
	}
	if v := overrides.Guidelines; v != nil && *v != "" {
		e.Guidelines = *v
	}
	if v := overrides.Example; v != nil && *v != "" {
		e.Example = *v
	}
	return e
}
