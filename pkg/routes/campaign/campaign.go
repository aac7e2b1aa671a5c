package campaign

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	ctxutil "github.com/Ramsey-B/aga/pkg/context"
	"github.com/Ramsey-B/aga/pkg/csvcheck"
	"github.com/Ramsey-B/aga/pkg/dashboard"
	"github.com/Ramsey-B/aga/pkg/deletion"
	"github.com/Ramsey-B/aga/pkg/models"
	"github.com/Ramsey-B/aga/pkg/prompts"
	"github.com/Ramsey-B/aga/pkg/submission"
	"github.com/Ramsey-B/aga/pkg/tracing"
)

// maxCSVMemory caps how much of the upload is held in memory while parsing
// the multipart form
const maxCSVMemory = 32 << 20

// Register registers campaign routes
func Register(g *echo.Group) {
	g.POST("", Submit)
	g.DELETE("", DeleteAll)
	g.DELETE("/:name", Delete)
	g.POST("/validate-name", ValidateName)
	g.POST("/validate-csv", ValidateCSV)
}

// Submit accepts a multipart campaign submission and runs the pipeline
func Submit(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "campaign_handler.Submit")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user identity is required")
	}

	req := submission.Request{
		CampaignName:        c.FormValue("campaignName"),
		LeadSource:          models.LeadSource(c.FormValue("leadSource")),
		ApolloURL:           c.FormValue("apolloUrl"),
		Mode:                prompts.Mode(c.FormValue("mode")),
		Strategy:            c.FormValue("strategy"),
		CustomPrompt:        c.FormValue("customPrompt"),
		SendToInstantly:     c.FormValue("sendToInstantly") == "true",
		InstantlyCampaignID: c.FormValue("instantlyCampaignId"),
	}
	if v := c.FormValue("leadCount"); v != "" {
		count, err := strconv.Atoi(v)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "leadCount must be an integer")
		}
		req.LeadCount = count
	}

	if file, err := c.FormFile("csvFile"); err == nil {
		f, err := file.Open()
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "failed to open CSV file")
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, maxCSVMemory))
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "failed to read CSV file")
		}
		req.CSVFileName = file.Filename
		req.CSVFile = data
	}

	ctx, svc, err := ectoinject.GetContext[*submission.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get submission service")
	}

	result, err := svc.Submit(ctx, userID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// ValidateNameRequest is the pre-submission name check body
type ValidateNameRequest struct {
	Name string `json:"name"`
}

// ValidateNameResponse reports whether the name is taken
type ValidateNameResponse struct {
	Name      string `json:"name"`
	Exists    bool   `json:"exists"`
	Available bool   `json:"available"`
}

// ValidateName runs the pre-submission uniqueness check
func ValidateName(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "campaign_handler.ValidateName")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user identity is required")
	}

	var req ValidateNameRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, svc, err := ectoinject.GetContext[*submission.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get submission service")
	}

	exists := svc.CheckName(ctx, userID, req.Name)
	return c.JSON(http.StatusOK, ValidateNameResponse{
		Name:      req.Name,
		Exists:    exists,
		Available: !exists,
	})
}

// ValidateCSV checks an uploaded file's header row without creating anything
func ValidateCSV(c echo.Context) error {
	ctx := c.Request().Context()
	_, span := tracing.StartSpan(ctx, "campaign_handler.ValidateCSV")
	defer span.End()

	file, err := c.FormFile("csvFile")
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "a csvFile upload is required")
	}

	f, err := file.Open()
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "failed to open CSV file")
	}
	defer f.Close()

	result, err := csvcheck.Validate(io.LimitReader(f, maxCSVMemory))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "failed to read CSV file")
	}

	return c.JSON(http.StatusOK, result)
}

// Delete removes one campaign by name. The run to drop from the dashboard is
// identified by the run_id query parameter.
func Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "campaign_handler.Delete")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user identity is required")
	}

	name := c.Param("name")
	runID := c.QueryParam("run_id")

	ctx, svc, err := ectoinject.GetContext[*deletion.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get deletion service")
	}

	result, err := svc.DeleteCampaign(ctx, userID, name, runID, sessionFromContext(ctx))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// DeleteAll removes every campaign owned by the user
func DeleteAll(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "campaign_handler.DeleteAll")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user identity is required")
	}

	ctx, svc, err := ectoinject.GetContext[*deletion.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get deletion service")
	}

	result, err := svc.DeleteAllCampaigns(ctx, userID, sessionFromContext(ctx))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// sessionFromContext resolves the caller's dashboard session, when one is
// open, so deletion can update it optimistically. No session is fine; the
// next refresh or change event converges the projection.
func sessionFromContext(ctx context.Context) *dashboard.Session {
	sessionID := ctxutil.GetSessionID(ctx)
	if sessionID == "" {
		return nil
	}

	_, registry, err := ectoinject.GetContext[*dashboard.Registry](ctx)
	if err != nil {
		return nil
	}
	return registry.Get(sessionID)
}
