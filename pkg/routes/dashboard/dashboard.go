package dashboard

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	ctxutil "github.com/Ramsey-B/aga/pkg/context"
	"github.com/Ramsey-B/aga/pkg/dashboard"
	"github.com/Ramsey-B/aga/pkg/tracing"
)

// Register registers dashboard routes
func Register(g *echo.Group) {
	g.GET("", Snapshot)
	g.POST("/refresh", Refresh)
	g.POST("/sessions", OpenSession)
	g.DELETE("/sessions/:id", CloseSession)
}

// SessionResponse is returned when a dashboard session is opened
type SessionResponse struct {
	SessionID string             `json:"session_id"`
	Snapshot  dashboard.Snapshot `json:"snapshot"`
}

// OpenSession registers a dashboard session for the user and primes its
// projection. The returned id goes into the X-Session-ID header of later
// calls; the realtime consumer refreshes the session until it is closed.
func OpenSession(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "dashboard_handler.OpenSession")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user identity is required")
	}

	ctx, registry, err := ectoinject.GetContext[*dashboard.Registry](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get session registry")
	}
	ctx, aggregator, err := ectoinject.GetContext[*dashboard.Aggregator](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get aggregator")
	}

	session := registry.Open(userID)
	aggregator.Refresh(ctx, session)

	return c.JSON(http.StatusCreated, SessionResponse{
		SessionID: session.ID(),
		Snapshot:  session.Snapshot(),
	})
}

// CloseSession deregisters a dashboard session. Closing an unknown or
// already-closed session succeeds; there is nothing left to release.
func CloseSession(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "dashboard_handler.CloseSession")
	defer span.End()

	ctx, registry, err := ectoinject.GetContext[*dashboard.Registry](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get session registry")
	}

	registry.Close(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

// Snapshot returns the dashboard projection. With an open session it serves
// the session's current state; without one it computes a fresh, stateless
// read.
func Snapshot(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "dashboard_handler.Snapshot")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user identity is required")
	}

	ctx, registry, err := ectoinject.GetContext[*dashboard.Registry](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get session registry")
	}

	if sessionID := ctxutil.GetSessionID(ctx); sessionID != "" {
		if session := registry.Get(sessionID); session != nil && session.UserID() == userID {
			return c.JSON(http.StatusOK, session.Snapshot())
		}
	}

	ctx, aggregator, err := ectoinject.GetContext[*dashboard.Aggregator](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get aggregator")
	}

	snapshot, err := statelessSnapshot(ctx, aggregator, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshot)
}

// Refresh recomputes the projection from the store. For a session caller the
// session state is replaced; either way the fresh snapshot is returned.
func Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "dashboard_handler.Refresh")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user identity is required")
	}

	ctx, registry, err := ectoinject.GetContext[*dashboard.Registry](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get session registry")
	}
	ctx, aggregator, err := ectoinject.GetContext[*dashboard.Aggregator](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get aggregator")
	}

	if sessionID := ctxutil.GetSessionID(ctx); sessionID != "" {
		if session := registry.Get(sessionID); session != nil && session.UserID() == userID {
			aggregator.Refresh(ctx, session)
			return c.JSON(http.StatusOK, session.Snapshot())
		}
	}

	snapshot, err := statelessSnapshot(ctx, aggregator, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshot)
}

// statelessSnapshot computes both reads without session state. Failures are
// real errors here; there is no previous projection to fall back on.
func statelessSnapshot(ctx context.Context, aggregator *dashboard.Aggregator, userID string) (dashboard.Snapshot, error) {
	runs, err := aggregator.ListRecentRuns(ctx, userID)
	if err != nil {
		return dashboard.Snapshot{}, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list runs")
	}
	stats, err := aggregator.ClientStats(ctx, userID)
	if err != nil {
		return dashboard.Snapshot{}, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load client metrics")
	}
	return dashboard.Snapshot{Runs: runs, Stats: stats}, nil
}
