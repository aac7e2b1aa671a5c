package middleware

import (
	"github.com/Ramsey-B/aga/pkg/context"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// HeaderUserID is the header key for the authenticated user identity.
	// Authentication itself is handled upstream; this service trusts the header.
	HeaderUserID = "X-User-ID"
	// HeaderSessionID identifies a mounted dashboard session
	HeaderSessionID = "X-Session-ID"
)

func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			// get request id from header
			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			userID := req.Header.Get(HeaderUserID)
			sessionID := req.Header.Get(HeaderSessionID)

			ctx := req.Context()
			ctx = context.SetRequestID(ctx, requestID)
			ctx = context.SetMethod(ctx, req.Method)
			ctx = context.SetRoute(ctx, req.URL.Path)
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			ctx = context.SetUserID(ctx, userID)
			ctx = context.SetSessionID(ctx, sessionID)

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
