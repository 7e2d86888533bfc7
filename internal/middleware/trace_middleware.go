package middleware

import (
	"context"
	"sellerLab/business/experiment"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const TraceHeader = "X-Trace-Id"

// TraceMiddleware attaches a trace id to every request context so service
// logs can be correlated. An incoming X-Trace-Id header is honored.
func TraceMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			traceID := c.Request().Header.Get(TraceHeader)
			if traceID == "" {
				traceID = uuid.New().String()
			}

			ctx := context.WithValue(c.Request().Context(), experiment.TraceIDKey, traceID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set(TraceHeader, traceID)

			return next(c)
		}
	}
}
