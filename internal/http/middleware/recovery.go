package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/br00kd0wnt0n/LENNYBOT/common/logger"
	"github.com/br00kd0wnt0n/LENNYBOT/common/metrics"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/http/dto"
)

// Recovery turns a handler panic into a generic 500. A panic while handling
// a Slack event therefore makes Slack redeliver it.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			route := routeOf(c)
			metrics.HTTPPanics.WithLabelValues(route).Inc()

			ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
				Component: "pulse.http.recovery",
			})
			slog.ErrorContext(ctx, "panic recovered",
				"error", rec,
				"method", c.Request.Method,
				"route", route,
				"stack", string(debug.Stack()))

			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		}()
		c.Next()
	}
}

// routeOf returns the matched route pattern, keeping metric labels bounded.
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
