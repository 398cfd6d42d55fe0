package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/br00kd0wnt0n/LENNYBOT/common/logger"
)

// slackRetryHeader is set by Slack when it redelivers an event.
const slackRetryHeader = "X-Slack-Retry-Num"

// Logger attaches request log fields to the request context, then logs one
// line per request. Health and metrics scrapes are logged at debug.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		fields := logger.LogFields{Component: "pulse.http"}
		if kind := c.Param("channel_kind"); kind != "" {
			fields.ChannelKind = logger.Ptr(kind)
		}
		ctx := logger.WithLogFields(c.Request.Context(), fields)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"route", routeOf(c),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if c.Request.URL.RawQuery != "" {
			attrs = append(attrs, "query", c.Request.URL.RawQuery)
		}
		if retry := c.GetHeader(slackRetryHeader); retry != "" {
			attrs = append(attrs,
				"slack_retry_num", retry,
				"slack_retry_reason", c.GetHeader("X-Slack-Retry-Reason"))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			slog.ErrorContext(ctx, "request failed", attrs...)
		case status >= 400:
			slog.WarnContext(ctx, "request rejected", attrs...)
		case c.FullPath() == "/health" || c.FullPath() == "/metrics":
			slog.DebugContext(ctx, "request", attrs...)
		default:
			slog.InfoContext(ctx, "request", attrs...)
		}
	}
}
