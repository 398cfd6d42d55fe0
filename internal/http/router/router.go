package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/http/handler"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/http/middleware"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/service"
)

type RouterConfig struct {
	SlackSigningSecret string
	SlackVerify        bool
	RateLimitRequests  int
	RateLimitWindow    time.Duration
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	slackHandler := handler.NewSlackEventsHandler(services.Ingest(), cfg.SlackSigningSecret, cfg.SlackVerify)
	SlackRouter(router.Group("/slack"), slackHandler)

	api := router.Group("/api")
	api.Use(middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)))
	{
		dashboardHandler := handler.NewDashboardHandler(services.Dashboard())
		DashboardRouter(api, dashboardHandler)
	}
}
