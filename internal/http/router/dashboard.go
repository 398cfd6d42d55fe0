package router

import (
	"github.com/gin-gonic/gin"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/http/handler"
)

func DashboardRouter(rg *gin.RouterGroup, h *handler.DashboardHandler) {
	rg.GET("/dashboard", h.Dashboard)
	rg.GET("/activity/:channel_kind", h.Activity)
	rg.GET("/team-workload", h.TeamWorkload)
	rg.GET("/digest", h.Digest)
	rg.GET("/deliverables", h.Deliverables)
}
