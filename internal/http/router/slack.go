package router

import (
	"github.com/gin-gonic/gin"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/http/handler"
)

func SlackRouter(rg *gin.RouterGroup, h *handler.SlackEventsHandler) {
	rg.POST("/events", h.HandleEvent)
}
