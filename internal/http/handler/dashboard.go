package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/http/dto"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/service"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(service service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	dashboard, err := h.service.Dashboard(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "dashboard query failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to fetch dashboard data"})
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func (h *DashboardHandler) Activity(c *gin.Context) {
	ctx := c.Request.Context()

	var query dto.ActivityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid limit or offset"})
		return
	}

	kind := model.ChannelKind(c.Param("channel_kind"))
	msgs, err := h.service.Activity(ctx, kind, query.Limit, query.Offset)
	if err != nil {
		if errors.Is(err, service.ErrInvalidChannelKind) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid channel kind"})
			return
		}
		slog.ErrorContext(ctx, "activity query failed", "error", err, "channel_kind", kind)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to fetch activity data"})
		return
	}

	out := make([]dto.ActivityMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, dto.ActivityMessage{
			ID:         m.ID,
			ExternalID: m.ExternalID,
			AuthorName: m.AuthorName,
			Text:       m.Text,
			OccurredAt: m.OccurredAt.UTC().Format(time.RFC3339Nano),
			Processed:  m.Processed,
			Analysis:   m.Analysis,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *DashboardHandler) TeamWorkload(c *gin.Context) {
	ctx := c.Request.Context()

	entries, err := h.service.Workload(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "workload query failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to fetch team workload"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *DashboardHandler) Digest(c *gin.Context) {
	ctx := c.Request.Context()

	var query dto.DigestQuery
	_ = c.ShouldBindQuery(&query)

	digest, err := h.service.Digest(ctx, query.Date)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDate) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "date must be YYYY-MM-DD"})
			return
		}
		slog.ErrorContext(ctx, "digest query failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to generate digest"})
		return
	}
	c.JSON(http.StatusOK, digest)
}

func (h *DashboardHandler) Deliverables(c *gin.Context) {
	ctx := c.Request.Context()

	view, err := h.service.Deliverables(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "deliverables query failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to fetch deliverables data"})
		return
	}
	c.JSON(http.StatusOK, view)
}
