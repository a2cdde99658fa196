package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-scheduler/internal/middleware"
	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
	"github.com/noah-isme/academy-scheduler/pkg/response"
)

type dashboardService interface {
	Overview(ctx context.Context, viewerZone string) (*models.DashboardOverview, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Overview godoc
// @Summary Administrator landing summary
// @Tags Dashboard
// @Produce json
// @Param tz query string false "Viewer timezone"
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	overview, err := h.service.Overview(c.Request.Context(), viewerZone(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta[middleware.MetaProcessingTime] = time.Since(start).Milliseconds()
	if len(overview.Degraded) > 0 {
		meta["degraded"] = overview.Degraded
	}
	response.JSON(c, http.StatusOK, overview, nil, meta)
}
