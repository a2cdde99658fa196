package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/pkg/response"
)

type advanceClassService interface {
	List(ctx context.Context, filter models.AdvanceClassFilter) ([]models.AdvanceClass, error)
	Schedule(ctx context.Context, req models.ScheduleAdvanceRequest) (*models.AdvanceClass, error)
	MarkCompleted(ctx context.Context, id string) (*models.AdvanceClass, error)
	MarkCancelled(ctx context.Context, id string) (*models.AdvanceClass, error)
}

// AdvanceClassHandler exposes make-up bookings.
type AdvanceClassHandler struct {
	service advanceClassService
}

// NewAdvanceClassHandler constructs the handler.
func NewAdvanceClassHandler(service advanceClassService) *AdvanceClassHandler {
	return &AdvanceClassHandler{service: service}
}

// List godoc
// @Summary List make-up classes
// @Tags Advance Classes
// @Produce json
// @Param weeklyClassId query string false "Weekly class ID"
// @Param status query string false "scheduled, completed or cancelled"
// @Success 200 {object} response.Envelope
// @Router /advance-classes [get]
func (h *AdvanceClassHandler) List(c *gin.Context) {
	filter := models.AdvanceClassFilter{
		WeeklyClassID: strings.TrimSpace(c.Query("weeklyClassId")),
		Status:        models.AdvanceStatus(strings.ToLower(c.Query("status"))),
	}
	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Book a make-up class
// @Tags Advance Classes
// @Accept json
// @Produce json
// @Param payload body models.ScheduleAdvanceRequest true "Booking"
// @Success 201 {object} response.Envelope
// @Router /advance-classes [post]
func (h *AdvanceClassHandler) Create(c *gin.Context) {
	var req models.ScheduleAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid advance class payload"))
		return
	}
	item, err := h.service.Schedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Complete godoc
// @Summary Mark make-up class completed
// @Tags Advance Classes
// @Produce json
// @Param id path string true "Advance class ID"
// @Success 200 {object} response.Envelope
// @Router /advance-classes/{id}/complete [post]
func (h *AdvanceClassHandler) Complete(c *gin.Context) {
	item, err := h.service.MarkCompleted(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Cancel godoc
// @Summary Cancel make-up class
// @Tags Advance Classes
// @Produce json
// @Param id path string true "Advance class ID"
// @Success 200 {object} response.Envelope
// @Router /advance-classes/{id}/cancel [post]
func (h *AdvanceClassHandler) Cancel(c *gin.Context) {
	item, err := h.service.MarkCancelled(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
