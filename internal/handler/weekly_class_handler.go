package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
	"github.com/noah-isme/academy-scheduler/pkg/response"
)

type weeklyClassService interface {
	List(ctx context.Context, filter models.WeeklyClassFilter) ([]models.WeeklyClass, error)
	Get(ctx context.Context, id string) (*models.WeeklyClass, error)
	Create(ctx context.Context, req models.CreateWeeklyClassRequest) (*models.WeeklyClass, error)
	Update(ctx context.Context, id string, req models.UpdateWeeklyClassRequest) (*models.WeeklyClass, error)
	Deactivate(ctx context.Context, id string) error
}

// WeeklyClassHandler exposes recurring class templates.
type WeeklyClassHandler struct {
	service weeklyClassService
}

// NewWeeklyClassHandler constructs the handler.
func NewWeeklyClassHandler(service weeklyClassService) *WeeklyClassHandler {
	return &WeeklyClassHandler{service: service}
}

// List godoc
// @Summary List weekly class templates
// @Tags Weekly Classes
// @Produce json
// @Param teacherId query string false "Teacher ID"
// @Param studentId query string false "Student ID"
// @Param dayOfWeek query string false "Day of week (Monday..Sunday)"
// @Param includeInactive query bool false "Include deactivated templates"
// @Success 200 {object} response.Envelope
// @Router /weekly-classes [get]
func (h *WeeklyClassHandler) List(c *gin.Context) {
	filter := models.WeeklyClassFilter{
		TeacherID:       strings.TrimSpace(c.Query("teacherId")),
		StudentID:       strings.TrimSpace(c.Query("studentId")),
		IncludeInactive: queryBool(c, "includeInactive"),
	}
	if raw := c.Query("dayOfWeek"); raw != "" {
		day, err := models.ParseDayOfWeek(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
			return
		}
		filter.DayOfWeek = day
	}
	if err := scopeParticipants(c, &filter.TeacherID, &filter.StudentID); err != nil {
		response.Error(c, err)
		return
	}

	templates, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// Get godoc
// @Summary Get weekly class template
// @Tags Weekly Classes
// @Produce json
// @Param id path string true "Weekly class ID"
// @Success 200 {object} response.Envelope
// @Router /weekly-classes/{id} [get]
func (h *WeeklyClassHandler) Get(c *gin.Context) {
	wc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !canAccessClass(c, wc.TeacherID, wc.StudentID) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	response.JSON(c, http.StatusOK, wc, nil)
}

// Create godoc
// @Summary Create weekly class template
// @Tags Weekly Classes
// @Accept json
// @Produce json
// @Param payload body models.CreateWeeklyClassRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /weekly-classes [post]
func (h *WeeklyClassHandler) Create(c *gin.Context) {
	var req models.CreateWeeklyClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid weekly class payload"))
		return
	}
	wc, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, wc)
}

// Update godoc
// @Summary Update weekly class template
// @Tags Weekly Classes
// @Accept json
// @Produce json
// @Param id path string true "Weekly class ID"
// @Param payload body models.UpdateWeeklyClassRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /weekly-classes/{id} [put]
func (h *WeeklyClassHandler) Update(c *gin.Context) {
	var req models.UpdateWeeklyClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid weekly class payload"))
		return
	}
	wc, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, wc, nil)
}

// Delete godoc
// @Summary Deactivate weekly class template
// @Tags Weekly Classes
// @Param id path string true "Weekly class ID"
// @Success 204
// @Router /weekly-classes/{id} [delete]
func (h *WeeklyClassHandler) Delete(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
