package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/pkg/response"
)

type holidayService interface {
	List(ctx context.Context, filter models.HolidayFilter) ([]models.PublicHoliday, error)
	Create(ctx context.Context, req models.CreateHolidayRequest) (*models.PublicHoliday, error)
	Delete(ctx context.Context, id string) error
}

// HolidayHandler exposes the public holiday calendar.
type HolidayHandler struct {
	service holidayService
}

// NewHolidayHandler constructs the handler.
func NewHolidayHandler(service holidayService) *HolidayHandler {
	return &HolidayHandler{service: service}
}

// List godoc
// @Summary List public holidays
// @Tags Holidays
// @Produce json
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /holidays [get]
func (h *HolidayHandler) List(c *gin.Context) {
	holidays, err := h.service.List(c.Request.Context(), models.HolidayFilter{From: c.Query("from"), To: c.Query("to")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holidays, nil)
}

// Create godoc
// @Summary Register public holiday
// @Tags Holidays
// @Accept json
// @Produce json
// @Param payload body models.CreateHolidayRequest true "Holiday payload"
// @Success 201 {object} response.Envelope
// @Router /holidays [post]
func (h *HolidayHandler) Create(c *gin.Context) {
	var req models.CreateHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid holiday payload"))
		return
	}
	holiday, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, holiday)
}

// Delete godoc
// @Summary Remove public holiday
// @Tags Holidays
// @Param id path string true "Holiday ID"
// @Success 204
// @Router /holidays/{id} [delete]
func (h *HolidayHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
