package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-scheduler/internal/middleware"
	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
	"github.com/noah-isme/academy-scheduler/pkg/response"
)

type reportService interface {
	DailyReport(ctx context.Context, date, viewerZone string) (*models.DailyReport, bool, error)
	StudentAttendance(ctx context.Context, studentID string, month, year int) (*models.StudentAttendance, bool, error)
	TeacherSummary(ctx context.Context, teacherID string, month, year int) (*models.SalaryReport, bool, error)
}

// ReportHandler exposes cached reporting views.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Daily godoc
// @Summary Classes of one local day grouped by status and teacher
// @Tags Reports
// @Produce json
// @Param date query string true "Local date (YYYY-MM-DD)"
// @Param tz query string false "Viewer timezone"
// @Success 200 {object} response.Envelope
// @Router /reports/daily [get]
func (h *ReportHandler) Daily(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	start := time.Now()
	report, hit, err := h.service.DailyReport(c.Request.Context(), date, viewerZone(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondCached(c, report, hit, start)
}

// StudentAttendance godoc
// @Summary Monthly attendance of a student
// @Tags Reports
// @Produce json
// @Param id path string true "Student ID"
// @Param month query int true "Month (1-12)"
// @Param year query int true "Year"
// @Success 200 {object} response.Envelope
// @Router /reports/students/{id}/attendance [get]
func (h *ReportHandler) StudentAttendance(c *gin.Context) {
	month, year, err := monthYear(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	report, hit, err := h.service.StudentAttendance(c.Request.Context(), c.Param("id"), month, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondCached(c, report, hit, start)
}

// TeacherSummary godoc
// @Summary Live salary preview of a teacher for a month
// @Tags Reports
// @Produce json
// @Param id path string true "Teacher ID"
// @Param month query int true "Month (1-12)"
// @Param year query int true "Year"
// @Success 200 {object} response.Envelope
// @Router /reports/teachers/{id}/summary [get]
func (h *ReportHandler) TeacherSummary(c *gin.Context) {
	month, year, err := monthYear(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	report, hit, err := h.service.TeacherSummary(c.Request.Context(), c.Param("id"), month, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondCached(c, report, hit, start)
}

func respondCached(c *gin.Context, data interface{}, hit bool, start time.Time) {
	middleware.SetCacheHit(c, hit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta[middleware.MetaProcessingTime] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, data, nil, meta)
}
