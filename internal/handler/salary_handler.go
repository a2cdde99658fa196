package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/internal/service"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
	"github.com/noah-isme/academy-scheduler/pkg/response"
)

type salaryService interface {
	GenerateForPeriod(ctx context.Context, month, year int) ([]models.SalaryReport, error)
	List(ctx context.Context, filter models.SalaryReportFilter) ([]models.SalaryReport, error)
	Get(ctx context.Context, id string) (*models.SalaryReport, error)
}

type salaryExporter interface {
	ExportSalaryReports(ctx context.Context, req models.ExportSalaryRequest) (*models.ExportResult, error)
	Open(token string) (*service.ExportDownload, error)
}

// SalaryHandler exposes monthly salary reports and their file exports.
type SalaryHandler struct {
	salaries salaryService
	exports  salaryExporter
	jobs     jobEnqueuer
}

// NewSalaryHandler constructs the handler. jobs may be nil.
func NewSalaryHandler(salaries salaryService, exports salaryExporter, jobs jobEnqueuer) *SalaryHandler {
	return &SalaryHandler{salaries: salaries, exports: exports, jobs: jobs}
}

// List godoc
// @Summary List salary reports
// @Tags Salary Reports
// @Produce json
// @Param teacherId query string false "Teacher ID"
// @Param month query int false "Month (1-12)"
// @Param year query int false "Year"
// @Success 200 {object} response.Envelope
// @Router /salary-reports [get]
func (h *SalaryHandler) List(c *gin.Context) {
	filter := models.SalaryReportFilter{TeacherID: strings.TrimSpace(c.Query("teacherId"))}
	if raw := c.Query("month"); raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be a number"))
			return
		}
		filter.Month = month
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be a number"))
			return
		}
		filter.Year = year
	}
	reports, err := h.salaries.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Get godoc
// @Summary Get salary report
// @Tags Salary Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /salary-reports/{id} [get]
func (h *SalaryHandler) Get(c *gin.Context) {
	report, err := h.salaries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Generate godoc
// @Summary Generate salary reports for a month
// @Tags Salary Reports
// @Accept json
// @Produce json
// @Param payload body models.GenerateSalaryRequest true "Period"
// @Param async query bool false "Queue the run instead of waiting"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /salary-reports/generate [post]
func (h *SalaryHandler) Generate(c *gin.Context) {
	var req models.GenerateSalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid salary period"))
		return
	}
	if queryBool(c, "async") && h.jobs != nil {
		jobID, err := h.jobs.Enqueue(service.JobGenerateSalary, service.SalaryPeriod{Month: req.Month, Year: req.Year})
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to queue salary generation"))
			return
		}
		response.Accepted(c, gin.H{"jobId": jobID})
		return
	}
	reports, err := h.salaries.GenerateForPeriod(c.Request.Context(), req.Month, req.Year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Export godoc
// @Summary Export salary reports to CSV, PDF or XLSX
// @Tags Salary Reports
// @Accept json
// @Produce json
// @Param payload body models.ExportSalaryRequest true "Export request"
// @Success 201 {object} response.Envelope
// @Router /salary-reports/export [post]
func (h *SalaryHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req models.ExportSalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid export payload"))
		return
	}
	result, err := h.exports.ExportSalaryReports(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download an export through its signed link
// @Tags Salary Reports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Router /export/{token} [get]
func (h *SalaryHandler) Download(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	download, err := h.exports.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.DataFromReader(http.StatusOK, info.Size(), download.ContentType, download.File, nil)
}
