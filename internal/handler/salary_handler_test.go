package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/internal/service"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
)

type fakeSalaries struct {
	filter    models.SalaryReportFilter
	generated []int
}

func (f *fakeSalaries) GenerateForPeriod(_ context.Context, month, year int) ([]models.SalaryReport, error) {
	f.generated = append(f.generated, month, year)
	return []models.SalaryReport{{TeacherID: "T1", Month: month, Year: year, TotalSalary: decimal.NewFromInt(80)}}, nil
}

func (f *fakeSalaries) List(_ context.Context, filter models.SalaryReportFilter) ([]models.SalaryReport, error) {
	f.filter = filter
	return []models.SalaryReport{}, nil
}

func (f *fakeSalaries) Get(_ context.Context, id string) (*models.SalaryReport, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "salary report not found")
}

type fakeExporter struct {
	path string
}

func (f *fakeExporter) ExportSalaryReports(_ context.Context, req models.ExportSalaryRequest) (*models.ExportResult, error) {
	return &models.ExportResult{ID: "x1", Format: req.Format, Rows: 2, URL: "/api/v1/export/token"}, nil
}

func (f *fakeExporter) Open(token string) (*service.ExportDownload, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	return &service.ExportDownload{File: file, Filename: "2025-03_x1.csv", ContentType: "text/csv"}, nil
}

func TestSalaryListParsesFilter(t *testing.T) {
	svc := &fakeSalaries{}
	h := NewSalaryHandler(svc, nil, nil)

	c, rec := newTestContext(http.MethodGet, "/salary-reports?teacherId=T1&month=3&year=2025", nil, adminClaims)
	h.List(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SalaryReportFilter{TeacherID: "T1", Month: 3, Year: 2025}, svc.filter)

	c, rec = newTestContext(http.MethodGet, "/salary-reports?month=march", nil, adminClaims)
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSalaryGenerateValidatesPeriod(t *testing.T) {
	svc := &fakeSalaries{}
	jobs := &fakeJobs{}
	h := NewSalaryHandler(svc, nil, jobs)

	c, rec := newTestContext(http.MethodPost, "/salary-reports/generate", map[string]int{"month": 13, "year": 2025}, adminClaims)
	h.Generate(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.generated)

	c, rec = newTestContext(http.MethodPost, "/salary-reports/generate", map[string]int{"month": 2, "year": 2025}, adminClaims)
	h.Generate(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{2, 2025}, svc.generated)

	c, rec = newTestContext(http.MethodPost, "/salary-reports/generate?async=1", map[string]int{"month": 2, "year": 2025}, adminClaims)
	h.Generate(c)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, service.JobGenerateSalary, jobs.jobType)
	assert.Equal(t, service.SalaryPeriod{Month: 2, Year: 2025}, jobs.payload)
}

func TestSalaryGetNotFound(t *testing.T) {
	h := NewSalaryHandler(&fakeSalaries{}, nil, nil)
	c, rec := newTestContext(http.MethodGet, "/salary-reports/missing", nil, adminClaims)
	withParam(c, "id", "missing")
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSalaryExportAndDownload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.csv")
	require.NoError(t, os.WriteFile(path, []byte("Teacher,Salary\nKareem,80.00\n"), 0o600))
	h := NewSalaryHandler(&fakeSalaries{}, &fakeExporter{path: path}, nil)

	c, rec := newTestContext(http.MethodPost, "/salary-reports/export", map[string]interface{}{"month": 3, "year": 2025, "format": "csv"}, adminClaims)
	h.Export(c)
	require.Equal(t, http.StatusCreated, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/export/good", nil, nil)
	withParam(c, "token", "good")
	h.Download(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "2025-03_x1.csv")
	assert.Equal(t, "Teacher,Salary\nKareem,80.00\n", rec.Body.String())

	c, rec = newTestContext(http.MethodGet, "/export/stale", nil, nil)
	withParam(c, "token", "stale")
	h.Download(c)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
