package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
	"github.com/noah-isme/academy-scheduler/pkg/export"
	"github.com/noah-isme/academy-scheduler/pkg/storage"
)

var salaryHeaders = []string{"Teacher", "Teacher ID", "Month", "Year", "Total Classes", "Completed", "Hours", "Rate", "Salary"}

type salaryLister interface {
	List(ctx context.Context, filter models.SalaryReportFilter) ([]models.SalaryReport, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type urlSigner interface {
	Generate(exportID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportDownload is an opened export file ready to stream.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
}

// ExportService renders salary reports to files and hands out signed links.
type ExportService struct {
	salaries  salaryLister
	storage   fileStorage
	signer    urlSigner
	renderers map[export.Format]export.Renderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService with the CSV, PDF and XLSX renderers.
func NewExportService(salaries salaryLister, files fileStorage, signer urlSigner, cfg ExportConfig, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		salaries: salaries,
		storage:  files,
		signer:   signer,
		renderers: map[export.Format]export.Renderer{
			export.FormatCSV:  export.NewCSVExporter(),
			export.FormatPDF:  export.NewPDFExporter(),
			export.FormatXLSX: export.NewXLSXExporter(),
		},
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// ExportSalaryReports renders the stored reports of a period.
func (s *ExportService) ExportSalaryReports(ctx context.Context, req models.ExportSalaryRequest) (*models.ExportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid export payload")
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid export format")
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("format %s is not available", format))
	}

	reports, err := s.salaries.List(ctx, models.SalaryReportFilter{TeacherID: req.TeacherID, Month: req.Month, Year: req.Year})
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no salary reports for this period")
	}

	payload, err := renderer.Render(salaryDataset(reports, req.Month, req.Year))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	id := uuid.NewString()
	filename := path.Join("salary", fmt.Sprintf("%04d-%02d_%s.%s", req.Year, req.Month, id, format.Extension()))
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &models.ExportResult{
		ID:        id,
		Format:    string(format),
		Rows:      len(reports),
		URL:       fmt.Sprintf("%s/export/%s", prefix, token),
		ExpiresAt: expiresAt,
	}, nil
}

// Open resolves a signed token to the stored file.
func (s *ExportService) Open(token string) (*ExportDownload, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	format, err := export.ParseFormat(strings.TrimPrefix(path.Ext(relPath), "."))
	if err != nil {
		format = export.FormatCSV
	}
	return &ExportDownload{File: file, Filename: path.Base(relPath), ContentType: format.ContentType()}, nil
}

// Cleanup removes export files older than ttl, or the configured result TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	removed, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		return removed, err
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
	return removed, nil
}

func salaryDataset(reports []models.SalaryReport, month, year int) export.Dataset {
	rows := make([]map[string]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, map[string]string{
			"Teacher":       r.TeacherName,
			"Teacher ID":    r.TeacherID,
			"Month":         fmt.Sprintf("%02d", r.Month),
			"Year":          fmt.Sprintf("%d", r.Year),
			"Total Classes": fmt.Sprintf("%d", r.TotalClasses),
			"Completed":     fmt.Sprintf("%d", r.CompletedClasses),
			"Hours":         r.TotalHours.StringFixed(2),
			"Rate":          r.RatePerHour.StringFixed(2),
			"Salary":        r.TotalSalary.StringFixed(2),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Salary report %04d-%02d", year, month),
		Headers: salaryHeaders,
		Rows:    rows,
	}
}
