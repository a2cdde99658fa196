package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/pkg/recordstore"
)

// SalaryReportRepository persists generated salary reports. Reports are never updated.
type SalaryReportRepository struct {
	store recordstore.Store
}

// NewSalaryReportRepository creates a new repository instance.
func NewSalaryReportRepository(store recordstore.Store) *SalaryReportRepository {
	return &SalaryReportRepository{store: store}
}

// List returns every report.
func (r *SalaryReportRepository) List(ctx context.Context) ([]models.SalaryReport, error) {
	records, err := r.store.GetAll(ctx, CollectionSalaryReports)
	if err != nil {
		return nil, fmt.Errorf("list salary reports: %w", err)
	}
	reports := make([]models.SalaryReport, 0, len(records))
	err = decodeEach(records, func(rec recordstore.Record) error {
		var s models.SalaryReport
		if err := rec.Decode(&s); err != nil {
			return err
		}
		reports = append(reports, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list salary reports: %w", err)
	}
	return reports, nil
}

// FindByID returns a report by id.
func (r *SalaryReportRepository) FindByID(ctx context.Context, id string) (*models.SalaryReport, error) {
	rec, err := r.store.Get(ctx, CollectionSalaryReports, id)
	if err != nil {
		return nil, fmt.Errorf("find salary report: %w", err)
	}
	var s models.SalaryReport
	if err := rec.Decode(&s); err != nil {
		return nil, fmt.Errorf("find salary report: %w", err)
	}
	return &s, nil
}

// Create stores a report and assigns its id.
func (r *SalaryReportRepository) Create(ctx context.Context, report *models.SalaryReport) error {
	id, err := r.store.Create(ctx, CollectionSalaryReports, report)
	if err != nil {
		return fmt.Errorf("create salary report: %w", err)
	}
	report.ID = id
	return nil
}
