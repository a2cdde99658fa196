package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/pkg/recordstore"
)

// HolidayRepository persists public holidays.
type HolidayRepository struct {
	store recordstore.Store
}

// NewHolidayRepository creates a new repository instance.
func NewHolidayRepository(store recordstore.Store) *HolidayRepository {
	return &HolidayRepository{store: store}
}

// List returns every holiday.
func (r *HolidayRepository) List(ctx context.Context) ([]models.PublicHoliday, error) {
	records, err := r.store.GetAll(ctx, CollectionHolidays)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	holidays := make([]models.PublicHoliday, 0, len(records))
	err = decodeEach(records, func(rec recordstore.Record) error {
		var h models.PublicHoliday
		if err := rec.Decode(&h); err != nil {
			return err
		}
		holidays = append(holidays, h)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}

// Create stores a holiday and assigns its id.
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.PublicHoliday) error {
	id, err := r.store.Create(ctx, CollectionHolidays, holiday)
	if err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}
	holiday.ID = id
	return nil
}

// Delete removes a holiday.
func (r *HolidayRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Remove(ctx, CollectionHolidays, id); err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	return nil
}
