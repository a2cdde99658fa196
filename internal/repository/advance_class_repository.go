package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/pkg/recordstore"
)

// AdvanceClassRepository persists make-up bookings.
type AdvanceClassRepository struct {
	store recordstore.Store
}

// NewAdvanceClassRepository creates a new repository instance.
func NewAdvanceClassRepository(store recordstore.Store) *AdvanceClassRepository {
	return &AdvanceClassRepository{store: store}
}

// List returns every advance class.
func (r *AdvanceClassRepository) List(ctx context.Context) ([]models.AdvanceClass, error) {
	records, err := r.store.GetAll(ctx, CollectionAdvanceClasses)
	if err != nil {
		return nil, fmt.Errorf("list advance classes: %w", err)
	}
	classes := make([]models.AdvanceClass, 0, len(records))
	err = decodeEach(records, func(rec recordstore.Record) error {
		var a models.AdvanceClass
		if err := rec.Decode(&a); err != nil {
			return err
		}
		classes = append(classes, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list advance classes: %w", err)
	}
	return classes, nil
}

// FindByID returns an advance class by id.
func (r *AdvanceClassRepository) FindByID(ctx context.Context, id string) (*models.AdvanceClass, error) {
	rec, err := r.store.Get(ctx, CollectionAdvanceClasses, id)
	if err != nil {
		return nil, fmt.Errorf("find advance class: %w", err)
	}
	var a models.AdvanceClass
	if err := rec.Decode(&a); err != nil {
		return nil, fmt.Errorf("find advance class: %w", err)
	}
	return &a, nil
}

// Create stores an advance class. A preassigned ID is kept.
func (r *AdvanceClassRepository) Create(ctx context.Context, class *models.AdvanceClass) error {
	id, err := r.store.Create(ctx, CollectionAdvanceClasses, class)
	if err != nil {
		return fmt.Errorf("create advance class: %w", err)
	}
	class.ID = id
	return nil
}

// Update overwrites the given fields.
func (r *AdvanceClassRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if err := r.store.Update(ctx, CollectionAdvanceClasses, id, recordstore.Patch{Set: fields}); err != nil {
		return fmt.Errorf("update advance class: %w", err)
	}
	return nil
}
