package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/pkg/recordstore"
)

// WeeklyClassRepository persists recurring class templates.
type WeeklyClassRepository struct {
	store recordstore.Store
}

// NewWeeklyClassRepository creates a new repository instance.
func NewWeeklyClassRepository(store recordstore.Store) *WeeklyClassRepository {
	return &WeeklyClassRepository{store: store}
}

// List returns all templates in creation order.
func (r *WeeklyClassRepository) List(ctx context.Context) ([]models.WeeklyClass, error) {
	records, err := r.store.GetAll(ctx, CollectionWeeklyClasses)
	if err != nil {
		return nil, fmt.Errorf("list weekly classes: %w", err)
	}
	classes := make([]models.WeeklyClass, 0, len(records))
	err = decodeEach(records, func(rec recordstore.Record) error {
		var w models.WeeklyClass
		if err := rec.Decode(&w); err != nil {
			return err
		}
		classes = append(classes, w)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list weekly classes: %w", err)
	}
	return classes, nil
}

// FindByID returns a template by id.
func (r *WeeklyClassRepository) FindByID(ctx context.Context, id string) (*models.WeeklyClass, error) {
	rec, err := r.store.Get(ctx, CollectionWeeklyClasses, id)
	if err != nil {
		return nil, fmt.Errorf("find weekly class: %w", err)
	}
	var w models.WeeklyClass
	if err := rec.Decode(&w); err != nil {
		return nil, fmt.Errorf("find weekly class: %w", err)
	}
	return &w, nil
}

// Create stores a template and assigns its id.
func (r *WeeklyClassRepository) Create(ctx context.Context, class *models.WeeklyClass) error {
	id, err := r.store.Create(ctx, CollectionWeeklyClasses, class)
	if err != nil {
		return fmt.Errorf("create weekly class: %w", err)
	}
	class.ID = id
	return nil
}

// Update overwrites the given template fields.
func (r *WeeklyClassRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if err := r.store.Update(ctx, CollectionWeeklyClasses, id, recordstore.Patch{Set: fields}); err != nil {
		return fmt.Errorf("update weekly class: %w", err)
	}
	return nil
}
