package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/pkg/recordstore"
)

// DailyClassRepository persists dated class instances.
type DailyClassRepository struct {
	store recordstore.Store
}

// NewDailyClassRepository creates a new repository instance.
func NewDailyClassRepository(store recordstore.Store) *DailyClassRepository {
	return &DailyClassRepository{store: store}
}

// List returns every daily class including inactive ones.
func (r *DailyClassRepository) List(ctx context.Context) ([]models.DailyClass, error) {
	records, err := r.store.GetAll(ctx, CollectionDailyClasses)
	if err != nil {
		return nil, fmt.Errorf("list daily classes: %w", err)
	}
	classes, err := decodeDailyClasses(records)
	if err != nil {
		return nil, fmt.Errorf("list daily classes: %w", err)
	}
	return classes, nil
}

// FindByID returns a daily class by id.
func (r *DailyClassRepository) FindByID(ctx context.Context, id string) (*models.DailyClass, error) {
	rec, err := r.store.Get(ctx, CollectionDailyClasses, id)
	if err != nil {
		return nil, fmt.Errorf("find daily class: %w", err)
	}
	var d models.DailyClass
	if err := rec.Decode(&d); err != nil {
		return nil, fmt.Errorf("find daily class: %w", err)
	}
	return &d, nil
}

// Create stores a daily class and assigns its id.
func (r *DailyClassRepository) Create(ctx context.Context, class *models.DailyClass) error {
	id, err := r.store.Create(ctx, CollectionDailyClasses, class)
	if err != nil {
		return fmt.Errorf("create daily class: %w", err)
	}
	class.ID = id
	return nil
}

// Patch applies set and append changes to one class atomically.
func (r *DailyClassRepository) Patch(ctx context.Context, id string, patch recordstore.Patch) error {
	if err := r.store.Update(ctx, CollectionDailyClasses, id, patch); err != nil {
		return fmt.Errorf("patch daily class: %w", err)
	}
	return nil
}

// Subscribe streams decoded snapshots of the collection. Records that fail to
// decode are dropped from the snapshot.
func (r *DailyClassRepository) Subscribe(ctx context.Context, onChange func([]models.DailyClass)) (recordstore.Unsubscribe, error) {
	unsubscribe, err := r.store.Subscribe(ctx, CollectionDailyClasses, func(records []recordstore.Record) {
		classes := make([]models.DailyClass, 0, len(records))
		for _, rec := range records {
			var d models.DailyClass
			if err := rec.Decode(&d); err != nil {
				continue
			}
			classes = append(classes, d)
		}
		onChange(classes)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe daily classes: %w", err)
	}
	return unsubscribe, nil
}

func decodeDailyClasses(records []recordstore.Record) ([]models.DailyClass, error) {
	classes := make([]models.DailyClass, 0, len(records))
	err := decodeEach(records, func(rec recordstore.Record) error {
		var d models.DailyClass
		if err := rec.Decode(&d); err != nil {
			return err
		}
		classes = append(classes, d)
		return nil
	})
	return classes, err
}
