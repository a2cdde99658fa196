package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/pkg/recordstore"
)

// TeacherRepository reads the teacher directory.
type TeacherRepository struct {
	store recordstore.Store
}

// NewTeacherRepository creates a new repository instance.
func NewTeacherRepository(store recordstore.Store) *TeacherRepository {
	return &TeacherRepository{store: store}
}

// List returns every teacher, active or not.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	records, err := r.store.GetAll(ctx, CollectionTeachers)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	teachers := make([]models.Teacher, 0, len(records))
	err = decodeEach(records, func(rec recordstore.Record) error {
		var t models.Teacher
		if err := rec.Decode(&t); err != nil {
			return err
		}
		teachers = append(teachers, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID returns a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	rec, err := r.store.Get(ctx, CollectionTeachers, id)
	if err != nil {
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	var t models.Teacher
	if err := rec.Decode(&t); err != nil {
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	return &t, nil
}

// Create stores a teacher and assigns its id.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	id, err := r.store.Create(ctx, CollectionTeachers, teacher)
	if err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	teacher.ID = id
	return nil
}

// Update overwrites the given fields of a teacher.
func (r *TeacherRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if err := r.store.Update(ctx, CollectionTeachers, id, recordstore.Patch{Set: fields}); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}
