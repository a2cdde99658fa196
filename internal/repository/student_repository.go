package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/pkg/recordstore"
)

// StudentRepository reads the student directory.
type StudentRepository struct {
	store recordstore.Store
}

// NewStudentRepository creates a new repository instance.
func NewStudentRepository(store recordstore.Store) *StudentRepository {
	return &StudentRepository{store: store}
}

// List returns every student.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	records, err := r.store.GetAll(ctx, CollectionStudents)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	students := make([]models.Student, 0, len(records))
	err = decodeEach(records, func(rec recordstore.Record) error {
		var s models.Student
		if err := rec.Decode(&s); err != nil {
			return err
		}
		students = append(students, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID returns a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	rec, err := r.store.Get(ctx, CollectionStudents, id)
	if err != nil {
		return nil, fmt.Errorf("find student: %w", err)
	}
	var s models.Student
	if err := rec.Decode(&s); err != nil {
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &s, nil
}

// Create stores a student and assigns its id.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	id, err := r.store.Create(ctx, CollectionStudents, student)
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	student.ID = id
	return nil
}

// Update overwrites the given fields of a student.
func (r *StudentRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if err := r.store.Update(ctx, CollectionStudents, id, recordstore.Patch{Set: fields}); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}
