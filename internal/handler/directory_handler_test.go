package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-scheduler/internal/models"
)

type fakeDirectory struct {
	teachers []models.Teacher
}

func (f *fakeDirectory) Teachers(context.Context) ([]models.Teacher, error) { return f.teachers, nil }
func (f *fakeDirectory) Teacher(_ context.Context, id string) (*models.Teacher, error) {
	return &models.Teacher{ID: id}, nil
}
func (f *fakeDirectory) CreateTeacher(_ context.Context, req models.UpsertTeacherRequest) (*models.Teacher, error) {
	t := models.Teacher{ID: "T9", Name: req.Name, HourlyRate: req.HourlyRate}
	f.teachers = append(f.teachers, t)
	return &t, nil
}
func (f *fakeDirectory) Students(context.Context) ([]models.Student, error) { return nil, nil }
func (f *fakeDirectory) Student(_ context.Context, id string) (*models.Student, error) {
	return &models.Student{ID: id}, nil
}
func (f *fakeDirectory) CreateStudent(_ context.Context, req models.UpsertStudentRequest) (*models.Student, error) {
	return &models.Student{ID: "S9", Name: req.Name}, nil
}

func TestDirectoryCreateTeacher(t *testing.T) {
	dir := &fakeDirectory{}
	h := NewDirectoryHandler(dir)

	c, rec := newTestContext(http.MethodPost, "/teachers", `{"name":"Ustadh Kareem","hourlyRate":"20.5"}`, adminClaims)
	h.CreateTeacher(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, dir.teachers, 1)
	assert.Equal(t, "20.5", dir.teachers[0].HourlyRate.String())

	c, rec = newTestContext(http.MethodPost, "/teachers", `{"name":`, adminClaims)
	h.CreateTeacher(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDirectoryGetStudent(t *testing.T) {
	h := NewDirectoryHandler(&fakeDirectory{})
	c, rec := newTestContext(http.MethodGet, "/students/S1", nil, adminClaims)
	withParam(c, "id", "S1")
	h.GetStudent(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"S1","name":"","createdAt":"0001-01-01T00:00:00Z"}`, string(decodeEnvelope(t, rec).Data))
}
