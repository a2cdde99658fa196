package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
	"github.com/noah-isme/academy-scheduler/pkg/timezone"
)

type teacherDirectory interface {
	List(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
}

type studentDirectory interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

// DirectoryNames resolves display names for ids at read time.
type DirectoryNames struct {
	teachers map[string]string
	students map[string]string
}

// TeacherName returns the current name of a teacher or an empty string.
func (n *DirectoryNames) TeacherName(id string) string {
	if n == nil {
		return ""
	}
	return n.teachers[id]
}

// StudentName returns the current name of a student or an empty string.
func (n *DirectoryNames) StudentName(id string) string {
	if n == nil {
		return ""
	}
	return n.students[id]
}

// DirectoryService is the read path to teacher and student records.
type DirectoryService struct {
	teachers  teacherDirectory
	students  studentDirectory
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(teachers teacherDirectory, students studentDirectory, validate *validator.Validate, logger *zap.Logger) *DirectoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{teachers: teachers, students: students, validator: validate, logger: logger, now: time.Now}
}

// Teacher returns a teacher by id.
func (s *DirectoryService) Teacher(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "teacher not found", "failed to load teacher")
	}
	return teacher, nil
}

// Student returns a student by id.
func (s *DirectoryService) Student(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "student not found", "failed to load student")
	}
	return student, nil
}

// Teachers lists every teacher.
func (s *DirectoryService) Teachers(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, storeError(err, "teachers not found", "failed to list teachers")
	}
	return teachers, nil
}

// Students lists every student.
func (s *DirectoryService) Students(ctx context.Context) ([]models.Student, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, storeError(err, "students not found", "failed to list students")
	}
	return students, nil
}

// Names loads the id to name maps for both directories.
func (s *DirectoryService) Names(ctx context.Context) (*DirectoryNames, error) {
	teachers, err := s.Teachers(ctx)
	if err != nil {
		return nil, err
	}
	students, err := s.Students(ctx)
	if err != nil {
		return nil, err
	}
	names := &DirectoryNames{
		teachers: make(map[string]string, len(teachers)),
		students: make(map[string]string, len(students)),
	}
	for _, t := range teachers {
		names.teachers[t.ID] = t.Name
	}
	for _, st := range students {
		names.students[st.ID] = st.Name
	}
	return names, nil
}

// CreateTeacher adds a teacher to the directory.
func (s *DirectoryService) CreateTeacher(ctx context.Context, req models.UpsertTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid teacher payload")
	}
	if req.HourlyRate.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "hourlyRate must not be negative")
	}
	if req.Timezone != "" {
		if err := timezone.Validate(req.Timezone); err != nil {
			return nil, err
		}
	}
	teacher := &models.Teacher{
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Phone:      req.Phone,
		HourlyRate: req.HourlyRate,
		Timezone:   req.Timezone,
		IsActive:   req.IsActive,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.teachers.Create(ctx, teacher); err != nil {
		return nil, appErrors.Persistence(err, "failed to create teacher")
	}
	return teacher, nil
}

// CreateStudent adds a student to the directory.
func (s *DirectoryService) CreateStudent(ctx context.Context, req models.UpsertStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid student payload")
	}
	if req.Timezone != "" {
		if err := timezone.Validate(req.Timezone); err != nil {
			return nil, err
		}
	}
	student := &models.Student{
		Name:       strings.TrimSpace(req.Name),
		ParentName: req.ParentName,
		Timezone:   req.Timezone,
		IsActive:   req.IsActive,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Persistence(err, "failed to create student")
	}
	return student, nil
}
