package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
	"github.com/noah-isme/academy-scheduler/pkg/timezone"
)

type weeklyClassRepository interface {
	List(ctx context.Context) ([]models.WeeklyClass, error)
	FindByID(ctx context.Context, id string) (*models.WeeklyClass, error)
	Create(ctx context.Context, class *models.WeeklyClass) error
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}

// WeeklyClassService manages recurring class templates.
type WeeklyClassService struct {
	repo            weeklyClassRepository
	directory       classDirectory
	validator       *validator.Validate
	logger          *zap.Logger
	defaultTimezone string
	now             func() time.Time
}

// NewWeeklyClassService constructs a WeeklyClassService.
func NewWeeklyClassService(repo weeklyClassRepository, directory classDirectory, validate *validator.Validate, logger *zap.Logger, defaultTimezone string) *WeeklyClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTimezone == "" {
		defaultTimezone = "Africa/Cairo"
	}
	return &WeeklyClassService{
		repo:            repo,
		directory:       directory,
		validator:       validate,
		logger:          logger,
		defaultTimezone: defaultTimezone,
		now:             time.Now,
	}
}

// List returns templates matching filter ordered by day and start time.
func (s *WeeklyClassService) List(ctx context.Context, filter models.WeeklyClassFilter) ([]models.WeeklyClass, error) {
	classes, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err, "weekly classes not found", "failed to list weekly classes")
	}
	out := make([]models.WeeklyClass, 0, len(classes))
	for _, wc := range classes {
		if !filter.IncludeInactive && !wc.Active() {
			continue
		}
		if filter.TeacherID != "" && wc.TeacherID != filter.TeacherID {
			continue
		}
		if filter.StudentID != "" && wc.StudentID != filter.StudentID {
			continue
		}
		if filter.DayOfWeek != "" && wc.DayOfWeek != filter.DayOfWeek {
			continue
		}
		out = append(out, wc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, _ := out[i].DayOfWeek.Weekday()
		dj, _ := out[j].DayOfWeek.Weekday()
		// Monday first.
		oi, oj := (int(di)+6)%7, (int(dj)+6)%7
		if oi != oj {
			return oi < oj
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

// Active returns every active template.
func (s *WeeklyClassService) Active(ctx context.Context) ([]models.WeeklyClass, error) {
	return s.List(ctx, models.WeeklyClassFilter{})
}

// Get returns one template.
func (s *WeeklyClassService) Get(ctx context.Context, id string) (*models.WeeklyClass, error) {
	wc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "weekly class not found", "failed to load weekly class")
	}
	return wc, nil
}

// Create registers a new recurring template.
func (s *WeeklyClassService) Create(ctx context.Context, req models.CreateWeeklyClassRequest) (*models.WeeklyClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid weekly class payload")
	}
	day, err := models.ParseDayOfWeek(req.DayOfWeek)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid dayOfWeek")
	}

	wc := &models.WeeklyClass{
		TeacherID: req.TeacherID,
		StudentID: req.StudentID,
		DayOfWeek: day,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Timezone:  strings.TrimSpace(req.Timezone),
		Subject:   strings.TrimSpace(req.Subject),
		CourseID:  req.CourseID,
		IsActive:  models.Bool(true),
		CreatedAt: s.now().UTC(),
	}
	if err := s.prepare(ctx, wc, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, wc); err != nil {
		return nil, appErrors.Persistence(err, "failed to create weekly class")
	}
	return wc, nil
}

// Update applies a partial change to a template.
func (s *WeeklyClassService) Update(ctx context.Context, id string, req models.UpdateWeeklyClassRequest) (*models.WeeklyClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid weekly class payload")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current
	if req.TeacherID != nil {
		next.TeacherID = *req.TeacherID
	}
	if req.StudentID != nil {
		next.StudentID = *req.StudentID
	}
	if req.DayOfWeek != nil {
		day, err := models.ParseDayOfWeek(*req.DayOfWeek)
		if err != nil {
			return nil, appErrors.Validation(err, "invalid dayOfWeek")
		}
		next.DayOfWeek = day
	}
	if req.StartTime != nil {
		next.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		next.EndTime = *req.EndTime
	}
	if req.Timezone != nil {
		next.Timezone = strings.TrimSpace(*req.Timezone)
	}
	if req.Subject != nil {
		next.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.CourseID != nil {
		next.CourseID = req.CourseID
	}
	if req.IsActive != nil {
		next.IsActive = req.IsActive
	}
	if err := s.prepare(ctx, &next, id); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	next.UpdatedAt = &now
	fields := map[string]interface{}{
		"teacherId":   next.TeacherID,
		"teacherName": next.TeacherName,
		"studentId":   next.StudentID,
		"studentName": next.StudentName,
		"dayOfWeek":   next.DayOfWeek,
		"startTime":   next.StartTime,
		"endTime":     next.EndTime,
		"timezone":    next.Timezone,
		"subject":     next.Subject,
		"courseId":    next.CourseID,
		"isActive":    models.IsActive(next.IsActive),
		"updatedAt":   now,
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, storeError(err, "weekly class not found", "failed to update weekly class")
	}
	return &next, nil
}

// Deactivate stops a template from being expanded. Existing classes are kept.
func (s *WeeklyClassService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	fields := map[string]interface{}{"isActive": false, "updatedAt": s.now().UTC()}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return storeError(err, "weekly class not found", "failed to deactivate weekly class")
	}
	return nil
}

// DurationMinutes is the length of one occurrence. A template ending before it
// starts wraps past midnight; equal times fall back to fallback.
func DurationMinutes(wc models.WeeklyClass, fallback int) int {
	start, err := timezone.ParseClock(wc.StartTime)
	if err != nil {
		return fallback
	}
	end, err := timezone.ParseClock(wc.EndTime)
	if err != nil {
		return fallback
	}
	minutes := (end - start + 24*60) % (24 * 60)
	if minutes == 0 {
		return fallback
	}
	return minutes
}

// prepare validates references and refreshes the name snapshot. selfID is
// excluded from the duplicate check.
func (s *WeeklyClassService) prepare(ctx context.Context, wc *models.WeeklyClass, selfID string) error {
	if wc.Timezone == "" {
		wc.Timezone = s.defaultTimezone
	}
	if err := timezone.Validate(wc.Timezone); err != nil {
		return err
	}
	teacher, err := s.directory.Teacher(ctx, wc.TeacherID)
	if err != nil {
		if isNotFound(err) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("teacher %s does not exist", wc.TeacherID))
		}
		return err
	}
	student, err := s.directory.Student(ctx, wc.StudentID)
	if err != nil {
		if isNotFound(err) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s does not exist", wc.StudentID))
		}
		return err
	}
	wc.TeacherName = teacher.Name
	wc.StudentName = student.Name

	if !wc.Active() {
		return nil
	}
	existing, err := s.repo.List(ctx)
	if err != nil {
		return storeError(err, "weekly classes not found", "failed to list weekly classes")
	}
	for _, other := range existing {
		if other.ID == selfID || !other.Active() {
			continue
		}
		if other.TeacherID == wc.TeacherID && other.StudentID == wc.StudentID &&
			other.DayOfWeek == wc.DayOfWeek && other.StartTime == wc.StartTime {
			return appErrors.Clone(appErrors.ErrConflict, "an active weekly class already exists for this slot")
		}
	}
	return nil
}
