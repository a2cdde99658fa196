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
	"github.com/noah-isme/academy-scheduler/pkg/recordstore"
	"github.com/noah-isme/academy-scheduler/pkg/timezone"
)

const historyTimeLayout = time.RFC3339

type dailyClassRepository interface {
	List(ctx context.Context) ([]models.DailyClass, error)
	FindByID(ctx context.Context, id string) (*models.DailyClass, error)
	Create(ctx context.Context, class *models.DailyClass) error
	Patch(ctx context.Context, id string, patch recordstore.Patch) error
}

type classDirectory interface {
	Teacher(ctx context.Context, id string) (*models.Teacher, error)
	Student(ctx context.Context, id string) (*models.Student, error)
	Names(ctx context.Context) (*DirectoryNames, error)
}

// DailyClassConfig tunes the daily class engine.
type DailyClassConfig struct {
	DefaultTimezone string
	DefaultDuration int
	Policy          TransitionPolicy
}

// DailyClassService owns the lifecycle of dated class occurrences.
type DailyClassService struct {
	repo      dailyClassRepository
	directory classDirectory
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       DailyClassConfig
	now       func() time.Time
}

// NewDailyClassService constructs a DailyClassService.
func NewDailyClassService(repo dailyClassRepository, directory classDirectory, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg DailyClassConfig) *DailyClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "Africa/Cairo"
	}
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = 60
	}
	return &DailyClassService{
		repo:      repo,
		directory: directory,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create schedules a class from a local date and time. Teacher and student must
// resolve before anything is written.
func (s *DailyClassService) Create(ctx context.Context, req models.CreateDailyClassRequest) (*models.DailyClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid class payload")
	}

	teacher, err := s.directory.Teacher(ctx, req.TeacherID)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("teacher %s does not exist", req.TeacherID))
		}
		return nil, err
	}
	if _, err := s.directory.Student(ctx, req.StudentID); err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s does not exist", req.StudentID))
		}
		return nil, err
	}

	status := models.StatusScheduled
	if req.Status != "" {
		status = models.ClassStatus(req.Status)
	}
	if !status.InitialStatus() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("a class cannot start as %s", status))
	}

	zone := firstNonEmpty(req.Timezone, teacher.Timezone, s.cfg.DefaultTimezone)
	utcDate, utcTime, err := timezone.LocalToUTC(req.Date, req.Time, zone)
	if err != nil {
		return nil, err
	}
	duration := req.Duration
	if duration <= 0 {
		duration = s.cfg.DefaultDuration
	}
	endTime, err := timezone.AddMinutes(utcTime, duration)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	class := &models.DailyClass{
		WeeklyClassID:   req.WeeklyClassID,
		AdvanceClassID:  req.AdvanceClassID,
		TeacherID:       req.TeacherID,
		StudentID:       req.StudentID,
		CourseID:        req.CourseID,
		CourseName:      req.CourseName,
		Subject:         req.Subject,
		AppointmentDate: utcDate,
		AppointmentTime: utcTime,
		StartTime:       utcTime,
		EndTime:         endTime,
		Duration:        duration,
		Status:          status,
		History:         []string{fmt.Sprintf("Class created at %s", now.Format(historyTimeLayout))},
		CreatedAt:       now,
		Notes:           req.Notes,
		ZoomLink:        req.ZoomLink,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Persistence(err, "failed to create class")
	}
	return class, nil
}

// Transition moves a class to newStatus. Status, updatedAt, the derived
// timestamps and one history entry are written in a single store update.
func (s *DailyClassService) Transition(ctx context.Context, id, newStatus string) (*models.DailyClass, error) {
	status := models.ClassStatus(strings.TrimSpace(newStatus))
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", newStatus))
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "class not found", "failed to load class")
	}
	if err := s.cfg.Policy.Validate(current.Status, status); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	patch := recordstore.Patch{
		Set: map[string]interface{}{
			"status":    status,
			"updatedAt": now,
		},
		Append: map[string][]interface{}{
			"history": {fmt.Sprintf("Status changed to %s at %s", status, now.Format(historyTimeLayout))},
		},
	}
	switch status {
	case models.StatusRunning:
		patch.Set["onlineTime"] = now
	case models.StatusTaken:
		patch.Set["completedAt"] = now
	}
	if err := s.repo.Patch(ctx, id, patch); err != nil {
		return nil, storeError(err, "class not found", "failed to update class status")
	}
	s.metrics.RecordTransition(status)

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "class not found", "failed to reload class")
	}
	return updated, nil
}

// SoftDelete marks a class inactive. Classes are never removed.
func (s *DailyClassService) SoftDelete(ctx context.Context, id string) error {
	patch := recordstore.Patch{Set: map[string]interface{}{
		"isActive":  false,
		"updatedAt": s.now().UTC(),
	}}
	if err := s.repo.Patch(ctx, id, patch); err != nil {
		return storeError(err, "class not found", "failed to delete class")
	}
	return nil
}

// UpdateDetails edits the notes and meeting link of a class.
func (s *DailyClassService) UpdateDetails(ctx context.Context, id string, req models.UpdateDailyClassRequest) (*models.DailyClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid class details")
	}
	set := map[string]interface{}{}
	if req.Notes != nil {
		set["notes"] = *req.Notes
	}
	if req.ZoomLink != nil {
		set["zoomLink"] = *req.ZoomLink
	}
	if len(set) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}
	set["updatedAt"] = s.now().UTC()
	return s.patchAndReload(ctx, id, set)
}

// RecordFeedback stores the rating and comment given after a class.
func (s *DailyClassService) RecordFeedback(ctx context.Context, id string, req models.FeedbackRequest) (*models.DailyClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid feedback")
	}
	return s.patchAndReload(ctx, id, map[string]interface{}{
		"rating":    req.Rating,
		"feedback":  strings.TrimSpace(req.Feedback),
		"updatedAt": s.now().UTC(),
	})
}

// Get returns one class rendered for the viewer timezone.
func (s *DailyClassService) Get(ctx context.Context, id, viewerZone string) (*models.DailyClassView, error) {
	zone, label, err := s.viewerZone(viewerZone)
	if err != nil {
		return nil, err
	}
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "class not found", "failed to load class")
	}
	names, err := s.directory.Names(ctx)
	if err != nil {
		return nil, err
	}
	view := s.toView(*class, names, zone, label)
	return &view, nil
}

// List returns the classes matching filter, sorted by UTC date and time and
// rendered for the viewer timezone.
func (s *DailyClassService) List(ctx context.Context, filter models.DailyClassFilter, viewerZone string) ([]models.DailyClassView, error) {
	zone, label, err := s.viewerZone(viewerZone)
	if err != nil {
		return nil, err
	}
	classes, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err, "classes not found", "failed to list classes")
	}
	names, err := s.directory.Names(ctx)
	if err != nil {
		return nil, err
	}
	filtered := FilterDailyClasses(classes, filter)
	views := make([]models.DailyClassView, 0, len(filtered))
	for _, class := range filtered {
		views = append(views, s.toView(class, names, zone, label))
	}
	return views, nil
}

// FilterDailyClasses selects classes by UTC date range, status, course and
// participants and sorts them by date then time. Inactive classes are dropped
// unless IncludeInactive is set. The input slice is not modified.
func FilterDailyClasses(classes []models.DailyClass, filter models.DailyClassFilter) []models.DailyClass {
	statuses := make(map[models.ClassStatus]struct{}, len(filter.Statuses))
	for _, st := range filter.Statuses {
		statuses[st] = struct{}{}
	}
	out := make([]models.DailyClass, 0, len(classes))
	for _, class := range classes {
		if !filter.IncludeInactive && !class.Active() {
			continue
		}
		if filter.From != "" && class.AppointmentDate < filter.From {
			continue
		}
		if filter.To != "" && class.AppointmentDate > filter.To {
			continue
		}
		if len(statuses) > 0 {
			if _, ok := statuses[class.Status]; !ok {
				continue
			}
		}
		if filter.CourseID != "" && stringValue(class.CourseID) != filter.CourseID {
			continue
		}
		if filter.TeacherID != "" && class.TeacherID != filter.TeacherID {
			continue
		}
		if filter.StudentID != "" && class.StudentID != filter.StudentID {
			continue
		}
		if filter.WeeklyClassID != "" && stringValue(class.WeeklyClassID) != filter.WeeklyClassID {
			continue
		}
		out = append(out, class)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AppointmentDate != out[j].AppointmentDate {
			return out[i].AppointmentDate < out[j].AppointmentDate
		}
		return out[i].AppointmentTime < out[j].AppointmentTime
	})
	return out
}

func (s *DailyClassService) patchAndReload(ctx context.Context, id string, set map[string]interface{}) (*models.DailyClass, error) {
	if err := s.repo.Patch(ctx, id, recordstore.Patch{Set: set}); err != nil {
		return nil, storeError(err, "class not found", "failed to update class")
	}
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "class not found", "failed to reload class")
	}
	return class, nil
}

func (s *DailyClassService) viewerZone(requested string) (string, string, error) {
	zone := firstNonEmpty(requested, s.cfg.DefaultTimezone)
	label, err := timezone.DisplayName(zone)
	if err != nil {
		return "", "", err
	}
	return zone, label, nil
}

func (s *DailyClassService) toView(class models.DailyClass, names *DirectoryNames, zone, label string) models.DailyClassView {
	view := models.DailyClassView{
		DailyClass:    class,
		TeacherName:   names.TeacherName(class.TeacherID),
		StudentName:   names.StudentName(class.StudentID),
		LocalDate:     class.AppointmentDate,
		LocalTime:     class.AppointmentTime,
		Timezone:      zone,
		TimezoneLabel: label,
	}
	localDate, localTime, err := timezone.UTCToLocal(class.AppointmentDate, class.AppointmentTime, zone)
	if err != nil {
		s.logger.Warn("class has unreadable appointment", zap.String("class_id", class.ID), zap.Error(err))
		view.Timezone = "UTC"
		view.TimezoneLabel = "UTC"
		return view
	}
	view.LocalDate = localDate
	view.LocalTime = localTime
	return view
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
