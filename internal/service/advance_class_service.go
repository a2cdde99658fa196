package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
)

type advanceClassRepository interface {
	List(ctx context.Context) ([]models.AdvanceClass, error)
	FindByID(ctx context.Context, id string) (*models.AdvanceClass, error)
	Create(ctx context.Context, class *models.AdvanceClass) error
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}

type templateReader interface {
	Get(ctx context.Context, id string) (*models.WeeklyClass, error)
}

type companionEngine interface {
	Create(ctx context.Context, req models.CreateDailyClassRequest) (*models.DailyClass, error)
	Get(ctx context.Context, id, viewerZone string) (*models.DailyClassView, error)
	Transition(ctx context.Context, id, newStatus string) (*models.DailyClass, error)
	SoftDelete(ctx context.Context, id string) error
}

// AdvanceClassService books make-up classes against weekly templates. Every
// booking owns a companion daily class in status advance.
type AdvanceClassService struct {
	repo            advanceClassRepository
	templates       templateReader
	engine          companionEngine
	validator       *validator.Validate
	logger          *zap.Logger
	defaultDuration int
	now             func() time.Time
	newID           func() string
}

// NewAdvanceClassService constructs an AdvanceClassService.
func NewAdvanceClassService(repo advanceClassRepository, templates templateReader, engine companionEngine, validate *validator.Validate, logger *zap.Logger, defaultDuration int) *AdvanceClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultDuration <= 0 {
		defaultDuration = 60
	}
	return &AdvanceClassService{
		repo:            repo,
		templates:       templates,
		engine:          engine,
		validator:       validate,
		logger:          logger,
		defaultDuration: defaultDuration,
		now:             time.Now,
		newID:           uuid.NewString,
	}
}

// List returns bookings matching filter, most recent date first.
func (s *AdvanceClassService) List(ctx context.Context, filter models.AdvanceClassFilter) ([]models.AdvanceClass, error) {
	classes, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err, "advance classes not found", "failed to list advance classes")
	}
	out := make([]models.AdvanceClass, 0, len(classes))
	for _, ac := range classes {
		if filter.WeeklyClassID != "" && ac.WeeklyClassID != filter.WeeklyClassID {
			continue
		}
		if filter.Status != "" && ac.Status != filter.Status {
			continue
		}
		out = append(out, ac)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ScheduledDate != out[j].ScheduledDate {
			return out[i].ScheduledDate > out[j].ScheduledDate
		}
		return out[i].ScheduledTime > out[j].ScheduledTime
	})
	return out, nil
}

// Get returns one booking.
func (s *AdvanceClassService) Get(ctx context.Context, id string) (*models.AdvanceClass, error) {
	ac, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "advance class not found", "failed to load advance class")
	}
	return ac, nil
}

// Schedule books a make-up for a template. Inactive templates are accepted.
func (s *AdvanceClassService) Schedule(ctx context.Context, req models.ScheduleAdvanceRequest) (*models.AdvanceClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid advance class payload")
	}
	wc, err := s.templates.Get(ctx, req.WeeklyClassID)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	companionReq := models.CreateDailyClassRequest{
		TeacherID:      wc.TeacherID,
		StudentID:      wc.StudentID,
		Date:           req.Date,
		Time:           req.Time,
		Timezone:       wc.Timezone,
		Duration:       DurationMinutes(*wc, s.defaultDuration),
		Status:         string(models.StatusAdvance),
		CourseID:       wc.CourseID,
		Notes:          req.Reason,
		WeeklyClassID:  stringPtr(wc.ID),
		AdvanceClassID: stringPtr(id),
	}
	if wc.Subject != "" {
		companionReq.Subject = stringPtr(wc.Subject)
	}
	companion, err := s.engine.Create(ctx, companionReq)
	if err != nil {
		return nil, err
	}

	var reason *string
	if req.Reason != nil && strings.TrimSpace(*req.Reason) != "" {
		reason = stringPtr(strings.TrimSpace(*req.Reason))
	}
	ac := &models.AdvanceClass{
		ID:            id,
		WeeklyClassID: wc.ID,
		DailyClassID:  stringPtr(companion.ID),
		ScheduledDate: req.Date,
		ScheduledTime: req.Time,
		Reason:        reason,
		Status:        models.AdvanceScheduled,
		TeacherName:   wc.TeacherName,
		StudentName:   wc.StudentName,
		Subject:       wc.Subject,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.Create(ctx, ac); err != nil {
		if delErr := s.engine.SoftDelete(ctx, companion.ID); delErr != nil {
			s.logger.Error("orphaned advance companion class",
				zap.String("daily_class_id", companion.ID),
				zap.Error(delErr),
			)
		}
		return nil, appErrors.Persistence(err, "failed to create advance class")
	}
	return ac, nil
}

// MarkCompleted closes a booking. The companion class keeps its own status.
func (s *AdvanceClassService) MarkCompleted(ctx context.Context, id string) (*models.AdvanceClass, error) {
	return s.finish(ctx, id, models.AdvanceCompleted)
}

// MarkCancelled cancels a booking and suspends its companion class while the
// companion is still pending. A companion that already ran keeps its status.
func (s *AdvanceClassService) MarkCancelled(ctx context.Context, id string) (*models.AdvanceClass, error) {
	ac, err := s.finish(ctx, id, models.AdvanceCancelled)
	if err != nil {
		return nil, err
	}
	if ac.DailyClassID != nil {
		s.suspendCompanion(ctx, ac.ID, *ac.DailyClassID)
	}
	return ac, nil
}

func (s *AdvanceClassService) suspendCompanion(ctx context.Context, advanceID, dailyID string) {
	fields := []zap.Field{zap.String("advance_class_id", advanceID), zap.String("daily_class_id", dailyID)}
	companion, err := s.engine.Get(ctx, dailyID, "")
	if err != nil {
		s.logger.Warn("failed to load advance companion class", append(fields, zap.Error(err))...)
		return
	}
	if !companion.Status.InitialStatus() {
		s.logger.Info("advance companion class left unchanged", append(fields, zap.String("status", string(companion.Status)))...)
		return
	}
	if _, err := s.engine.Transition(ctx, dailyID, string(models.StatusSuspended)); err != nil {
		s.logger.Warn("failed to suspend advance companion class", append(fields, zap.Error(err))...)
	}
}

func (s *AdvanceClassService) finish(ctx context.Context, id string, status models.AdvanceStatus) (*models.AdvanceClass, error) {
	ac, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ac.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("advance class is already %s", ac.Status))
	}
	now := s.now().UTC()
	fields := map[string]interface{}{"status": status, "updatedAt": now}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, storeError(err, "advance class not found", "failed to update advance class")
	}
	ac.Status = status
	ac.UpdatedAt = &now
	return ac, nil
}
