package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
	"github.com/noah-isme/academy-scheduler/pkg/timezone"
)

// MaxExpansionDays bounds a single expansion window.
const MaxExpansionDays = 92

type templateSource interface {
	Active(ctx context.Context) ([]models.WeeklyClass, error)
}

type holidayCalendar interface {
	DatesBetween(ctx context.Context, from, to string) (map[string]string, error)
}

type classLister interface {
	List(ctx context.Context) ([]models.DailyClass, error)
}

type instanceCreator interface {
	Create(ctx context.Context, req models.CreateDailyClassRequest) (*models.DailyClass, error)
}

// ExpansionService materialises weekly templates into dated classes.
type ExpansionService struct {
	templates       templateSource
	holidays        holidayCalendar
	classes         classLister
	engine          instanceCreator
	metrics         *MetricsService
	logger          *zap.Logger
	defaultDuration int
	mu              sync.Mutex
}

// NewExpansionService constructs an ExpansionService.
func NewExpansionService(templates templateSource, holidays holidayCalendar, classes classLister, engine instanceCreator, metrics *MetricsService, logger *zap.Logger, defaultDuration int) *ExpansionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultDuration <= 0 {
		defaultDuration = 60
	}
	return &ExpansionService{
		templates:       templates,
		holidays:        holidays,
		classes:         classes,
		engine:          engine,
		metrics:         metrics,
		logger:          logger,
		defaultDuration: defaultDuration,
	}
}

// Expand creates one class per active template and matching local date in
// [from, to]. Holidays and dates that already carry a class of the template are
// skipped, so repeated runs over the same window create nothing new.
func (s *ExpansionService) Expand(ctx context.Context, from, to string) (*models.ExpansionResult, error) {
	start, err := timezone.ParseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := timezone.ParseDate(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > MaxExpansionDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("expansion window is limited to %d days", MaxExpansionDays))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	templates, err := s.templates.Active(ctx)
	if err != nil {
		return nil, err
	}
	holidays, err := s.holidays.DatesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	existing, err := s.classes.List(ctx)
	if err != nil {
		return nil, storeError(err, "classes not found", "failed to list classes")
	}
	seen := expandedDates(existing, templates)

	result := &models.ExpansionResult{From: from, To: to, CreatedIDs: []string{}}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := day.Format(timezone.DateLayout)
		for _, wc := range templates {
			weekday, ok := wc.DayOfWeek.Weekday()
			if !ok || weekday != day.Weekday() {
				continue
			}
			if _, holiday := holidays[date]; holiday {
				result.SkippedHolidays++
				continue
			}
			key := wc.ID + "|" + date
			if _, dup := seen[key]; dup {
				result.SkippedDuplicates++
				continue
			}

			class, err := s.engine.Create(ctx, expansionRequest(wc, date, DurationMinutes(wc, s.defaultDuration)))
			if err != nil {
				if errors.Is(err, appErrors.ErrPersistence) {
					return result, err
				}
				result.SkippedInvalid++
				s.logger.Warn("skipping weekly class occurrence",
					zap.String("weekly_class_id", wc.ID),
					zap.String("date", date),
					zap.Error(err),
				)
				continue
			}
			seen[key] = struct{}{}
			result.Created++
			result.CreatedIDs = append(result.CreatedIDs, class.ID)
		}
	}

	s.metrics.AddExpanded(result.Created)
	if result.Created > 0 {
		s.logger.Info("weekly classes expanded",
			zap.String("from", from),
			zap.String("to", to),
			zap.Int("created", result.Created),
		)
	}
	return result, nil
}

// expandedDates keys existing template-generated classes by template id and
// local date in the template zone. Inactive classes count, so a soft deleted
// occurrence is not recreated.
func expandedDates(classes []models.DailyClass, templates []models.WeeklyClass) map[string]struct{} {
	zones := make(map[string]string, len(templates))
	for _, wc := range templates {
		zones[wc.ID] = wc.Timezone
	}
	seen := make(map[string]struct{}, len(classes))
	for _, class := range classes {
		if class.WeeklyClassID == nil || class.AdvanceClassID != nil {
			continue
		}
		zone, ok := zones[*class.WeeklyClassID]
		if !ok {
			continue
		}
		localDate, _, err := timezone.UTCToLocal(class.AppointmentDate, class.AppointmentTime, zone)
		if err != nil {
			continue
		}
		seen[*class.WeeklyClassID+"|"+localDate] = struct{}{}
	}
	return seen
}

func expansionRequest(wc models.WeeklyClass, date string, duration int) models.CreateDailyClassRequest {
	req := models.CreateDailyClassRequest{
		TeacherID:     wc.TeacherID,
		StudentID:     wc.StudentID,
		Date:          date,
		Time:          wc.StartTime,
		Timezone:      wc.Timezone,
		Duration:      duration,
		CourseID:      wc.CourseID,
		WeeklyClassID: stringPtr(wc.ID),
	}
	if wc.Subject != "" {
		req.Subject = stringPtr(wc.Subject)
	}
	return req
}
