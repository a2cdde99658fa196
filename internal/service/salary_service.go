package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
	"github.com/noah-isme/academy-scheduler/pkg/timezone"
)

const minutesPerDay = 24 * 60

var (
	minutesPerHour = decimal.NewFromInt(60)
	fallbackHours  = decimal.NewFromInt(1)
)

type salaryReportRepository interface {
	List(ctx context.Context) ([]models.SalaryReport, error)
	FindByID(ctx context.Context, id string) (*models.SalaryReport, error)
	Create(ctx context.Context, report *models.SalaryReport) error
}

type payrollDirectory interface {
	Teacher(ctx context.Context, id string) (*models.Teacher, error)
	Teachers(ctx context.Context) ([]models.Teacher, error)
}

// SalaryService aggregates completed classes into monthly teacher pay.
type SalaryService struct {
	repo      salaryReportRepository
	directory payrollDirectory
	classes   classLister
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
	mu        sync.Mutex
}

// NewSalaryService constructs a SalaryService.
func NewSalaryService(repo salaryReportRepository, directory payrollDirectory, classes classLister, metrics *MetricsService, logger *zap.Logger) *SalaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalaryService{
		repo:      repo,
		directory: directory,
		classes:   classes,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// GenerateForPeriod persists one report per teacher with classes in the month.
// Reports are keyed by teacher, month and year: a teacher that already has a
// report for the period keeps it and no second one is written.
func (s *SalaryService) GenerateForPeriod(ctx context.Context, month, year int) ([]models.SalaryReport, error) {
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.List(ctx, models.SalaryReportFilter{Month: month, Year: year})
	if err != nil {
		return nil, err
	}
	byTeacher := make(map[string]models.SalaryReport, len(existing))
	for _, r := range existing {
		byTeacher[r.TeacherID] = r
	}

	teachers, err := s.directory.Teachers(ctx)
	if err != nil {
		return nil, err
	}
	classes, err := s.periodClasses(ctx, month, year)
	if err != nil {
		return nil, err
	}

	reports := make([]models.SalaryReport, 0, len(teachers))
	created := 0
	for _, teacher := range teachers {
		if report, ok := byTeacher[teacher.ID]; ok {
			reports = append(reports, report)
			continue
		}
		report := s.aggregate(teacher, classes, month, year)
		if report.TotalClasses == 0 {
			continue
		}
		if err := s.repo.Create(ctx, &report); err != nil {
			return nil, appErrors.Persistence(err, fmt.Sprintf("failed to store salary report for teacher %s", teacher.ID))
		}
		created++
		reports = append(reports, report)
	}

	sortReports(reports)
	s.metrics.AddSalaryReports(created)
	s.logger.Info("salary reports generated",
		zap.Int("month", month),
		zap.Int("year", year),
		zap.Int("created", created),
		zap.Int("existing", len(reports)-created),
	)
	return reports, nil
}

// Preview computes a teacher's report for the period without storing it.
func (s *SalaryService) Preview(ctx context.Context, teacherID string, month, year int) (*models.SalaryReport, error) {
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}
	teacher, err := s.directory.Teacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	classes, err := s.periodClasses(ctx, month, year)
	if err != nil {
		return nil, err
	}
	report := s.aggregate(*teacher, classes, month, year)
	return &report, nil
}

// List returns stored reports matching filter.
func (s *SalaryService) List(ctx context.Context, filter models.SalaryReportFilter) ([]models.SalaryReport, error) {
	reports, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err, "salary reports not found", "failed to list salary reports")
	}
	out := make([]models.SalaryReport, 0, len(reports))
	for _, r := range reports {
		if filter.TeacherID != "" && r.TeacherID != filter.TeacherID {
			continue
		}
		if filter.Month != 0 && r.Month != filter.Month {
			continue
		}
		if filter.Year != 0 && r.Year != filter.Year {
			continue
		}
		out = append(out, r)
	}
	sortReports(out)
	return out, nil
}

// Get returns one stored report.
func (s *SalaryService) Get(ctx context.Context, id string) (*models.SalaryReport, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "salary report not found", "failed to load salary report")
	}
	return report, nil
}

// ClassHours is the billable length of a completed class. Start and end are
// UTC clocks, so an end before the start means the class crossed midnight.
// Classes without a usable start and end, or of zero length, count as one hour.
func ClassHours(class models.DailyClass) decimal.Decimal {
	start, err := timezone.ParseClock(class.StartTime)
	if err != nil {
		return fallbackHours
	}
	end, err := timezone.ParseClock(class.EndTime)
	if err != nil {
		return fallbackHours
	}
	minutes := (end - start + minutesPerDay) % minutesPerDay
	if minutes == 0 {
		return fallbackHours
	}
	return decimal.NewFromInt(int64(minutes)).Div(minutesPerHour)
}

func (s *SalaryService) periodClasses(ctx context.Context, month, year int) ([]models.DailyClass, error) {
	first, last := timezone.MonthBounds(month, year)
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, storeError(err, "classes not found", "failed to list classes")
	}
	return FilterDailyClasses(classes, models.DailyClassFilter{From: first, To: last}), nil
}

func (s *SalaryService) aggregate(teacher models.Teacher, classes []models.DailyClass, month, year int) models.SalaryReport {
	report := models.SalaryReport{
		TeacherID:   teacher.ID,
		TeacherName: teacher.Name,
		Month:       month,
		Year:        year,
		TotalHours:  decimal.Zero,
		RatePerHour: teacher.HourlyRate,
		CreatedAt:   s.now().UTC(),
	}
	for _, class := range classes {
		if class.TeacherID != teacher.ID {
			continue
		}
		report.TotalClasses++
		if class.Status != models.StatusTaken {
			continue
		}
		report.CompletedClasses++
		report.TotalHours = report.TotalHours.Add(ClassHours(class))
	}
	report.TotalHours = report.TotalHours.Round(2)
	report.TotalSalary = report.TotalHours.Mul(report.RatePerHour).Round(2)
	return report
}

func validatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if year < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "year must be positive")
	}
	return nil
}

func sortReports(reports []models.SalaryReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].Year != reports[j].Year {
			return reports[i].Year < reports[j].Year
		}
		if reports[i].Month != reports[j].Month {
			return reports[i].Month < reports[j].Month
		}
		if reports[i].TeacherName != reports[j].TeacherName {
			return reports[i].TeacherName < reports[j].TeacherName
		}
		return reports[i].TeacherID < reports[j].TeacherID
	})
}
