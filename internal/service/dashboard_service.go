package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/pkg/timezone"
)

const upcomingHolidayDays = 30

type dashboardDirectory interface {
	Teachers(ctx context.Context) ([]models.Teacher, error)
	Students(ctx context.Context) ([]models.Student, error)
}

type dashboardTemplates interface {
	Active(ctx context.Context) ([]models.WeeklyClass, error)
}

type dashboardHolidays interface {
	List(ctx context.Context, filter models.HolidayFilter) ([]models.PublicHoliday, error)
}

type dashboardAdvances interface {
	List(ctx context.Context, filter models.AdvanceClassFilter) ([]models.AdvanceClass, error)
}

// DashboardService composes the administrator overview.
type DashboardService struct {
	directory       dashboardDirectory
	templates       dashboardTemplates
	classes         classViewer
	holidays        dashboardHolidays
	advances        dashboardAdvances
	logger          *zap.Logger
	defaultTimezone string
	now             func() time.Time
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Directory       dashboardDirectory
	Templates       dashboardTemplates
	Classes         classViewer
	Holidays        dashboardHolidays
	Advances        dashboardAdvances
	Logger          *zap.Logger
	DefaultTimezone string
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	zone := params.DefaultTimezone
	if zone == "" {
		zone = "Africa/Cairo"
	}
	return &DashboardService{
		directory:       params.Directory,
		templates:       params.Templates,
		classes:         params.Classes,
		holidays:        params.Holidays,
		advances:        params.Advances,
		logger:          logger,
		defaultTimezone: zone,
		now:             time.Now,
	}
}

// Overview counts the directory, today's classes in viewerZone, upcoming
// holidays and open make-up bookings. Teachers and students are required;
// the other sections fall back to empty values and are named in Degraded.
func (s *DashboardService) Overview(ctx context.Context, viewerZone string) (*models.DashboardOverview, error) {
	zone := firstNonEmpty(viewerZone, s.defaultTimezone)
	now := s.now()
	today, err := timezone.Today(zone, now)
	if err != nil {
		return nil, err
	}

	teachers, err := s.directory.Teachers(ctx)
	if err != nil {
		return nil, err
	}
	students, err := s.directory.Students(ctx)
	if err != nil {
		return nil, err
	}

	overview := &models.DashboardOverview{
		Date:             today,
		Timezone:         zone,
		TodayByStatus:    map[models.ClassStatus]int{},
		UpcomingHolidays: []models.PublicHoliday{},
		GeneratedAt:      now.UTC(),
	}
	for _, t := range teachers {
		if t.Active() {
			overview.ActiveTeachers++
		}
	}
	for _, st := range students {
		if st.Active() {
			overview.ActiveStudents++
		}
	}

	if templates, err := s.templates.Active(ctx); err != nil {
		s.degrade(overview, "weeklyClasses", err)
	} else {
		overview.ActiveTemplates = len(templates)
	}

	day, _ := timezone.ParseDate(today)
	filter := models.DailyClassFilter{
		From: day.AddDate(0, 0, -1).Format(timezone.DateLayout),
		To:   day.AddDate(0, 0, 1).Format(timezone.DateLayout),
	}
	if views, err := s.classes.List(ctx, filter, zone); err != nil {
		s.degrade(overview, "dailyClasses", err)
	} else {
		for _, view := range views {
			if view.LocalDate != today {
				continue
			}
			overview.TodayTotal++
			overview.TodayByStatus[view.Status]++
		}
	}

	horizon := day.AddDate(0, 0, upcomingHolidayDays).Format(timezone.DateLayout)
	if holidays, err := s.holidays.List(ctx, models.HolidayFilter{From: today, To: horizon}); err != nil {
		s.degrade(overview, "holidays", err)
	} else {
		overview.UpcomingHolidays = holidays
	}

	if pending, err := s.advances.List(ctx, models.AdvanceClassFilter{Status: models.AdvanceScheduled}); err != nil {
		s.degrade(overview, "advanceClasses", err)
	} else {
		overview.PendingAdvance = len(pending)
	}

	return overview, nil
}

func (s *DashboardService) degrade(overview *models.DashboardOverview, section string, err error) {
	overview.Degraded = append(overview.Degraded, section)
	s.logger.Warn("dashboard section unavailable", zap.String("section", section), zap.Error(err))
}
