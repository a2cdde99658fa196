package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/pkg/timezone"
)

type classViewer interface {
	List(ctx context.Context, filter models.DailyClassFilter, viewerZone string) ([]models.DailyClassView, error)
}

type studentReader interface {
	Student(ctx context.Context, id string) (*models.Student, error)
}

type salaryPreviewer interface {
	Preview(ctx context.Context, teacherID string, month, year int) (*models.SalaryReport, error)
}

// ReportService builds read-only report views, cached under ReportCachePrefix.
type ReportService struct {
	views           classViewer
	classes         classLister
	students        studentReader
	salaries        salaryPreviewer
	cache           *CacheService
	logger          *zap.Logger
	defaultTimezone string
}

// NewReportService constructs a ReportService. cache may be nil.
func NewReportService(views classViewer, classes classLister, students studentReader, salaries salaryPreviewer, cache *CacheService, logger *zap.Logger, defaultTimezone string) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTimezone == "" {
		defaultTimezone = "Africa/Cairo"
	}
	return &ReportService{
		views:           views,
		classes:         classes,
		students:        students,
		salaries:        salaries,
		cache:           cache,
		logger:          logger,
		defaultTimezone: defaultTimezone,
	}
}

// DailyReport groups the classes whose local date in viewerZone equals date.
// The returned flag reports a cache hit.
func (s *ReportService) DailyReport(ctx context.Context, date, viewerZone string) (*models.DailyReport, bool, error) {
	zone := firstNonEmpty(viewerZone, s.defaultTimezone)
	day, err := timezone.ParseDate(date)
	if err != nil {
		return nil, false, err
	}
	if err := timezone.Validate(zone); err != nil {
		return nil, false, err
	}

	key := CacheKey("daily", date, zone)
	var cached models.DailyReport
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	// A local date spans at most the neighbouring UTC dates.
	filter := models.DailyClassFilter{
		From: day.AddDate(0, 0, -1).Format(timezone.DateLayout),
		To:   day.AddDate(0, 0, 1).Format(timezone.DateLayout),
	}
	views, err := s.views.List(ctx, filter, zone)
	if err != nil {
		return nil, false, err
	}

	report := &models.DailyReport{
		Date:     date,
		Timezone: zone,
		ByStatus: map[models.ClassStatus]int{},
		Teachers: []models.TeacherDailyCount{},
		Classes:  []models.DailyClassView{},
	}
	perTeacher := map[string]*models.TeacherDailyCount{}
	for _, view := range views {
		if view.LocalDate != date {
			continue
		}
		report.Total++
		report.ByStatus[view.Status]++
		report.Classes = append(report.Classes, view)

		count, ok := perTeacher[view.TeacherID]
		if !ok {
			count = &models.TeacherDailyCount{
				TeacherID:   view.TeacherID,
				TeacherName: view.TeacherName,
				ByStatus:    map[models.ClassStatus]int{},
			}
			perTeacher[view.TeacherID] = count
		}
		count.Total++
		count.ByStatus[view.Status]++
	}
	for _, count := range perTeacher {
		report.Teachers = append(report.Teachers, *count)
	}
	sort.Slice(report.Teachers, func(i, j int) bool {
		if report.Teachers[i].TeacherName != report.Teachers[j].TeacherName {
			return report.Teachers[i].TeacherName < report.Teachers[j].TeacherName
		}
		return report.Teachers[i].TeacherID < report.Teachers[j].TeacherID
	})

	s.cache.Set(ctx, key, report, 0)
	return report, false, nil
}

// StudentAttendance counts a student's active classes in the month. The rate is
// taken over taken, absent and leave classes.
func (s *ReportService) StudentAttendance(ctx context.Context, studentID string, month, year int) (*models.StudentAttendance, bool, error) {
	if err := validatePeriod(month, year); err != nil {
		return nil, false, err
	}
	key := CacheKey("attendance", studentID, strconv.Itoa(year), fmt.Sprintf("%02d", month))
	var cached models.StudentAttendance
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	student, err := s.students.Student(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, false, storeError(err, "classes not found", "failed to list classes")
	}
	first, last := timezone.MonthBounds(month, year)
	summary := &models.StudentAttendance{
		StudentID:   student.ID,
		StudentName: student.Name,
		Month:       month,
		Year:        year,
	}
	for _, class := range FilterDailyClasses(classes, models.DailyClassFilter{From: first, To: last, StudentID: studentID}) {
		summary.Total++
		switch class.Status {
		case models.StatusTaken:
			summary.Taken++
		case models.StatusAbsent:
			summary.Absent++
		case models.StatusLeave:
			summary.Leave++
		default:
			summary.Other++
		}
	}
	if counted := summary.Taken + summary.Absent + summary.Leave; counted > 0 {
		summary.AttendanceRate = float64(summary.Taken) / float64(counted)
	}

	s.cache.Set(ctx, key, summary, 0)
	return summary, false, nil
}

// TeacherSummary is the live salary preview of a teacher for the month.
func (s *ReportService) TeacherSummary(ctx context.Context, teacherID string, month, year int) (*models.SalaryReport, bool, error) {
	if err := validatePeriod(month, year); err != nil {
		return nil, false, err
	}
	key := CacheKey("teacher", teacherID, strconv.Itoa(year), fmt.Sprintf("%02d", month))
	var cached models.SalaryReport
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}
	report, err := s.salaries.Preview(ctx, teacherID, month, year)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, report, 0)
	return report, false, nil
}
