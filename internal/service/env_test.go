package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/internal/repository"
	"github.com/noah-isme/academy-scheduler/pkg/recordstore"
)

const cairo = "Africa/Cairo"

var fixedNow = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type testEnv struct {
	store     *recordstore.MemoryStore
	metrics   *MetricsService
	directory *DirectoryService
	weekly    *WeeklyClassService
	holidays  *HolidayService
	daily     *DailyClassService
	expansion *ExpansionService
	advance   *AdvanceClassService
	salary    *SalaryService
	dailyRepo *repository.DailyClassRepository
}

func newTestEnv(t *testing.T, policy TransitionPolicy) *testEnv {
	t.Helper()
	store := recordstore.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	metrics := NewMetricsService()
	dailyRepo := repository.NewDailyClassRepository(store)

	directory := NewDirectoryService(repository.NewTeacherRepository(store), repository.NewStudentRepository(store), nil, nil)
	directory.now = fixedClock
	weekly := NewWeeklyClassService(repository.NewWeeklyClassRepository(store), directory, nil, nil, cairo)
	weekly.now = fixedClock
	holidays := NewHolidayService(repository.NewHolidayRepository(store), nil, nil)
	holidays.now = fixedClock
	daily := NewDailyClassService(dailyRepo, directory, metrics, nil, nil, DailyClassConfig{DefaultTimezone: cairo, DefaultDuration: 60, Policy: policy})
	daily.now = fixedClock
	expansion := NewExpansionService(weekly, holidays, dailyRepo, daily, metrics, nil, 60)
	advance := NewAdvanceClassService(repository.NewAdvanceClassRepository(store), weekly, daily, nil, nil, 60)
	advance.now = fixedClock
	salary := NewSalaryService(repository.NewSalaryReportRepository(store), directory, dailyRepo, metrics, nil)
	salary.now = fixedClock

	return &testEnv{
		store:     store,
		metrics:   metrics,
		directory: directory,
		weekly:    weekly,
		holidays:  holidays,
		daily:     daily,
		expansion: expansion,
		advance:   advance,
		salary:    salary,
		dailyRepo: dailyRepo,
	}
}

func (e *testEnv) seedTeacher(t *testing.T, id, name, rate string) {
	t.Helper()
	teacher := &models.Teacher{ID: id, Name: name, HourlyRate: decimal.RequireFromString(rate), Timezone: cairo, CreatedAt: fixedNow}
	require.NoError(t, repository.NewTeacherRepository(e.store).Create(context.Background(), teacher))
}

func (e *testEnv) seedStudent(t *testing.T, id, name string) {
	t.Helper()
	student := &models.Student{ID: id, Name: name, CreatedAt: fixedNow}
	require.NoError(t, repository.NewStudentRepository(e.store).Create(context.Background(), student))
}

// seedTajweed registers T1 teaching S1 every Monday 15:00-16:00 Cairo time.
func (e *testEnv) seedTajweed(t *testing.T) *models.WeeklyClass {
	t.Helper()
	e.seedTeacher(t, "T1", "Ustadh Kareem", "20")
	e.seedStudent(t, "S1", "Yusuf")
	wc, err := e.weekly.Create(context.Background(), models.CreateWeeklyClassRequest{
		TeacherID: "T1",
		StudentID: "S1",
		DayOfWeek: "Monday",
		StartTime: "15:00",
		EndTime:   "16:00",
		Timezone:  cairo,
		Subject:   "Tajweed",
	})
	require.NoError(t, err)
	return wc
}

func (e *testEnv) createClass(t *testing.T, date, clock string) *models.DailyClass {
	t.Helper()
	class, err := e.daily.Create(context.Background(), models.CreateDailyClassRequest{
		TeacherID: "T1",
		StudentID: "S1",
		Date:      date,
		Time:      clock,
		Timezone:  cairo,
	})
	require.NoError(t, err)
	return class
}
