package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/internal/repository"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
)

func takeClass(t *testing.T, env *testEnv, id string) {
	t.Helper()
	ctx := context.Background()
	_, err := env.daily.Transition(ctx, id, "running")
	require.NoError(t, err)
	_, err = env.daily.Transition(ctx, id, "taken")
	require.NoError(t, err)
}

func TestSalaryEndToEndFromTemplate(t *testing.T) {
	env := newTestEnv(t, StrictTransitions)
	env.seedTajweed(t)
	ctx := context.Background()

	result, err := env.expansion.Expand(ctx, "2025-03-03", "2025-03-03")
	require.NoError(t, err)
	require.Len(t, result.CreatedIDs, 1)

	class, err := env.dailyRepo.FindByID(ctx, result.CreatedIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "13:00", class.AppointmentTime)
	takeClass(t, env, class.ID)

	reports, err := env.salary.GenerateForPeriod(ctx, 3, 2025)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "T1", reports[0].TeacherID)
	assert.Equal(t, "Ustadh Kareem", reports[0].TeacherName)
	assert.Equal(t, 1, reports[0].TotalClasses)
	assert.Equal(t, 1, reports[0].CompletedClasses)
	assert.True(t, reports[0].TotalHours.Equal(decimal.NewFromInt(1)))
	assert.True(t, reports[0].TotalSalary.Equal(decimal.NewFromInt(20)))
}

func TestSalaryThreeHoursAtTwenty(t *testing.T) {
	env := newTestEnv(t, PermissiveTransitions)
	env.seedTeacher(t, "T1", "Ustadh Kareem", "20")
	env.seedStudent(t, "S1", "Yusuf")
	ctx := context.Background()

	for _, date := range []string{"2025-03-03", "2025-03-10", "2025-03-17"} {
		class := env.createClass(t, date, "15:00")
		takeClass(t, env, class.ID)
	}
	env.createClass(t, "2025-03-24", "15:00")
	env.createClass(t, "2025-04-07", "15:00")

	report, err := env.salary.Preview(ctx, "T1", 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, 4, report.TotalClasses)
	assert.Equal(t, 3, report.CompletedClasses)
	assert.Equal(t, "3", report.TotalHours.String())
	assert.Equal(t, "60", report.TotalSalary.String())

	stored, err := env.salary.List(ctx, models.SalaryReportFilter{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSalaryFallsBackToOneHour(t *testing.T) {
	env := newTestEnv(t, PermissiveTransitions)
	env.seedTeacher(t, "T1", "Ustadh Kareem", "15.5")
	ctx := context.Background()

	_, err := env.store.Create(ctx, repository.CollectionDailyClasses, map[string]interface{}{
		"teacherId":       "T1",
		"studentId":       "S1",
		"appointmentDate": "2025-03-05",
		"appointmentTime": "10:00",
		"status":          "taken",
		"history":         []string{},
	})
	require.NoError(t, err)

	report, err := env.salary.Preview(ctx, "T1", 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, report.CompletedClasses)
	assert.Equal(t, "1", report.TotalHours.String())
	assert.Equal(t, "15.5", report.TotalSalary.String())
}

func TestSalaryCountsClassesCrossingUTCMidnight(t *testing.T) {
	env := newTestEnv(t, PermissiveTransitions)
	env.seedTeacher(t, "T1", "Ustadh Kareem", "20")
	env.seedStudent(t, "S1", "Yusuf")
	ctx := context.Background()

	class, err := env.daily.Create(ctx, models.CreateDailyClassRequest{
		TeacherID: "T1",
		StudentID: "S1",
		Date:      "2025-03-10",
		Time:      "01:00",
		Timezone:  cairo,
		Duration:  90,
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-09", class.AppointmentDate)
	assert.Equal(t, "23:00", class.StartTime)
	assert.Equal(t, "00:30", class.EndTime)
	takeClass(t, env, class.ID)

	reports, err := env.salary.GenerateForPeriod(ctx, 3, 2025)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].CompletedClasses)
	assert.Equal(t, "1.5", reports[0].TotalHours.String())
	assert.Equal(t, "30", reports[0].TotalSalary.String())
}

func TestClassHours(t *testing.T) {
	cases := []struct {
		start, end string
		want       string
	}{
		{"13:00", "14:30", "1.5"},
		{"13:00", "13:00", "1"},
		{"23:30", "00:30", "1"},
		{"23:00", "00:30", "1.5"},
		{"22:15", "00:00", "1.75"},
		{"13:00", "bogus", "1"},
		{"", "14:00", "1"},
		{"13:00", "13:20", "0.3333333333333333"},
	}
	for _, tc := range cases {
		got := ClassHours(models.DailyClass{StartTime: tc.start, EndTime: tc.end})
		assert.Equal(t, tc.want, got.String(), "%s-%s", tc.start, tc.end)
	}
}

func TestSalaryGenerationIsIdempotentPerPeriod(t *testing.T) {
	env := newTestEnv(t, PermissiveTransitions)
	env.seedTeacher(t, "T1", "Ustadh Kareem", "20")
	env.seedTeacher(t, "T2", "Idle Teacher", "30")
	env.seedStudent(t, "S1", "Yusuf")
	ctx := context.Background()
	class := env.createClass(t, "2025-03-03", "15:00")
	takeClass(t, env, class.ID)

	first, err := env.salary.GenerateForPeriod(ctx, 3, 2025)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.NotEmpty(t, first[0].ID)

	second, err := env.salary.GenerateForPeriod(ctx, 3, 2025)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)

	stored, err := env.salary.List(ctx, models.SalaryReportFilter{Month: 3, Year: 2025})
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	got, err := env.salary.Get(ctx, first[0].ID)
	require.NoError(t, err)
	assert.True(t, got.TotalSalary.Equal(decimal.NewFromInt(20)))
}

func TestSalaryValidatesPeriod(t *testing.T) {
	env := newTestEnv(t, PermissiveTransitions)
	_, err := env.salary.GenerateForPeriod(context.Background(), 13, 2025)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = env.salary.Preview(context.Background(), "ghost", 3, 2025)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
