package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/pkg/recordstore"
)

func TestTeacherRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := recordstore.NewMemoryStore()
	repo := NewTeacherRepository(store)

	teacher := &models.Teacher{Name: "Ahmed", HourlyRate: decimal.RequireFromString("20.50"), CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.Create(ctx, teacher))
	require.NotEmpty(t, teacher.ID)

	got, err := repo.FindByID(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ahmed", got.Name)
	assert.True(t, got.HourlyRate.Equal(decimal.RequireFromString("20.5")))
	assert.Nil(t, got.IsActive)
	assert.True(t, got.Active())

	require.NoError(t, repo.Update(ctx, teacher.ID, map[string]interface{}{"isActive": false}))
	got, err = repo.FindByID(ctx, teacher.ID)
	require.NoError(t, err)
	assert.False(t, got.Active())

	_, err = repo.FindByID(ctx, "missing")
	assert.True(t, errors.Is(err, recordstore.ErrRecordNotFound))
}

func TestTeacherRepositoryAcceptsNumericRates(t *testing.T) {
	ctx := context.Background()
	store := recordstore.NewMemoryStore()
	_, err := store.Create(ctx, CollectionTeachers, map[string]interface{}{"id": "t1", "name": "Mona", "hourlyRate": 15})
	require.NoError(t, err)

	teachers, err := NewTeacherRepository(store).List(ctx)
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.True(t, teachers[0].HourlyRate.Equal(decimal.NewFromInt(15)))
}

func TestDailyClassRepositoryPatchAndSubscribe(t *testing.T) {
	ctx := context.Background()
	store := recordstore.NewMemoryStore()
	repo := NewDailyClassRepository(store)

	var mu sync.Mutex
	var sizes []int
	unsubscribe, err := repo.Subscribe(ctx, func(classes []models.DailyClass) {
		mu.Lock()
		defer mu.Unlock()
		sizes = append(sizes, len(classes))
	})
	require.NoError(t, err)
	defer unsubscribe()

	class := &models.DailyClass{TeacherID: "t1", StudentID: "s1", AppointmentDate: "2025-03-03", AppointmentTime: "13:00", Duration: 60, Status: models.StatusScheduled, History: []string{"Class created at x"}}
	require.NoError(t, repo.Create(ctx, class))

	err = repo.Patch(ctx, class.ID, recordstore.Patch{
		Set:    map[string]interface{}{"status": models.StatusRunning},
		Append: map[string][]interface{}{"history": {"Status changed to running at y"}},
	})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, got.Status)
	assert.Equal(t, []string{"Class created at x", "Status changed to running at y"}, got.History)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(sizes) == 3
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []int{0, 1, 1}, sizes)
	mu.Unlock()
}

func TestAdvanceClassRepositoryKeepsPreassignedID(t *testing.T) {
	ctx := context.Background()
	repo := NewAdvanceClassRepository(recordstore.NewMemoryStore())
	class := &models.AdvanceClass{ID: "adv-1", WeeklyClassID: "w1", Status: models.AdvanceScheduled}
	require.NoError(t, repo.Create(ctx, class))
	assert.Equal(t, "adv-1", class.ID)

	require.NoError(t, repo.Update(ctx, "adv-1", map[string]interface{}{"status": models.AdvanceCancelled}))
	got, err := repo.FindByID(ctx, "adv-1")
	require.NoError(t, err)
	assert.Equal(t, models.AdvanceCancelled, got.Status)
}

func TestHolidayRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewHolidayRepository(recordstore.NewMemoryStore())
	holiday := &models.PublicHoliday{Name: "Sham El Nessim", Date: "2025-04-21"}
	require.NoError(t, repo.Create(ctx, holiday))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, holiday.ID))
	err = repo.Delete(ctx, holiday.ID)
	assert.True(t, errors.Is(err, recordstore.ErrRecordNotFound))
}

func TestRepositoriesSurfacePermissionDenied(t *testing.T) {
	ctx := context.Background()
	store := recordstore.NewMemoryStore()
	store.Deny(CollectionSalaryReports)

	_, err := NewSalaryReportRepository(store).List(ctx)
	assert.True(t, errors.Is(err, recordstore.ErrPermissionDenied))
}
