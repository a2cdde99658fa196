package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
)

func TestExpandCreatesMondayOccurrences(t *testing.T) {
	env := newTestEnv(t, PermissiveTransitions)
	wc := env.seedTajweed(t)
	ctx := context.Background()

	result, err := env.expansion.Expand(ctx, "2025-03-01", "2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.SkippedDuplicates)

	classes, err := env.daily.List(ctx, models.DailyClassFilter{WeeklyClassID: wc.ID}, cairo)
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, "2025-03-03", classes[0].AppointmentDate)
	assert.Equal(t, "13:00", classes[0].AppointmentTime)
	assert.Equal(t, "14:00", classes[0].EndTime)
	assert.Equal(t, "15:00", classes[0].LocalTime)
	assert.Equal(t, "Tajweed", *classes[0].Subject)
	assert.Equal(t, "2025-03-10", classes[1].LocalDate)
	assert.Equal(t, float64(2), testutil.ToFloat64(env.metrics.expanded))
}

func TestExpandIsIdempotent(t *testing.T) {
	env := newTestEnv(t, PermissiveTransitions)
	env.seedTajweed(t)
	ctx := context.Background()

	_, err := env.expansion.Expand(ctx, "2025-03-01", "2025-03-14")
	require.NoError(t, err)
	again, err := env.expansion.Expand(ctx, "2025-03-01", "2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 2, again.SkippedDuplicates)

	classes, err := env.dailyRepo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, classes, 2)
}

func TestExpandSkipsHolidays(t *testing.T) {
	env := newTestEnv(t, PermissiveTransitions)
	env.seedTajweed(t)
	ctx := context.Background()
	_, err := env.holidays.Create(ctx, models.CreateHolidayRequest{Name: "Holiday", Date: "2025-03-03"})
	require.NoError(t, err)

	result, err := env.expansion.Expand(ctx, "2025-03-03", "2025-03-03")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.SkippedHolidays)

	classes, err := env.dailyRepo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, classes)
}

func TestExpandIgnoresInactiveTemplates(t *testing.T) {
	env := newTestEnv(t, PermissiveTransitions)
	wc := env.seedTajweed(t)
	ctx := context.Background()
	require.NoError(t, env.weekly.Deactivate(ctx, wc.ID))

	result, err := env.expansion.Expand(ctx, "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
}

func TestExpandDoesNotRecreateDeletedOccurrence(t *testing.T) {
	env := newTestEnv(t, PermissiveTransitions)
	env.seedTajweed(t)
	ctx := context.Background()

	first, err := env.expansion.Expand(ctx, "2025-03-03", "2025-03-03")
	require.NoError(t, err)
	require.Len(t, first.CreatedIDs, 1)
	require.NoError(t, env.daily.SoftDelete(ctx, first.CreatedIDs[0]))

	again, err := env.expansion.Expand(ctx, "2025-03-03", "2025-03-03")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 1, again.SkippedDuplicates)
}

func TestExpandValidatesWindow(t *testing.T) {
	env := newTestEnv(t, PermissiveTransitions)
	ctx := context.Background()

	_, err := env.expansion.Expand(ctx, "2025-03-10", "2025-03-01")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = env.expansion.Expand(ctx, "2025-01-01", "2025-12-31")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = env.expansion.Expand(ctx, "03/01/2025", "2025-03-10")
	assert.True(t, errors.Is(err, appErrors.ErrConversion))
}
