package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

func (c *memoryCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func newReportService(env *testEnv, cache *CacheService) *ReportService {
	return NewReportService(env.daily, env.dailyRepo, env.directory, env.salary, cache, nil, cairo)
}

func TestDailyReportGroupsByLocalDate(t *testing.T) {
	env := newTestEnv(t, PermissiveTransitions)
	env.seedTajweed(t)
	ctx := context.Background()
	first := env.createClass(t, "2025-03-03", "15:00")
	env.createClass(t, "2025-03-03", "01:30")
	env.createClass(t, "2025-03-04", "15:00")
	_, err := env.daily.Transition(ctx, first.ID, "absent")
	require.NoError(t, err)

	cache := NewCacheService(newMemoryCache(), env.metrics, time.Minute, nil, true)
	svc := newReportService(env, cache)

	report, hit, err := svc.DailyReport(ctx, "2025-03-03", "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.ByStatus[models.StatusAbsent])
	assert.Equal(t, 1, report.ByStatus[models.StatusScheduled])
	require.Len(t, report.Teachers, 1)
	assert.Equal(t, "Ustadh Kareem", report.Teachers[0].TeacherName)
	assert.Equal(t, 2, report.Teachers[0].Total)

	cached, hit, err := svc.DailyReport(ctx, "2025-03-03", "")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, report.Total, cached.Total)

	// Viewed from UTC the 01:30 Cairo class belongs to the 2nd.
	utc, _, err := svc.DailyReport(ctx, "2025-03-03", "UTC")
	require.NoError(t, err)
	assert.Equal(t, 1, utc.Total)
}

func TestStudentAttendance(t *testing.T) {
	env := newTestEnv(t, PermissiveTransitions)
	env.seedTajweed(t)
	ctx := context.Background()
	statuses := []string{"taken", "taken", "taken", "absent", "leave", "declined"}
	for i, status := range statuses {
		class := env.createClass(t, "2025-03-1"+string(rune('0'+i)), "15:00")
		_, err := env.daily.Transition(ctx, class.ID, status)
		require.NoError(t, err)
	}

	summary, hit, err := newReportService(env, nil).StudentAttendance(ctx, "S1", 3, 2025)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "Yusuf", summary.StudentName)
	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 3, summary.Taken)
	assert.Equal(t, 1, summary.Absent)
	assert.Equal(t, 1, summary.Leave)
	assert.Equal(t, 1, summary.Other)
	assert.InDelta(t, 0.6, summary.AttendanceRate, 1e-9)

	_, _, err = newReportService(env, nil).StudentAttendance(ctx, "ghost", 3, 2025)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTeacherSummaryUsesLivePreview(t *testing.T) {
	env := newTestEnv(t, PermissiveTransitions)
	env.seedTajweed(t)
	ctx := context.Background()
	class := env.createClass(t, "2025-03-03", "15:00")
	takeClass(t, env, class.ID)

	summary, _, err := newReportService(env, nil).TeacherSummary(ctx, "T1", 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CompletedClasses)
	assert.Equal(t, "20", summary.TotalSalary.String())

	_, _, err = newReportService(env, nil).TeacherSummary(ctx, "T1", 0, 2025)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
