package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/pkg/jobs"
)

type recordingExpander struct {
	mu     sync.Mutex
	from   string
	to     string
	called chan struct{}
}

func (r *recordingExpander) Expand(_ context.Context, from, to string) (*models.ExpansionResult, error) {
	r.mu.Lock()
	r.from, r.to = from, to
	r.mu.Unlock()
	if r.called != nil {
		r.called <- struct{}{}
	}
	return &models.ExpansionResult{From: from, To: to}, nil
}

type recordingSalary struct {
	month, year int
	err         error
}

func (r *recordingSalary) GenerateForPeriod(_ context.Context, month, year int) ([]models.SalaryReport, error) {
	r.month, r.year = month, year
	return nil, r.err
}

func newJobFixture(cfg JobScheduleConfig) (*JobService, *recordingExpander, *recordingSalary, *jobs.Queue) {
	queue := jobs.NewQueue("test", jobs.QueueConfig{Workers: 1, MaxRetries: 0})
	expander := &recordingExpander{called: make(chan struct{}, 1)}
	salary := &recordingSalary{}
	svc := NewJobService(queue, expander, salary, nil, cfg, nil)
	return svc, expander, salary, queue
}

func TestJobServiceDefaultExpansionWindow(t *testing.T) {
	svc, expander, _, _ := newJobFixture(JobScheduleConfig{Timezone: cairo, ExpansionHorizonDays: 14})
	// 23:30 UTC on the 2nd is already the 3rd in Cairo.
	svc.now = func() time.Time { return time.Date(2025, 3, 2, 23, 30, 0, 0, time.UTC) }

	require.NoError(t, svc.handleExpansion(context.Background(), jobs.Job{ID: "j1"}))
	assert.Equal(t, "2025-03-03", expander.from)
	assert.Equal(t, "2025-03-17", expander.to)

	require.NoError(t, svc.handleExpansion(context.Background(), jobs.Job{Payload: ExpansionWindow{From: "2025-04-01", To: "2025-04-02"}}))
	assert.Equal(t, "2025-04-01", expander.from)
}

func TestJobServiceSalaryDefaultsToPreviousMonth(t *testing.T) {
	svc, _, salary, _ := newJobFixture(JobScheduleConfig{})
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 2, 30, 0, 0, time.UTC) }

	require.NoError(t, svc.handleSalary(context.Background(), jobs.Job{}))
	assert.Equal(t, 12, salary.month)
	assert.Equal(t, 2024, salary.year)

	salary.err = errors.New("store down")
	err := svc.handleSalary(context.Background(), jobs.Job{Payload: SalaryPeriod{Month: 2, Year: 2025}})
	assert.Error(t, err)
	assert.Equal(t, 2, salary.month)
}

func TestJobServiceUsesAcademyTimezone(t *testing.T) {
	svc, _, salary, _ := newJobFixture(JobScheduleConfig{Timezone: cairo})
	assert.Equal(t, cairo, svc.cron.Location().String())

	// 22:30 UTC on 31 March is already 1 April in Cairo.
	svc.now = func() time.Time { return time.Date(2025, 3, 31, 22, 30, 0, 0, time.UTC) }
	require.NoError(t, svc.handleSalary(context.Background(), jobs.Job{}))
	assert.Equal(t, 3, salary.month)
	assert.Equal(t, 2025, salary.year)

	fallback, _, _, _ := newJobFixture(JobScheduleConfig{Timezone: "Mars/Olympus"})
	assert.Equal(t, time.UTC, fallback.cron.Location())
}

func TestJobServiceEnqueueRunsThroughQueue(t *testing.T) {
	svc, expander, _, queue := newJobFixture(JobScheduleConfig{Timezone: cairo})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()

	_, err := svc.Enqueue(JobExpandWeekly, ExpansionWindow{From: "2025-03-01", To: "2025-03-07"})
	require.NoError(t, err)

	select {
	case <-expander.called:
	case <-time.After(2 * time.Second):
		t.Fatal("expansion job did not run")
	}
	expander.mu.Lock()
	defer expander.mu.Unlock()
	assert.Equal(t, "2025-03-07", expander.to)

	_, err = svc.Enqueue(JobCleanupExports, nil)
	assert.Error(t, err)
}

func TestJobServiceRejectsBadCron(t *testing.T) {
	svc, _, _, _ := newJobFixture(JobScheduleConfig{ExpansionCron: "not a cron"})
	assert.Error(t, svc.Start())
}

func TestJobServiceStartStop(t *testing.T) {
	svc, _, _, _ := newJobFixture(JobScheduleConfig{ExpansionCron: "0 1 * * *", SalaryCron: "30 2 1 * *"})
	require.NoError(t, svc.Start())
	svc.Stop()
}
