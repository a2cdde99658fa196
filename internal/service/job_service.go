package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/pkg/jobs"
	"github.com/noah-isme/academy-scheduler/pkg/timezone"
)

// Background job types.
const (
	JobExpandWeekly   = "expand_weekly_classes"
	JobGenerateSalary = "generate_salary_reports"
	JobCleanupExports = "cleanup_exports"
)

type weeklyExpander interface {
	Expand(ctx context.Context, from, to string) (*models.ExpansionResult, error)
}

type salaryGenerator interface {
	GenerateForPeriod(ctx context.Context, month, year int) ([]models.SalaryReport, error)
}

type exportCleaner interface {
	Cleanup(ttl time.Duration) ([]string, error)
}

// JobScheduleConfig holds the cron triggers for recurring work.
type JobScheduleConfig struct {
	Timezone             string
	ExpansionCron        string
	ExpansionHorizonDays int
	SalaryCron           string
	CleanupInterval      time.Duration
}

// ExpansionWindow is the payload of an expansion job.
type ExpansionWindow struct {
	From string
	To   string
}

// SalaryPeriod is the payload of a salary job.
type SalaryPeriod struct {
	Month int
	Year  int
}

// JobService feeds cron triggers into the background queue.
type JobService struct {
	queue    *jobs.Queue
	cron     *cron.Cron
	expander weeklyExpander
	salaries salaryGenerator
	exports  exportCleaner
	cfg      JobScheduleConfig
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time
}

// NewJobService registers the job handlers on queue. Triggers are added by Start.
func NewJobService(queue *jobs.Queue, expander weeklyExpander, salaries salaryGenerator, exports exportCleaner, cfg JobScheduleConfig, logger *zap.Logger) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Africa/Cairo"
	}
	if cfg.ExpansionHorizonDays <= 0 {
		cfg.ExpansionHorizonDays = 14
	}
	if cfg.ExpansionHorizonDays > MaxExpansionDays-1 {
		cfg.ExpansionHorizonDays = MaxExpansionDays - 1
	}
	loc, err := timezone.Load(cfg.Timezone)
	if err != nil {
		logger.Warn("invalid academy timezone for job schedule, using UTC",
			zap.String("timezone", cfg.Timezone),
			zap.Error(err),
		)
		cfg.Timezone = "UTC"
		loc = time.UTC
	}
	cl := cronLogger{logger: logger.Sugar()}
	s := &JobService{
		queue:    queue,
		cron:     cron.New(cron.WithLocation(loc), cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		location: loc,
		expander: expander,
		salaries: salaries,
		exports:  exports,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
	queue.Register(JobExpandWeekly, s.handleExpansion)
	queue.Register(JobGenerateSalary, s.handleSalary)
	if exports != nil {
		queue.Register(JobCleanupExports, s.handleCleanup)
	}
	return s
}

// Start schedules the configured triggers and starts the cron runner. The queue
// must already be running.
func (s *JobService) Start() error {
	if s.cfg.ExpansionCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.ExpansionCron, func() { s.enqueue(JobExpandWeekly, nil) }); err != nil {
			return fmt.Errorf("schedule expansion %q: %w", s.cfg.ExpansionCron, err)
		}
	}
	if s.cfg.SalaryCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.SalaryCron, func() { s.enqueue(JobGenerateSalary, nil) }); err != nil {
			return fmt.Errorf("schedule salary %q: %w", s.cfg.SalaryCron, err)
		}
	}
	if s.exports != nil && s.cfg.CleanupInterval > 0 {
		spec := "@every " + s.cfg.CleanupInterval.String()
		if _, err := s.cron.AddFunc(spec, func() { s.enqueue(JobCleanupExports, nil) }); err != nil {
			return fmt.Errorf("schedule export cleanup: %w", err)
		}
	}
	s.cron.Start()
	s.logger.Info("job scheduler started",
		zap.String("expansion_cron", s.cfg.ExpansionCron),
		zap.String("salary_cron", s.cfg.SalaryCron),
		zap.String("timezone", s.location.String()),
		zap.Duration("cleanup_interval", s.cfg.CleanupInterval),
	)
	return nil
}

// Stop halts the cron runner and waits for running triggers to return.
func (s *JobService) Stop() {
	<-s.cron.Stop().Done()
}

// Enqueue submits a job outside of its schedule.
func (s *JobService) Enqueue(jobType string, payload interface{}) (string, error) {
	return s.queue.Enqueue(jobs.Job{Type: jobType, Payload: payload})
}

func (s *JobService) enqueue(jobType string, payload interface{}) {
	if _, err := s.Enqueue(jobType, payload); err != nil {
		s.logger.Error("failed to enqueue scheduled job", zap.String("type", jobType), zap.Error(err))
	}
}

func (s *JobService) handleExpansion(ctx context.Context, job jobs.Job) error {
	window, ok := job.Payload.(ExpansionWindow)
	if !ok {
		var err error
		window, err = s.defaultWindow()
		if err != nil {
			return err
		}
	}
	result, err := s.expander.Expand(ctx, window.From, window.To)
	if err != nil {
		return err
	}
	s.logger.Info("expansion job finished",
		zap.String("job_id", job.ID),
		zap.Int("created", result.Created),
		zap.Int("skipped_holidays", result.SkippedHolidays),
		zap.Int("skipped_duplicates", result.SkippedDuplicates),
	)
	return nil
}

func (s *JobService) handleSalary(ctx context.Context, job jobs.Job) error {
	period, ok := job.Payload.(SalaryPeriod)
	if !ok {
		period = s.previousMonth()
	}
	reports, err := s.salaries.GenerateForPeriod(ctx, period.Month, period.Year)
	if err != nil {
		return err
	}
	s.logger.Info("salary job finished",
		zap.String("job_id", job.ID),
		zap.Int("month", period.Month),
		zap.Int("year", period.Year),
		zap.Int("reports", len(reports)),
	)
	return nil
}

func (s *JobService) handleCleanup(_ context.Context, _ jobs.Job) error {
	_, err := s.exports.Cleanup(0)
	return err
}

// defaultWindow spans today through the horizon in the academy timezone.
func (s *JobService) defaultWindow() (ExpansionWindow, error) {
	today, err := timezone.Today(s.cfg.Timezone, s.now())
	if err != nil {
		return ExpansionWindow{}, err
	}
	start, err := timezone.ParseDate(today)
	if err != nil {
		return ExpansionWindow{}, err
	}
	end := start.AddDate(0, 0, s.cfg.ExpansionHorizonDays)
	return ExpansionWindow{From: today, To: end.Format(timezone.DateLayout)}, nil
}

// previousMonth is the month before the current one in the academy timezone.
func (s *JobService) previousMonth() SalaryPeriod {
	now := s.now().In(s.location)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.location).AddDate(0, -1, 0)
	return SalaryPeriod{Month: int(first.Month()), Year: first.Year()}
}

type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
