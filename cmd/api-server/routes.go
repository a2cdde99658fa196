package main

import (
	"context"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academy-scheduler/api/swagger"
	"github.com/noah-isme/academy-scheduler/internal/handler"
	"github.com/noah-isme/academy-scheduler/internal/middleware"
	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/internal/repository"
	"github.com/noah-isme/academy-scheduler/internal/service"
	"github.com/noah-isme/academy-scheduler/pkg/config"
	"github.com/noah-isme/academy-scheduler/pkg/jobs"
	"github.com/noah-isme/academy-scheduler/pkg/logger"
	corsmiddleware "github.com/noah-isme/academy-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academy-scheduler/pkg/middleware/requestid"
	"github.com/noah-isme/academy-scheduler/pkg/recordstore"
	"github.com/noah-isme/academy-scheduler/pkg/storage"
)

type application struct {
	cfg    *config.Config
	logger *zap.Logger

	auth      *service.AuthService
	metrics   *service.MetricsService
	directory *service.DirectoryService
	weekly    *service.WeeklyClassService
	holidays  *service.HolidayService
	daily     *service.DailyClassService
	expansion *service.ExpansionService
	advance   *service.AdvanceClassService
	salary    *service.SalaryService
	exports   *service.ExportService
	reports   *service.ReportService
	dashboard *service.DashboardService
	feed      *service.ClassFeedService

	queue *jobs.Queue
	jobs  *service.JobService
}

func newApplication(cfg *config.Config, store recordstore.Store, cacheRepo service.CacheRepository, logr *zap.Logger) (*application, error) {
	zone := cfg.Academy.Timezone
	duration := cfg.Academy.DefaultClassMinutes

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logr, cacheRepo != nil)

	dailyRepo := repository.NewDailyClassRepository(store)
	directory := service.NewDirectoryService(repository.NewTeacherRepository(store), repository.NewStudentRepository(store), nil, logr)
	weekly := service.NewWeeklyClassService(repository.NewWeeklyClassRepository(store), directory, nil, logr, zone)
	holidays := service.NewHolidayService(repository.NewHolidayRepository(store), nil, logr)
	daily := service.NewDailyClassService(dailyRepo, directory, metrics, nil, logr, service.DailyClassConfig{
		DefaultTimezone: zone,
		DefaultDuration: duration,
		Policy:          service.PolicyFor(cfg.Academy.StrictTransitions),
	})
	expansion := service.NewExpansionService(weekly, holidays, dailyRepo, daily, metrics, logr, duration)
	advance := service.NewAdvanceClassService(repository.NewAdvanceClassRepository(store), weekly, daily, nil, logr, duration)
	salary := service.NewSalaryService(repository.NewSalaryReportRepository(store), directory, dailyRepo, metrics, logr)

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exports := service.NewExportService(salary, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, nil, logr)

	app := &application{
		cfg:       cfg,
		logger:    logr,
		auth:      service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}),
		metrics:   metrics,
		directory: directory,
		weekly:    weekly,
		holidays:  holidays,
		daily:     daily,
		expansion: expansion,
		advance:   advance,
		salary:    salary,
		exports:   exports,
		reports:   service.NewReportService(daily, dailyRepo, directory, salary, cacheSvc, logr, zone),
		dashboard: service.NewDashboardService(service.DashboardServiceParams{
			Directory:       directory,
			Templates:       weekly,
			Classes:         daily,
			Holidays:        holidays,
			Advances:        advance,
			Logger:          logr,
			DefaultTimezone: zone,
		}),
		feed: service.NewClassFeedService(dailyRepo, cacheSvc, metrics, logr),
	}

	if cfg.Jobs.Enabled {
		app.queue = jobs.NewQueue("academy", jobs.QueueConfig{
			Workers:    cfg.Jobs.Workers,
			MaxRetries: cfg.Jobs.Retries,
			RetryDelay: cfg.Jobs.RetryDelay,
			Logger:     logr,
		})
		app.jobs = service.NewJobService(app.queue, expansion, salary, exports, service.JobScheduleConfig{
			Timezone:             zone,
			ExpansionCron:        cfg.Jobs.ExpansionCron,
			ExpansionHorizonDays: cfg.Jobs.ExpansionHorizonDays,
			SalaryCron:           cfg.Jobs.SalaryCron,
			CleanupInterval:      cfg.Reports.CleanupInterval,
		}, logr)
	}
	return app, nil
}

func (a *application) start(ctx context.Context) error {
	if err := a.feed.Start(ctx); err != nil {
		a.logger.Warn("live class feed unavailable", zap.Error(err))
	}
	if a.queue != nil {
		a.queue.Start(ctx)
		if err := a.jobs.Start(); err != nil {
			return err
		}
	}
	return nil
}

func (a *application) stop() {
	if a.jobs != nil {
		a.jobs.Stop()
	}
	if a.queue != nil {
		a.queue.Stop()
	}
	a.feed.Stop()
}

// enqueuer returns nil when jobs are disabled so handlers run work inline.
func (a *application) enqueuer() interface {
	Enqueue(jobType string, payload interface{}) (string, error)
} {
	if a.jobs == nil {
		return nil
	}
	return a.jobs
}

func (a *application) routes(checks map[string]handler.ReadinessCheck) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.logger))
	r.Use(corsmiddleware.New(a.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.metrics))

	ops := handler.NewMetricsHandler(a.metrics, checks)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)
	if a.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	jobs := a.enqueuer()
	directoryH := handler.NewDirectoryHandler(a.directory)
	weeklyH := handler.NewWeeklyClassHandler(a.weekly)
	holidayH := handler.NewHolidayHandler(a.holidays)
	dailyH := handler.NewDailyClassHandler(a.daily, a.expansion, a.feed, jobs)
	advanceH := handler.NewAdvanceClassHandler(a.advance)
	salaryH := handler.NewSalaryHandler(a.salary, a.exports, jobs)
	reportH := handler.NewReportHandler(a.reports)
	dashboardH := handler.NewDashboardHandler(a.dashboard)

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	api := r.Group(a.cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	// Signed links and EventSource clients cannot send an Authorization header.
	api.GET("/export/:token", salaryH.Download)
	api.GET("/daily-classes/stream", middleware.StreamJWT(a.auth), staff, dailyH.Stream)

	secured := api.Group("")
	secured.Use(middleware.JWT(a.auth))

	secured.GET("/teachers", admin, directoryH.ListTeachers)
	secured.POST("/teachers", admin, directoryH.CreateTeacher)
	secured.GET("/teachers/:id", middleware.RBAC(string(models.RoleAdmin), middleware.SelfTeacher), directoryH.GetTeacher)
	secured.GET("/students", admin, directoryH.ListStudents)
	secured.POST("/students", admin, directoryH.CreateStudent)
	secured.GET("/students/:id", middleware.RBAC(string(models.RoleAdmin), middleware.SelfStudent), directoryH.GetStudent)

	secured.GET("/weekly-classes", weeklyH.List)
	secured.POST("/weekly-classes", admin, weeklyH.Create)
	secured.GET("/weekly-classes/:id", weeklyH.Get)
	secured.PUT("/weekly-classes/:id", admin, weeklyH.Update)
	secured.DELETE("/weekly-classes/:id", admin, weeklyH.Delete)

	secured.GET("/holidays", holidayH.List)
	secured.POST("/holidays", admin, holidayH.Create)
	secured.DELETE("/holidays/:id", admin, holidayH.Delete)

	secured.GET("/daily-classes", dailyH.List)
	secured.POST("/daily-classes", admin, dailyH.Create)
	secured.POST("/daily-classes/expand", admin, dailyH.Expand)
	secured.GET("/daily-classes/:id", dailyH.Get)
	secured.PATCH("/daily-classes/:id", staff, dailyH.Update)
	secured.DELETE("/daily-classes/:id", admin, dailyH.Delete)
	secured.POST("/daily-classes/:id/status", staff, dailyH.Transition)
	secured.POST("/daily-classes/:id/feedback", dailyH.Feedback)

	secured.GET("/advance-classes", admin, advanceH.List)
	secured.POST("/advance-classes", admin, advanceH.Create)
	secured.POST("/advance-classes/:id/complete", admin, advanceH.Complete)
	secured.POST("/advance-classes/:id/cancel", admin, advanceH.Cancel)

	secured.GET("/salary-reports", admin, salaryH.List)
	secured.POST("/salary-reports/generate", admin, salaryH.Generate)
	secured.POST("/salary-reports/export", admin, salaryH.Export)
	secured.GET("/salary-reports/:id", admin, salaryH.Get)

	secured.GET("/reports/daily", admin, reportH.Daily)
	secured.GET("/reports/students/:id/attendance", middleware.RBAC(string(models.RoleAdmin), middleware.SelfStudent), reportH.StudentAttendance)
	secured.GET("/reports/teachers/:id/summary", middleware.RBAC(string(models.RoleAdmin), middleware.SelfTeacher), reportH.TeacherSummary)

	secured.GET("/dashboard", admin, dashboardH.Overview)

	return r
}
