package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-scheduler/internal/handler"
	"github.com/noah-isme/academy-scheduler/internal/repository"
	"github.com/noah-isme/academy-scheduler/internal/service"
	"github.com/noah-isme/academy-scheduler/pkg/cache"
	"github.com/noah-isme/academy-scheduler/pkg/config"
	"github.com/noah-isme/academy-scheduler/pkg/database"
	"github.com/noah-isme/academy-scheduler/pkg/logger"
	"github.com/noah-isme/academy-scheduler/pkg/recordstore"
)

// @title Academy Scheduler API
// @version 1.0.0
// @description Recurring class templates, daily class lifecycle, make-up bookings, salary and attendance reporting.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, checks, closeStore, err := openStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open record store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer closeStore()

	var cacheRepo service.CacheRepository
	client, err := cache.NewRedis(ctx, cfg.Redis)
	switch {
	case err != nil:
		logr.Warn("redis unavailable, report cache disabled", zap.Error(err))
	case client != nil:
		repo := repository.NewCacheRepository(client, logr)
		defer repo.Close() //nolint:errcheck
		cacheRepo = repo
		checks["cache"] = repo.Ping
	}

	app, err := newApplication(cfg, store, cacheRepo, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	if err := app.start(ctx); err != nil {
		logr.Fatal("failed to start background work", zap.Error(err))
	}
	defer app.stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.routes(checks),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStore binds the record store selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (recordstore.Store, map[string]handler.ReadinessCheck, func(), error) {
	checks := map[string]handler.ReadinessCheck{}
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		store := recordstore.NewPostgresStore(db, recordstore.PostgresConfig{
			DSN:           database.DSN(cfg.Database),
			NotifyChannel: cfg.Store.NotifyChannel,
			Logger:        logr,
		})
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		checks["store"] = db.PingContext
		return store, checks, func() {
			_ = store.Close()
			_ = db.Close()
		}, nil
	case config.StoreDriverMemory, "":
		logr.Warn("using in-memory record store; data is lost on restart")
		store := recordstore.NewMemoryStore()
		return store, checks, func() { _ = store.Close() }, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
