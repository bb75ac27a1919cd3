package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tutor-allocation-api/api/swagger"
	"github.com/noah-isme/tutor-allocation-api/internal/handler"
	"github.com/noah-isme/tutor-allocation-api/internal/repository"
	"github.com/noah-isme/tutor-allocation-api/internal/service"
	"github.com/noah-isme/tutor-allocation-api/pkg/cache"
	"github.com/noah-isme/tutor-allocation-api/pkg/config"
	"github.com/noah-isme/tutor-allocation-api/pkg/database"
	"github.com/noah-isme/tutor-allocation-api/pkg/jobs"
	"github.com/noah-isme/tutor-allocation-api/pkg/logger"
)

// @title Tutor Allocation API
// @version 1.0.0
// @description Matches waiting students to tutors and books conflict-free classes.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const (
	connectTimeout  = 5 * time.Second
	shutdownTimeout = 15 * time.Second
)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancelConnect := context.WithTimeout(ctx, connectTimeout)
	defer cancelConnect()

	db, err := database.NewPostgres(connectCtx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	checks := map[string]handler.Pinger{"postgres": handler.PingFunc(db.PingContext)}
	cacheRepo := repository.NewCacheRepository(nil, logr)
	cacheReady := false
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(connectCtx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, summary cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
			checks["redis"] = cacheRepo
			cacheReady = true
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cacheReady)

	studentRepo := repository.NewStudentRepository(db)
	tutorRepo := repository.NewTutorRepository(db)
	commitmentRepo := repository.NewClassCommitmentRepository(db)

	scorer := service.NewCompatibilityScorer(cfg.Allocation.Weights)
	engine := service.NewAllocationEngine(scorer, service.AllocationEngineConfig{
		Capacity:        cfg.Allocation.TutorCapacity,
		MaxCandidates:   cfg.Allocation.MaxCandidates,
		ParallelScoring: cfg.Allocation.ParallelScoring,
	})
	writeLock := &sync.Mutex{}
	allocationSvc := service.NewAllocationService(studentRepo, tutorRepo, commitmentRepo, db, engine, scorer, cacheSvc, metricsSvc, validate, logr, service.AllocationServiceConfig{
		PlanTTL:     cfg.Allocation.PlanTTL,
		UrgentAfter: cfg.Allocation.UrgentAfter,
		CacheTTL:    cfg.Cache.TTL,
		WriteLock:   writeLock,
	})
	schedulingSvc := service.NewSchedulingService(tutorRepo, studentRepo, commitmentRepo, db, service.NewConflictDetector(), cacheSvc, metricsSvc, validate, logr, service.SchedulingServiceConfig{
		Capacity:  engine.Capacity(),
		WriteLock: writeLock,
	})
	exportSvc := service.NewExportService(allocationSvc, logr, nil, nil)
	tokenSvc := service.NewTokenService(cfg.JWT)

	if cacheReady {
		warmer := service.NewSummaryWarmer(allocationSvc, jobs.QueueConfig{Workers: 1, BufferSize: 16, MaxRetries: 2, Logger: logr})
		warmer.Start(ctx)
		defer warmer.Stop()
		allocationSvc.SetSummaryWarmer(warmer)
		schedulingSvc.SetSummaryWarmer(warmer)
	}

	router := newRouter(cfg, logr, routerDeps{
		tokens:     tokenSvc,
		metrics:    metricsSvc,
		allocation: handler.NewAllocationHandler(allocationSvc, exportSvc),
		scheduling: handler.NewSchedulingHandler(schedulingSvc),
		health:     handler.NewMetricsHandler(metricsSvc, checks),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logr.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
		_ = server.Close()
	}
	logr.Info("server stopped")
}
