package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/redditharbor/harbor-api/api/swagger"
	"github.com/redditharbor/harbor-api/internal/collector"
	"github.com/redditharbor/harbor-api/internal/handler"
	"github.com/redditharbor/harbor-api/internal/middleware"
	"github.com/redditharbor/harbor-api/internal/repository"
	"github.com/redditharbor/harbor-api/internal/service"
	"github.com/redditharbor/harbor-api/pkg/cache"
	"github.com/redditharbor/harbor-api/pkg/config"
	"github.com/redditharbor/harbor-api/pkg/database"
	"github.com/redditharbor/harbor-api/pkg/jobs"
	"github.com/redditharbor/harbor-api/pkg/logger"
	corsmiddleware "github.com/redditharbor/harbor-api/pkg/middleware/cors"
	reqidmiddleware "github.com/redditharbor/harbor-api/pkg/middleware/requestid"
)

// @title RedditHarbor API
// @version 1.0.0
// @description Collection, query and export API for Reddit data harvesting jobs
// @BasePath /
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Redis is an accelerator, not a dependency. Stats fall back to
		// live aggregation when it is down.
		logr.Sugar().Warnw("redis unavailable, statistics cache disabled", "error", err)
		redisClient = nil
	}

	jobRepo := repository.NewJobRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, cfg.Stats.CacheEnabled && redisClient != nil)
	validate := validator.New()

	engine := collector.NewRedditEngine(cfg.Collector, logr)

	querySvc := service.NewQueryService(submissionRepo, jobRepo, cacheSvc, logr, cfg.Stats.TopTargets)
	exportSvc := service.NewExportService(jobRepo, submissionRepo, querySvc, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)

	// The job service and the worker are wired through the queue: the
	// service enqueues, the worker drives transitions back through the
	// service. The queue is started before recovery so replayed jobs have
	// somewhere to go.
	var jobSvc *service.JobService
	var worker *service.CollectionWorker
	queue := jobs.NewQueue("collect", func(ctx context.Context, job jobs.Job) error {
		return worker.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Collector.Workers,
		BufferSize: cfg.Collector.QueueSize,
		Logger:     logr,
	})
	jobSvc = service.NewJobService(jobRepo, userRepo, queue, cacheSvc, metricsSvc, validate, logr, cfg.Collector.MaxPostLimit)
	worker = service.NewCollectionWorker(jobSvc, jobRepo, submissionRepo, engine, metricsSvc, logr, cfg.Collector.IngestBatch)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(rootCtx)
	defer queue.Stop()
	jobSvc.RecoverPendingJobs(rootCtx)

	collectHandler := handler.NewCollectHandler(jobSvc, querySvc)
	dataHandler := handler.NewDataHandler(querySvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	statsHandler := handler.NewStatsHandler(querySvc, exportSvc)
	authHandler := handler.NewAuthHandler(userSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "RedditHarbor API is running"})
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/collect", collectHandler.Collect)
		api.GET("/status/:job_id", collectHandler.Status)
		api.GET("/jobs", collectHandler.List)
		api.DELETE("/jobs/:job_id", collectHandler.Cancel)
		api.GET("/data", dataHandler.List)
		api.GET("/stats", statsHandler.Stats)
		api.GET("/stats/summary.pdf", statsHandler.SummaryPDF)
		api.GET("/export/:job_id", exportHandler.Export)
		api.POST("/auth/register", authHandler.Register)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown failed", "error", err)
	}
}
