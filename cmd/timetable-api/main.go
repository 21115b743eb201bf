package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/unisched/timetable-api/api/swagger"
	"github.com/unisched/timetable-api/internal/engine"
	"github.com/unisched/timetable-api/internal/handler"
	internalmiddleware "github.com/unisched/timetable-api/internal/middleware"
	"github.com/unisched/timetable-api/internal/repository"
	"github.com/unisched/timetable-api/internal/service"
	"github.com/unisched/timetable-api/pkg/cache"
	"github.com/unisched/timetable-api/pkg/config"
	"github.com/unisched/timetable-api/pkg/database"
	"github.com/unisched/timetable-api/pkg/logger"
	corsmiddleware "github.com/unisched/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/unisched/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 0.1.0
// @description Course timetabling service: exact backtracking solver with relaxed and split degradation paths
// @BasePath /api/v1
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

	var db *sqlx.DB
	if db, err = database.NewPostgres(cfg.Database); err != nil {
		logr.Warn("database unavailable, timetable persistence disabled", zap.Error(err))
		db = nil
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		if redisClient, err = cache.NewRedis(cfg.Redis); err != nil {
			logr.Warn("redis unavailable, result cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	engineCfg := engine.Config{
		StartHour:  cfg.Engine.StartHour,
		EndHour:    cfg.Engine.EndHour,
		MaxSteps:   cfg.Engine.MaxSteps,
		SplitOrder: engine.ParseSplitOrder(cfg.Engine.SplitOrder),
	}

	metricsSvc := service.NewMetricsService()
	svcOpts := service.ScheduleServiceOptions{
		ProposalTTL:  cfg.Engine.ProposalTTL,
		ResultTTL:    cfg.Cache.ResultTTL,
		SolveTimeout: cfg.Engine.SolveTimeout,
	}

	var scheduleSvc *service.ScheduleService
	if db != nil {
		scheduleSvc, err = service.NewScheduleService(
			engineCfg,
			repository.NewTimetableRepository(db),
			repository.NewTimetableSlotRepository(db),
			db,
			redisClient,
			metricsSvc,
			validator.New(),
			logr,
			svcOpts,
		)
	} else {
		scheduleSvc, err = service.NewScheduleService(engineCfg, nil, nil, nil, redisClient, metricsSvc, validator.New(), logr, svcOpts)
	}
	if err != nil {
		logr.Fatal("failed to init schedule service", zap.Error(err))
	}

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/schedule/generate", scheduleHandler.Generate)
		api.POST("/schedule/save", scheduleHandler.Save)
		api.GET("/schedule/proposals/:id/export.csv", scheduleHandler.ExportCSV)
		api.GET("/schedule/proposals/:id/export.pdf", scheduleHandler.ExportPDF)
		api.GET("/examples/sample-schedule", scheduleHandler.Sample)
		api.GET("/timetables", scheduleHandler.List)
		api.GET("/timetables/:id/slots", scheduleHandler.Slots)
		api.DELETE("/timetables/:id", scheduleHandler.Delete)
	}

	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
