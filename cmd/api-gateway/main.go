package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/exam-engine-api/api/swagger"
	"github.com/noah-isme/exam-engine-api/internal/handler"
	"github.com/noah-isme/exam-engine-api/internal/middleware"
	"github.com/noah-isme/exam-engine-api/internal/repository"
	"github.com/noah-isme/exam-engine-api/internal/service"
	"github.com/noah-isme/exam-engine-api/pkg/cache"
	"github.com/noah-isme/exam-engine-api/pkg/config"
	"github.com/noah-isme/exam-engine-api/pkg/database"
	"github.com/noah-isme/exam-engine-api/pkg/export"
	"github.com/noah-isme/exam-engine-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/exam-engine-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/exam-engine-api/pkg/middleware/requestid"
)

// @title Exam Engine API
// @version 0.1.0
// @description Examination lifecycle, grading and analytics engine
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, cfg.Analytics.CacheEnabled)

	examRepo := repository.NewExamRepository(db)
	examSubjectRepo := repository.NewExamSubjectRepository(db)
	markRepo := repository.NewMarkRepository(db)
	scaleRepo := repository.NewGradingScaleRepository(db)
	resultRepo := repository.NewResultRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)

	examSvc := service.NewExamService(examRepo, examSubjectRepo, markRepo, resultRepo, validate, logr)
	markSvc := service.NewMarkService(markRepo, examRepo, examSubjectRepo, studentRepo, cacheSvc, validate, logr)
	gradingSvc := service.NewGradingService(scaleRepo, validate, logr)
	publishSvc := service.NewPublishService(examRepo, examSubjectRepo, markRepo, scaleRepo, resultRepo, cacheSvc, metricsSvc, logr)
	analyticsSvc := service.NewAnalyticsService(examRepo, examSubjectRepo, markRepo, resultRepo, subjectRepo, cacheSvc, metricsSvc, cfg.Analytics.CacheTTL, logr)
	reportSvc := service.NewReportService(examRepo, resultRepo, studentRepo, subjectRepo, export.NewCSVExporter(), export.NewPDFExporter(cfg.Exports.PDFPageSize), logr)

	examHandler := handler.NewExamHandler(examSvc)
	markHandler := handler.NewMarkHandler(markSvc)
	gradingHandler := handler.NewGradingHandler(gradingSvc)
	resultHandler := handler.NewResultHandler(publishSvc, cfg.Publish.LockTimeout)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	reportHandler := handler.NewReportHandler(reportSvc, cfg.Exports.Enabled, cfg.Exports.DefaultFmt)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.Actor(cfg.JWT.Secret))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/snapshot", metricsHandler.Snapshot)

	scoped := api.Group("")
	scoped.Use(middleware.TenantScope())

	scoped.POST("/exams", examHandler.Create)
	scoped.GET("/exams", examHandler.List)
	scoped.GET("/exams/:id", examHandler.Get)
	scoped.PATCH("/exams/:id/status", examHandler.UpdateStatus)
	scoped.PUT("/exam-subjects/:subjectId", examHandler.UpdateSubject)

	scoped.POST("/exam-subjects/:subjectId/marks", markHandler.Enter)
	scoped.GET("/exam-subjects/:subjectId/marks", markHandler.List)
	scoped.GET("/exam-subjects/:subjectId/marks/sheet", markHandler.Sheet)

	scoped.POST("/grading-scales", gradingHandler.Create)
	scoped.GET("/grading-scales", gradingHandler.List)
	scoped.GET("/grading-scales/:id", gradingHandler.Get)
	scoped.DELETE("/grading-scales/:id", gradingHandler.Delete)
	scoped.GET("/grading-scales/:id/resolve", gradingHandler.Resolve)

	scoped.POST("/exams/:id/publish", resultHandler.Publish)
	scoped.GET("/exams/:id/results", resultHandler.List)
	scoped.GET("/exams/:id/results/:studentId", resultHandler.Student)

	scoped.GET("/exams/:id/analytics", analyticsHandler.Exam)
	scoped.GET("/exams/:id/analytics/subjects/:subjectId", analyticsHandler.Subject)

	scoped.GET("/exams/:id/report-cards/:studentId", reportHandler.Card)
	scoped.GET("/exams/:id/report-cards/:studentId/export", reportHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
