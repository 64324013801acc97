package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/azinedine/school-manager-api/api/swagger"
	"github.com/azinedine/school-manager-api/internal/handler"
	"github.com/azinedine/school-manager-api/internal/middleware"
	"github.com/azinedine/school-manager-api/internal/repository"
	"github.com/azinedine/school-manager-api/internal/service"
	"github.com/azinedine/school-manager-api/pkg/cache"
	"github.com/azinedine/school-manager-api/pkg/config"
	"github.com/azinedine/school-manager-api/pkg/database"
	"github.com/azinedine/school-manager-api/pkg/logger"
	corsmiddleware "github.com/azinedine/school-manager-api/pkg/middleware/cors"
	reqidmiddleware "github.com/azinedine/school-manager-api/pkg/middleware/requestid"
)

// @title School Manager API
// @version 1.0.0
// @description Weekly review tracking, rosters and term gradebook for class teachers
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var cacheRepo service.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, summary caching disabled", zap.Error(err))
	} else {
		repo := repository.NewCacheRepository(redisClient, logr)
		defer repo.Close() //nolint:errcheck
		cacheRepo = repo
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Summary.CacheTTL, logr, cfg.Summary.CacheEnabled)

	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	trackingRepo := repository.NewTrackingRepository(db)

	classSvc := service.NewClassService(classRepo, studentRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, classRepo, validate, logr)
	reviewSvc := service.NewReviewService(reviewRepo, classRepo, studentRepo, cacheSvc, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, studentRepo, classRepo, validate, logr)
	trackingSvc := service.NewTrackingService(trackingRepo, studentRepo, classRepo, validate, logr)
	exportSvc := service.NewExportService(reviewRepo, classRepo, studentRepo, logr)

	classHandler := handler.NewClassHandler(classSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	trackingHandler := handler.NewTrackingHandler(trackingSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		api.GET("/classes", classHandler.List)
		api.POST("/classes", classHandler.Create)
		api.GET("/classes/:classId", classHandler.Get)
		api.PATCH("/classes/:classId", classHandler.Update)
		api.DELETE("/classes/:classId", classHandler.Delete)

		api.POST("/classes/:classId/students", studentHandler.Add)
		api.POST("/classes/:classId/students/batch", studentHandler.BatchImport)
		api.POST("/classes/:classId/students/reorder", studentHandler.Reorder)
		api.GET("/classes/:classId/roster", studentHandler.Roster)
		api.PATCH("/students/:id", studentHandler.Update)
		api.POST("/students/:id/move", studentHandler.Move)
		api.DELETE("/students/:id", studentHandler.Delete)

		api.GET("/classes/:classId/weekly-reviews/summary", reviewHandler.Summary)
		api.GET("/classes/:classId/weekly-reviews", reviewHandler.List)
		api.POST("/classes/:classId/weekly-reviews/batch", reviewHandler.Batch)
		api.GET("/classes/:classId/weekly-reviews/export", exportHandler.WeeklySheet)
		api.PATCH("/weekly-reviews/:id", reviewHandler.Patch)
		api.POST("/weekly-reviews/:id/resolve", reviewHandler.Resolve)
		api.DELETE("/weekly-reviews/:id", reviewHandler.Delete)

		api.GET("/students/:id/grades", gradeHandler.Get)
		api.PUT("/students/:id/grades", gradeHandler.Upsert)
		api.POST("/classes/:classId/grades/bulk", gradeHandler.Bulk)

		api.GET("/students/:id/tracking", trackingHandler.Get)
		api.PUT("/students/:id/tracking", trackingHandler.Upsert)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
