package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-allocation-api/internal/handler"
	"github.com/noah-isme/tutor-allocation-api/internal/middleware"
	"github.com/noah-isme/tutor-allocation-api/internal/models"
	"github.com/noah-isme/tutor-allocation-api/internal/service"
	"github.com/noah-isme/tutor-allocation-api/pkg/config"
	"github.com/noah-isme/tutor-allocation-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tutor-allocation-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tutor-allocation-api/pkg/middleware/requestid"
)

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

type routerDeps struct {
	tokens     tokenValidator
	metrics    *service.MetricsService
	allocation *handler.AllocationHandler
	scheduling *handler.SchedulingHandler
	health     *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics, "/metrics"))

	r.GET("/health", deps.health.Health)
	r.GET("/ready", deps.health.Ready)
	r.GET("/metrics", deps.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	planners := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator)
	viewers := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator, models.RoleTutor)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(deps.tokens), middleware.WithResponseMeta())

	allocations := api.Group("/allocations")
	allocations.POST("/plan", planners, deps.allocation.Plan)
	allocations.GET("/plan/:id", planners, deps.allocation.GetPlan)
	allocations.POST("/commit", planners, deps.allocation.Commit)
	allocations.GET("/summary", planners, deps.allocation.Summary)
	allocations.GET("/summary/export", planners, deps.allocation.ExportSummary)

	api.GET("/students/:id/matches", viewers, deps.allocation.Matches)

	classes := api.Group("/classes")
	classes.POST("/conflicts", viewers, deps.scheduling.CheckConflict)
	classes.POST("", planners, deps.scheduling.Create)
	classes.PUT("/:id/schedule", planners, deps.scheduling.Reschedule)

	return r
}
