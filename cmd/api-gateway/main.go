package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campus-connect/campus-connect-api/api/swagger"
	"github.com/campus-connect/campus-connect-api/internal/handler"
	"github.com/campus-connect/campus-connect-api/internal/middleware"
	"github.com/campus-connect/campus-connect-api/internal/models"
	"github.com/campus-connect/campus-connect-api/internal/repository"
	"github.com/campus-connect/campus-connect-api/internal/service"
	"github.com/campus-connect/campus-connect-api/pkg/cache"
	"github.com/campus-connect/campus-connect-api/pkg/config"
	"github.com/campus-connect/campus-connect-api/pkg/database"
	"github.com/campus-connect/campus-connect-api/pkg/logger"
	corsmiddleware "github.com/campus-connect/campus-connect-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campus-connect/campus-connect-api/pkg/middleware/requestid"
)

// @title Campus Connect API
// @version 1.0.0
// @description Campus community backend: shared books, lost items and problem reports
// @BasePath /api
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, list cache disabled", "error", err)
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.ListTTL, logr, cfg.Cache.Enabled && cacheRepo != nil)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	bookRepo := repository.NewBookRepository(db)
	lostItemRepo := repository.NewLostItemRepository(db)
	problemRepo := repository.NewProblemRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	bookSvc := service.NewBookService(bookRepo, userRepo, cacheSvc, validate, logr)
	lostItemSvc := service.NewLostItemService(lostItemRepo, validate, logr)
	problemSvc := service.NewProblemService(problemRepo, cacheSvc, validate, logr)
	exportSvc := service.NewExportService(problemSvc, nil, nil, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	bookHandler := handler.NewBookHandler(bookSvc)
	lostItemHandler := handler.NewLostItemHandler(lostItemSvc)
	problemHandler := handler.NewProblemHandler(problemSvc, exportSvc)
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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.PUT("/reset-password/:token", authHandler.ResetPassword)
		auth.POST("/refresh", authHandler.Refresh)

		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		auth.PUT("/profile", middleware.JWT(authSvc), authHandler.UpdateProfile)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	}

	users := api.Group("/users", middleware.JWT(authSvc))
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin), userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.PUT("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Delete)
	}

	books := api.Group("/books")
	{
		books.GET("", bookHandler.List)
		books.GET("/:id", middleware.OptionalJWT(authSvc), bookHandler.Get)

		books.POST("", middleware.JWT(authSvc), bookHandler.Create)
		books.PUT("/:id", middleware.JWT(authSvc), bookHandler.Update)
		books.DELETE("/:id", middleware.JWT(authSvc), bookHandler.Delete)
		books.POST("/:id/like", middleware.JWT(authSvc), bookHandler.ToggleLike)
		books.POST("/:id/request", middleware.JWT(authSvc), bookHandler.Request)
		books.PUT("/:id/request/:requestId", middleware.JWT(authSvc), bookHandler.UpdateRequestStatus)
		books.PUT("/:id/sold", middleware.JWT(authSvc), bookHandler.MarkSold)
	}

	lostItems := api.Group("/lost-items")
	{
		lostItems.GET("", lostItemHandler.List)
		lostItems.GET("/:id", lostItemHandler.Get)

		lostItems.POST("", middleware.JWT(authSvc), lostItemHandler.Create)
		lostItems.PUT("/:id", middleware.JWT(authSvc), lostItemHandler.Update)
		lostItems.PUT("/:id/found", middleware.JWT(authSvc), lostItemHandler.MarkFound)
		lostItems.POST("/:id/claim", middleware.JWT(authSvc), lostItemHandler.Claim)
		lostItems.DELETE("/:id", middleware.JWT(authSvc), lostItemHandler.Delete)
	}

	problems := api.Group("/problems")
	{
		problems.GET("", problemHandler.List)
		problems.GET("/:id", middleware.OptionalJWT(authSvc), problemHandler.Get)

		problems.POST("", middleware.JWT(authSvc), problemHandler.Create)
		problems.PUT("/:id", middleware.JWT(authSvc), problemHandler.Update)
		problems.DELETE("/:id", middleware.JWT(authSvc), problemHandler.Delete)
		problems.POST("/:id/vote", middleware.JWT(authSvc), problemHandler.Vote)
		problems.POST("/:id/comment", middleware.JWT(authSvc), problemHandler.Comment)
		problems.PUT("/:id/status",
			middleware.JWT(authSvc),
			middleware.RequireRoles(models.RoleAdmin, models.RoleStaff),
			middleware.Audit(userRepo, "PROBLEM_STATUS", "problems"),
			problemHandler.UpdateStatus)

		if cfg.Exports.Enabled {
			problems.GET("/export",
				middleware.JWT(authSvc),
				middleware.RequireRoles(models.RoleAdmin, models.RoleStaff),
				middleware.Audit(userRepo, "PROBLEM_EXPORT", "problems"),
				problemHandler.Export)
		}
	}

	api.GET("/metrics/status",
		middleware.JWT(authSvc),
		middleware.RequireRoles(models.RoleAdmin),
		metricsHandler.Status)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
