package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sellerLab/app/echo-server/metrics"
	"sellerLab/app/echo-server/router"
	"sellerLab/business/auth"
	"sellerLab/business/experiment"
	"sellerLab/business/report"
	"sellerLab/internal/middleware"
	psqlRepo "sellerLab/internal/repository/postgres"
	redisRepo "sellerLab/internal/repository/redis"
	"sellerLab/internal/rest"
	"sellerLab/pkg/config"
	"sellerLab/pkg/database"
	redisdb "sellerLab/pkg/database/redis"
	"sellerLab/pkg/logger"
	pkgmetrics "sellerLab/pkg/metrics"
	"sellerLab/pkg/utils"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting SellerLab", "version", cfg.App.Version)

	utils.InitJWT(cfg.JWT.SecretKey)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	redisClient, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", "error", err)
	}

	logger.Info("Redis connected successfully")

	// Init metrics
	metrics.Init()
	pkgmetrics.Init()

	// Init validate
	validate := validator.New()

	// Init repo
	experimentRepo := psqlRepo.NewExperimentRepository(db)
	conversionRepo := psqlRepo.NewConversionRepository(db)
	credentialRepo := psqlRepo.NewCredentialRepository(db)
	tokenRepo := redisRepo.NewTokenRepository(redisClient)

	// Init service
	experimentService := experiment.NewExperimentService(experimentRepo, conversionRepo)
	shareService := report.NewShareService(experimentService, cfg.App.ReportShareKey)
	authService := auth.NewAuthService(credentialRepo, tokenRepo, validate)

	// Init handler
	experimentHandler := rest.NewExperimentHandler(experimentService)
	reportHandler := rest.NewReportHandler(shareService)
	authHandler := rest.NewAuthHandler(authService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.TraceMiddleware())
	e.Use(metrics.Middleware())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Auth middleware
	authRequired := middleware.AuthMiddlewareWithRedis(authService)

	// Setup routes
	api := e.Group("/api/v1")
	router.SetAuthRoutes(api, authHandler, authRequired)
	router.SetCredentialAdminRoutes(api, authHandler)
	router.SetExperimentRoutes(api, experimentHandler, reportHandler, authRequired)
	router.SetReportRoutes(api, reportHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if err := redisdb.CloseRedisClient(redisClient); err != nil {
		logger.Error("Redis close error", "error", err)
	}

	logger.Info("Server stopped")
}
