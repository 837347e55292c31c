package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lingoforge/authoring-service/internal/cache"
	"github.com/lingoforge/authoring-service/internal/clients"
	"github.com/lingoforge/authoring-service/internal/config"
	"github.com/lingoforge/authoring-service/internal/handlers"
	"github.com/lingoforge/authoring-service/internal/repositories/postgres"
	"github.com/lingoforge/authoring-service/internal/services"
	"github.com/lingoforge/authoring-service/internal/utils"
	"github.com/lingoforge/authoring-service/internal/validator"
	"github.com/lingoforge/authoring-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	tokenSource := clients.TokenSource(func() string { return cfg.ServiceToken })
	questionAPI := clients.NewQuestionAPIClient(cfg.QuestionAPIURL, tokenSource)
	mediaClient := clients.NewMediaServiceClient(cfg.MediaServiceURL, tokenSource, cfg.UploadTimeout)

	cacheService := cache.NewRedisCache(redisClient, slogger)
	auditRepo := postgres.NewSubmissionAuditPostgreSQL(db)
	v := validator.New()

	draftService := services.NewDraftService(questionAPI, slogger)
	submitService := services.NewSubmitService(
		draftService, questionAPI, mediaClient, mediaClient, auditRepo, publisher, v, slogger)
	mediaResolver := services.NewMediaResolver(mediaClient, cacheService, cfg.SignedURLCacheTTL, slogger)
	importExport := services.NewImportExportService(questionAPI, publisher, v, slogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(
		draftService, submitService, mediaResolver, importExport, auditRepo, v, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting authoring service", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down authoring service")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}
