package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/belegpilot/extraction-service/docs"
	"github.com/belegpilot/extraction-service/internal/budget"
	"github.com/belegpilot/extraction-service/internal/config"
	"github.com/belegpilot/extraction-service/internal/currency"
	"github.com/belegpilot/extraction-service/internal/database"
	"github.com/belegpilot/extraction-service/internal/extractor"
	"github.com/belegpilot/extraction-service/internal/handler"
	"github.com/belegpilot/extraction-service/internal/ocrclient"
	"github.com/belegpilot/extraction-service/internal/openrouter"
	"github.com/belegpilot/extraction-service/internal/pipeline"
	"github.com/belegpilot/extraction-service/internal/preprocess"
	"github.com/belegpilot/extraction-service/internal/ratelimit"
	"github.com/belegpilot/extraction-service/internal/repository"
	"github.com/belegpilot/extraction-service/internal/server"
	"github.com/belegpilot/extraction-service/internal/service"
	"github.com/belegpilot/extraction-service/internal/storage"
	"github.com/belegpilot/extraction-service/internal/validator"
)

// @title BelegPilot Extraction Service API
// @version 1.0
// @description Receipt and invoice data extraction with a vision model and OCR fallback
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	extractionRepo := repository.NewPostgresExtractionRepository(db.GetPool())
	costRepo := repository.NewPostgresCostRepository(db.GetPool(), cfg.DailyBudgetUSD, cfg.MonthlyBudgetUSD)
	keyRepo := repository.NewPostgresAPIKeyRepository(db.GetPool())

	limiter, err := ratelimit.NewRedisLimiter(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		// rate limiting is protective, not load bearing
		logger.Warn("redis unavailable, rate limiting disabled", "error", err)
		limiter = nil
	}

	openRouterClient := openrouter.NewClient(&openrouter.Config{
		APIKey:  cfg.OpenRouterAPIKey,
		Timeout: cfg.OpenRouterTimeout,
		Logger:  logger,
	})

	ocrClient := ocrclient.NewClient(&ocrclient.Config{
		BaseURL: cfg.OCRServiceURL,
		Timeout: cfg.OCRTimeout,
	})

	gate := budget.NewGate(costRepo, cfg, logger)
	vlmExtractor := extractor.NewVLMExtractor(openRouterClient, gate, logger)
	ocrExtractor := extractor.NewOCRExtractor(ocrClient, cfg.OCRLanguages, logger)
	preprocessor := preprocess.NewPreprocessor(logger)
	confidenceValidator := validator.NewValidator(logger)

	p := pipeline.NewPipeline(preprocessor, gate, vlmExtractor, ocrExtractor,
		confidenceValidator, extractionRepo, logger)

	var archiver *storage.S3Archiver
	if cfg.S3Endpoint != "" {
		archiver, err = storage.NewS3Archiver(&storage.Config{
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			AccessKeySecret: cfg.S3AccessKeySecret,
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
		})
		if err != nil {
			logger.Warn("image archiving disabled", "error", err)
		}
	}

	extractionService := service.NewExtractionService(p, extractionRepo, costRepo,
		archiver, currency.NewClient(), cfg.MaxWorkers, logger)

	components := map[string]handler.Pinger{
		"postgres": handler.PingFunc(db.GetPool().Ping),
		"ocr":      handler.PingFunc(ocrClient.HealthCheck),
	}
	if limiter != nil {
		components["redis"] = handler.PingFunc(limiter.Ping)
	}

	handlers := server.Handlers{
		Extraction: handler.NewExtractionHandler(extractionService, cfg.MaxUploadSizeMB, logger),
		Cost:       handler.NewCostHandler(extractionService, logger),
		Meta:       handler.NewMetaHandler(cfg, components),
	}

	var limiterIface ratelimit.Limiter
	if limiter != nil {
		limiterIface = limiter
	}

	srv := server.NewServer(cfg, handlers, keyRepo, limiterIface, logger)
	if err := srv.Start(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger from config
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
