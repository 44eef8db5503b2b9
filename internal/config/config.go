package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ModelPricing holds per-1M-token rates for a model
type ModelPricing struct {
	InputPerMTok  float64 `json:"input"`
	OutputPerMTok float64 `json:"output"`
}

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxWorkers   int
	LogLevel     string
	LogFormat    string

	// Upload limits
	MaxUploadSizeMB int

	// Database
	DatabaseURL string

	// Redis (rate limiting)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// OpenRouter
	OpenRouterAPIKey   string
	DefaultModel       string
	FallbackModel      string
	OpenRouterTimeout  time.Duration
	DailyBudgetUSD     float64
	MonthlyBudgetUSD   float64
	ModelPricing       map[string]ModelPricing
	DefaultModelPrices ModelPricing

	// OCR sidecar
	OCRServiceURL string
	OCRLanguages  string
	OCRTimeout    time.Duration

	// Storage (optional archive of original uploads)
	S3Endpoint        string
	S3AccessKeyID     string
	S3AccessKeySecret string
	S3Bucket          string
	S3Region          string
}

// LoadConfig loads the application configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	config := &Config{
		Port:         getEnvInt("PORT", 8080),
		ReadTimeout:  time.Duration(getEnvInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvInt("WRITE_TIMEOUT", 120)) * time.Second,
		MaxWorkers:   getEnvInt("MAX_WORKERS", 5),
		LogLevel:     getEnvString("LOG_LEVEL", "info"),
		LogFormat:    getEnvString("LOG_FORMAT", "json"),

		MaxUploadSizeMB: getEnvInt("MAX_UPLOAD_SIZE_MB", 10),

		DatabaseURL: os.Getenv("POSTGRES_DB_URL"),

		RedisAddr:     getEnvString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   time.Duration(getEnvInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		DefaultModel:      getEnvString("OPENROUTER_DEFAULT_MODEL", "qwen/qwen2.5-vl-72b-instruct"),
		FallbackModel:     getEnvString("OPENROUTER_FALLBACK_MODEL", "openai/gpt-4o-mini"),
		OpenRouterTimeout: time.Duration(getEnvInt("OPENROUTER_TIMEOUT", 60)) * time.Second,
		DailyBudgetUSD:    getEnvFloat("OPENROUTER_DAILY_BUDGET_USD", 1.0),
		MonthlyBudgetUSD:  getEnvFloat("OPENROUTER_MONTHLY_BUDGET_USD", 5.0),
		ModelPricing:      getEnvPricing("OPENROUTER_MODEL_PRICING", defaultModelPricing()),
		DefaultModelPrices: ModelPricing{
			InputPerMTok:  getEnvFloat("OPENROUTER_FALLBACK_INPUT_RATE", 1.0),
			OutputPerMTok: getEnvFloat("OPENROUTER_FALLBACK_OUTPUT_RATE", 1.0),
		},

		OCRServiceURL: getEnvString("OCR_SERVICE_URL", "http://localhost:8884"),
		OCRLanguages:  getEnvString("OCR_LANGUAGES", "deu+eng"),
		OCRTimeout:    time.Duration(getEnvInt("OCR_TIMEOUT", 120)) * time.Second,

		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3AccessKeySecret: os.Getenv("S3_ACCESS_KEY_SECRET"),
		S3Bucket:          getEnvString("S3_BUCKET", "receipts"),
		S3Region:          getEnvString("S3_REGION", "eu-central-1"),
	}

	validateConfig(config)

	return config, nil
}

// defaultModelPricing returns the shipped per-1M-token pricing table.
// Override via OPENROUTER_MODEL_PRICING when provider pricing changes.
func defaultModelPricing() map[string]ModelPricing {
	return map[string]ModelPricing{
		"qwen/qwen2.5-vl-72b-instruct": {InputPerMTok: 0.40, OutputPerMTok: 0.40},
		"openai/gpt-4o-mini":           {InputPerMTok: 0.15, OutputPerMTok: 0.60},
		"openai/gpt-4o":                {InputPerMTok: 2.50, OutputPerMTok: 10.00},
		"qwen/qwen2.5-vl-7b-instruct":  {InputPerMTok: 0.10, OutputPerMTok: 0.10},
	}
}

// validateConfig checks if critical configuration values are set and logs warnings if they're missing
func validateConfig(config *Config) {
	if config.OpenRouterAPIKey == "" {
		slog.Warn("no OpenRouter API key provided, VLM requests will fail")
	}
	if config.DatabaseURL == "" {
		slog.Warn("POSTGRES_DB_URL is not set, persistence will fail")
	}
}

// getEnvString gets a string from an environment variable with a default value
func getEnvString(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer from an environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid integer env value, using default",
			"key", key, "value", valueStr, "default", defaultValue)
		return defaultValue
	}

	return value
}

// getEnvFloat gets a float from an environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64)
	if err != nil {
		slog.Warn("invalid float env value, using default",
			"key", key, "value", valueStr, "default", defaultValue)
		return defaultValue
	}

	return value
}

// getEnvPricing parses a JSON pricing table of the form
// {"model-id": {"input": 0.15, "output": 0.60}, ...}
func getEnvPricing(key string, defaultValue map[string]ModelPricing) map[string]ModelPricing {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var parsed map[string]ModelPricing
	if err := json.Unmarshal([]byte(valueStr), &parsed); err != nil {
		slog.Warn("invalid pricing table env value, using default", "key", key, "error", err)
		return defaultValue
	}

	return parsed
}
