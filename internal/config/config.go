// Package config loads settings from the environment.
//
// Environment Variables:
//   - OPENAI_API_KEY: API key for classification and open-ended answers
//   - OPENAI_MODEL: model answering open-ended questions (default gpt-4o-mini)
//   - OPENAI_CLASSIFIER_MODEL: model classifying questions (default gpt-4o-mini)
//   - GOOGLE_SHEET_URL: spreadsheet holding the invoice ledger (required)
//   - GOOGLE_SHEET_WORKSHEET: ledger worksheet (default "Invoice Detail Listing")
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB: Redis connection; empty address keeps caches in memory
//   - CACHE_TTL: ledger snapshot lifetime (default 10m)
//   - CACHE_PREFIX: Redis key prefix (default "invoiceqa:")
//   - CONFIDENCE_THRESHOLD: lowest classifier confidence answered by a query (default 0.6)
//   - OVERDUE_DAYS, INACTIVE_DAYS: default windows (30 and 60)
//   - TOP_CUSTOMERS_LIMIT, CUSTOMER_HISTORY_LIMIT: default list sizes (10 and 20)
//   - HISTORY_MAX_MESSAGES: chat messages remembered per conversation (default 20)
//   - FALLBACK_MAX_ROWS: ledger rows sent to the model for open-ended answers (default 5000)
//   - CURRENCY_SYMBOL: amount prefix in replies (default RM)
//   - METRICS_ADDR: listen address of the HTTP server (default :9090)
//   - ADMIN_IDS: comma-separated sender IDs allowed to update payment status
//   - LOG_LEVEL, LOG_FORMAT, LOG_TIME_FORMAT, LOG_OUTPUT: logging
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"invoiceqa/internal/cache"
	"invoiceqa/internal/intent"
	"invoiceqa/internal/logger"
)

type Config struct {
	// OpenAI Configuration
	OpenAIAPIKey          string
	OpenAIModel           string
	OpenAIClassifierModel string

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Redis Configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	CachePrefix   string

	// Routing Configuration
	ConfidenceThreshold  float64
	OverdueDays          int
	InactiveDays         int
	TopCustomersLimit    int
	CustomerHistoryLimit int

	// Conversation Configuration
	HistoryMaxMessages int
	FallbackMaxRows    int
	CurrencySymbol     string

	// Server Configuration
	MetricsAddr string
	AdminIDs    []string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIClassifierModel: getEnv("OPENAI_CLASSIFIER_MODEL", "gpt-4o-mini"),
		GoogleSheetURL:        getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:  getEnv("GOOGLE_SHEET_WORKSHEET", "Invoice Detail Listing"),
		RedisAddr:             getEnv("REDIS_ADDR", ""),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		CachePrefix:           getEnv("CACHE_PREFIX", "invoiceqa:"),
		CurrencySymbol:        getEnv("CURRENCY_SYMBOL", "RM"),
		MetricsAddr:           getEnv("METRICS_ADDR", ":9090"),
		AdminIDs:              getEnvList("ADMIN_IDS"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stdout"),
	}

	var err error
	if config.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if config.CacheTTL, err = getEnvDuration("CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if config.ConfidenceThreshold, err = getEnvFloat("CONFIDENCE_THRESHOLD", intent.DefaultThreshold); err != nil {
		return nil, err
	}
	if config.OverdueDays, err = getEnvInt("OVERDUE_DAYS", 30); err != nil {
		return nil, err
	}
	if config.InactiveDays, err = getEnvInt("INACTIVE_DAYS", 60); err != nil {
		return nil, err
	}
	if config.TopCustomersLimit, err = getEnvInt("TOP_CUSTOMERS_LIMIT", 10); err != nil {
		return nil, err
	}
	if config.CustomerHistoryLimit, err = getEnvInt("CUSTOMER_HISTORY_LIMIT", 20); err != nil {
		return nil, err
	}
	if config.HistoryMaxMessages, err = getEnvInt("HISTORY_MAX_MESSAGES", 20); err != nil {
		return nil, err
	}
	if config.FallbackMaxRows, err = getEnvInt("FALLBACK_MAX_ROWS", 5000); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL is required")
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be in (0, 1], got %v", c.ConfidenceThreshold)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	for name, v := range map[string]int{
		"OVERDUE_DAYS":           c.OverdueDays,
		"INACTIVE_DAYS":          c.InactiveDays,
		"TOP_CUSTOMERS_LIMIT":    c.TopCustomersLimit,
		"CUSTOMER_HISTORY_LIMIT": c.CustomerHistoryLimit,
		"HISTORY_MAX_MESSAGES":   c.HistoryMaxMessages,
		"FALLBACK_MAX_ROWS":      c.FallbackMaxRows,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	return nil
}

// RequireOpenAI reports a missing API key for commands that call the model
func (c *Config) RequireOpenAI() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GetRouterConfig returns the routing threshold and defaults
func (c *Config) GetRouterConfig() intent.Config {
	return intent.Config{
		Threshold:    c.ConfidenceThreshold,
		OverdueDays:  c.OverdueDays,
		InactiveDays: c.InactiveDays,
		TopLimit:     c.TopCustomersLimit,
		HistoryLimit: c.CustomerHistoryLimit,
	}
}

// GetCacheConfig returns the Redis and snapshot settings
func (c *Config) GetCacheConfig() cache.Config {
	return cache.Config{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		TTL:      c.CacheTTL,
		Prefix:   c.CachePrefix,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping blank entries
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 10m: %w", key, err)
	}
	return d, nil
}
