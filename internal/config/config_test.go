package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"GOOGLE_SHEET_WORKSHEET", "CACHE_TTL", "CACHE_PREFIX", "CONFIDENCE_THRESHOLD",
		"OVERDUE_DAYS", "INACTIVE_DAYS", "TOP_CUSTOMERS_LIMIT", "CUSTOMER_HISTORY_LIMIT",
		"HISTORY_MAX_MESSAGES", "FALLBACK_MAX_ROWS", "CURRENCY_SYMBOL", "REDIS_ADDR", "REDIS_DB", "LOG_LEVEL",
		"ADMIN_IDS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_SHEET_URL", "https://docs.google.com/spreadsheets/d/abc/edit")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Invoice Detail Listing", cfg.GoogleSheetWorksheet)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 0.6, cfg.ConfidenceThreshold)
	assert.Equal(t, 5000, cfg.FallbackMaxRows)
	assert.Equal(t, "RM", cfg.CurrencySymbol)

	router := cfg.GetRouterConfig()
	assert.Equal(t, 30, router.OverdueDays)
	assert.Equal(t, 60, router.InactiveDays)
	assert.Equal(t, 10, router.TopLimit)
	assert.Equal(t, 20, router.HistoryLimit)

	assert.Equal(t, "invoiceqa:", cfg.GetCacheConfig().Prefix)
	assert.Equal(t, "info", cfg.GetLoggerConfig().Level)
	assert.Empty(t, cfg.AdminIDs)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_SHEET_URL", "https://docs.google.com/spreadsheets/d/abc/edit")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.75")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("OVERDUE_DAYS", "45")
	t.Setenv("ADMIN_IDS", " 6012345@c.us, ,6098765@c.us")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.75, cfg.GetRouterConfig().Threshold)
	assert.Equal(t, 45, cfg.GetRouterConfig().OverdueDays)
	assert.Equal(t, 90*time.Second, cfg.GetCacheConfig().TTL)
	assert.Equal(t, "localhost:6379", cfg.GetCacheConfig().Addr)
	assert.Equal(t, 2, cfg.GetCacheConfig().DB)
	assert.Equal(t, []string{"6012345@c.us", "6098765@c.us"}, cfg.AdminIDs)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing sheet", env: map[string]string{"GOOGLE_SHEET_URL": ""}},
		{name: "threshold above one", env: map[string]string{"CONFIDENCE_THRESHOLD": "1.5"}},
		{name: "threshold not a number", env: map[string]string{"CONFIDENCE_THRESHOLD": "high"}},
		{name: "bad duration", env: map[string]string{"CACHE_TTL": "ten minutes"}},
		{name: "negative days", env: map[string]string{"INACTIVE_DAYS": "-1"}},
		{name: "non integer limit", env: map[string]string{"TOP_CUSTOMERS_LIMIT": "ten"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("GOOGLE_SHEET_URL", "https://docs.google.com/spreadsheets/d/abc/edit")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestRequireOpenAI(t *testing.T) {
	assert.Error(t, (&Config{}).RequireOpenAI())
	assert.NoError(t, (&Config{OpenAIAPIKey: "sk-test"}).RequireOpenAI())
}
