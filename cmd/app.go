package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"invoiceqa/internal/assistant"
	"invoiceqa/internal/cache"
	"invoiceqa/internal/config"
	"invoiceqa/internal/format"
	"invoiceqa/internal/intent"
	"invoiceqa/internal/llm"
	"invoiceqa/internal/logger"
	"invoiceqa/internal/payment"
	"invoiceqa/internal/sheets"
)

// app holds the wiring shared by the commands
type app struct {
	cfg       *config.Config
	sheets    *sheets.Service
	redis     *redis.Client
	tables    *cache.TableCache
	source    *cache.Source
	history   *cache.History
	formatter *format.Formatter
	router    *intent.Router
	updater   *payment.Updater
	log       zerolog.Logger
}

// newApp loads the configuration and connects to Google Sheets and Redis.
// Redis is optional: when it is not configured or not reachable, caches
// live in memory.
func newApp(ctx context.Context) (*app, error) {
	const op = "newApp"
	log := logger.WithComponent("app")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load configuration: %w", op, err)
	}

	sheetsService, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL, cfg.GoogleSheetWorksheet)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to initialize Google Sheets service: %w", op, err)
	}

	cacheCfg := cfg.GetCacheConfig()
	client := cache.NewRedisClient(cacheCfg)
	if client != nil {
		if err := cache.Ping(ctx, client); err != nil {
			log.Warn().
				Err(err).
				Str("addr", cacheCfg.Addr).
				Msg("Redis not reachable, caching in memory")
			_ = client.Close()
			client = nil
		}
	}

	tables := cache.NewTableCache(client, cacheCfg.TTL, cacheCfg.Prefix)
	formatter := format.New(cfg.CurrencySymbol)

	a := &app{
		cfg:       cfg,
		sheets:    sheetsService,
		redis:     client,
		tables:    tables,
		source:    cache.NewSource(tables, sheetsService.Worksheet(), sheetsService),
		history:   cache.NewHistory(client, cfg.HistoryMaxMessages, 0, cacheCfg.Prefix),
		formatter: formatter,
		router:    intent.NewRouter(cfg.GetRouterConfig(), formatter),
		updater:   payment.NewUpdater(sheetsService),
		log:       log,
	}

	log.Info().
		Str("worksheet", sheetsService.Worksheet()).
		Bool("redis", client != nil).
		Msg("Application initialized")

	return a, nil
}

// assistant builds the question-answering service. It needs OPENAI_API_KEY.
func (a *app) assistant() (*assistant.Service, error) {
	if err := a.cfg.RequireOpenAI(); err != nil {
		return nil, err
	}
	client := llm.NewClient(a.cfg.OpenAIAPIKey)

	return assistant.NewService(assistant.Deps{
		Source:     a.source,
		Classifier: intent.NewClassifier(client, a.cfg.OpenAIClassifierModel),
		Router:     a.router,
		Answerer:   assistant.NewAnswerer(client, a.cfg.OpenAIModel, a.cfg.FallbackMaxRows, a.sheets.Worksheet(), a.history),
		Payments:   a.updater,
		Formatter:  a.formatter,
	}), nil
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
}
