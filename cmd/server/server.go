package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"model-lens/services/catalog-api/internal/config"
	"model-lens/services/catalog-api/internal/domain/catalog"
	"model-lens/services/catalog-api/internal/domain/filter"
	syncdomain "model-lens/services/catalog-api/internal/domain/sync"
	"model-lens/services/catalog-api/internal/infrastructure/cache"
	"model-lens/services/catalog-api/internal/infrastructure/crontab"
	"model-lens/services/catalog-api/internal/infrastructure/database"
	"model-lens/services/catalog-api/internal/infrastructure/fetcher"
	"model-lens/services/catalog-api/internal/infrastructure/logger"
	"model-lens/services/catalog-api/internal/infrastructure/observability"
	filterrepo "model-lens/services/catalog-api/internal/infrastructure/repository/filter"
	syncrepo "model-lens/services/catalog-api/internal/infrastructure/repository/sync"
	"model-lens/services/catalog-api/internal/infrastructure/sources"
	"model-lens/services/catalog-api/internal/interfaces/httpserver"
	"model-lens/services/catalog-api/internal/interfaces/httpserver/handlers"
)

// @title Catalog API
// @version 1.0
// @description AI model metadata aggregation and filter evaluation service
// @BasePath /
type Application struct {
	httpServer *httpserver.HttpServer
	crontab    *crontab.Crontab
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, ctab *crontab.Crontab, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		crontab:    ctab,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	go func() {
		if err := a.crontab.Run(ctx); err != nil {
			a.log.Error().Err(err).Msg("crontab stopped with error")
		}
	}()
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	rdb, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("close redis")
		}
	}()

	syncLedger := syncrepo.NewRepository(db)
	orchestrator := newOrchestrator(cfg, syncLedger, rdb, log)
	catalogService := catalog.NewService(orchestrator, syncLedger, rdb, cfg.CatalogCacheTTL, log)
	filterService := filter.NewService(
		filterrepo.NewRepository(db),
		filterrepo.NewRunRepository(db),
		catalogService,
		cfg.EvaluationLimitCeiling,
		log,
	)

	handlerProvider := handlers.NewProvider(catalogService, filterService, orchestrator, syncLedger, log)
	httpServer := httpserver.New(cfg, log, handlerProvider, rdb)
	ctab := crontab.NewCrontab(orchestrator, cfg, log)
	app := NewApplication(httpServer, ctab, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// newOrchestrator assembles the source adapters behind one
// orchestrator. The benchmark source is optional; it only joins the
// fan-out when an endpoint is configured.
func newOrchestrator(cfg *config.Config, ledger syncdomain.Ledger, rdb *cache.RedisCache, log zerolog.Logger) *syncdomain.Orchestrator {
	retry := fetcher.Config{MaxAttempts: cfg.FetchMaxAttempts, Delay: cfg.FetchRetryDelay}

	adapters := []syncdomain.Adapter{
		sources.NewModelsDevAdapter(sources.NewClient("models.dev", cfg.FetchTimeout, log), cfg.ModelsDevURL, retry, log),
		sources.NewOpenRouterAdapter(sources.NewClient("openrouter", cfg.FetchTimeout, log), cfg.OpenRouterURL, retry, log),
		sources.NewHuggingFaceAdapter(sources.NewClient("huggingface", cfg.FetchTimeout, log), cfg.HuggingFaceURL, retry, log),
	}
	if cfg.BenchmarkURL != "" {
		adapters = append(adapters, sources.NewBenchmarkAdapter(sources.NewClient("benchmark", cfg.FetchTimeout, log), cfg.BenchmarkURL, retry, log))
	}

	return syncdomain.NewOrchestrator(adapters, ledger, rdb, cfg.SyncLockTTL, log)
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
