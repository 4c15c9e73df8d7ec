//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"model-lens/services/catalog-api/internal/config"
	"model-lens/services/catalog-api/internal/domain/catalog"
	"model-lens/services/catalog-api/internal/domain/filter"
	syncdomain "model-lens/services/catalog-api/internal/domain/sync"
	"model-lens/services/catalog-api/internal/infrastructure/cache"
	"model-lens/services/catalog-api/internal/infrastructure/crontab"
	"model-lens/services/catalog-api/internal/infrastructure/database"
	"model-lens/services/catalog-api/internal/infrastructure/logger"
	filterrepo "model-lens/services/catalog-api/internal/infrastructure/repository/filter"
	syncrepo "model-lens/services/catalog-api/internal/infrastructure/repository/sync"
	"model-lens/services/catalog-api/internal/interfaces/httpserver"
	"model-lens/services/catalog-api/internal/interfaces/httpserver/handlers"
)

var catalogSet = wire.NewSet(
	syncrepo.NewRepository,
	wire.Bind(new(syncdomain.Ledger), new(*syncrepo.Repository)),
	filterrepo.NewRepository,
	wire.Bind(new(filter.Store), new(*filterrepo.Repository)),
	filterrepo.NewRunRepository,
	wire.Bind(new(filter.RunLedger), new(*filterrepo.RunRepository)),
	provideOrchestrator,
	provideCatalogService,
	wire.Bind(new(filter.Catalog), new(*catalog.Service)),
	provideFilterService,
)

// BuildApplication assembles the catalog API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		provideRedisCache,
		catalogSet,
		handlers.NewProvider,
		httpserver.New,
		crontab.NewCrontab,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	return cache.NewRedisCache(cfg.RedisURL)
}

func provideOrchestrator(cfg *config.Config, ledger syncdomain.Ledger, rdb *cache.RedisCache, log zerolog.Logger) *syncdomain.Orchestrator {
	return newOrchestrator(cfg, ledger, rdb, log)
}

func provideCatalogService(orchestrator *syncdomain.Orchestrator, ledger syncdomain.Ledger, rdb *cache.RedisCache, cfg *config.Config, log zerolog.Logger) *catalog.Service {
	return catalog.NewService(orchestrator, ledger, rdb, cfg.CatalogCacheTTL, log)
}

func provideFilterService(store filter.Store, runs filter.RunLedger, catalogService filter.Catalog, cfg *config.Config, log zerolog.Logger) *filter.Service {
	return filter.NewService(store, runs, catalogService, cfg.EvaluationLimitCeiling, log)
}
