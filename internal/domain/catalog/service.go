package catalog

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"model-lens/services/catalog-api/internal/domain/model"
	syncdomain "model-lens/services/catalog-api/internal/domain/sync"
	"model-lens/services/catalog-api/internal/infrastructure/cache"
	"model-lens/services/catalog-api/internal/infrastructure/metrics"
	"model-lens/services/catalog-api/internal/utils/platformerrors"
)

const persistTimeout = 2 * time.Minute

// Service is the catalog read path: cache first, then the last
// completed sync, then a live aggregation across all sources when no
// sync has ever completed.
type Service struct {
	orchestrator *syncdomain.Orchestrator
	ledger       syncdomain.Ledger
	cache        *cache.RedisCache
	cacheTTL     time.Duration
	log          zerolog.Logger
}

// NewService builds the catalog service. A nil cache disables caching
// rather than failing requests.
func NewService(orchestrator *syncdomain.Orchestrator, ledger syncdomain.Ledger, rdb *cache.RedisCache, cacheTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		orchestrator: orchestrator,
		ledger:       ledger,
		cache:        rdb,
		cacheTTL:     cacheTTL,
		log:          log.With().Str("component", "catalog-service").Logger(),
	}
}

// ListModels returns the aggregated catalog. Cache first, then the
// latest completed sync, then a live aggregation whose snapshots are
// persisted in a supervised background goroutine so the request never
// waits on the database.
func (s *Service) ListModels(ctx context.Context) ([]model.Model, error) {
	if models, ok := s.fromCache(ctx); ok {
		return models, nil
	}

	if models, ok := s.fromLastSync(ctx); ok {
		s.cacheCatalog(ctx, models)
		return models, nil
	}

	outcomes := s.orchestrator.Aggregate(ctx)
	models := syncdomain.MergedModels(outcomes)
	if len(models) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "all model sources are unavailable and no prior sync exists", nil, "d3b8f1a7-2e4c-4f9d-a6b1-7c0e5d8f2a93")
	}

	s.cacheCatalog(ctx, models)
	s.persistAsync(ctx, outcomes)

	return models, nil
}

// GetModel returns a single catalog model by ID.
func (s *Service) GetModel(ctx context.Context, id string) (*model.Model, error) {
	models, err := s.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	for i := range models {
		if models[i].ID == id {
			return &models[i], nil
		}
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "model not found", nil, "6a1e9d2b-4c3f-4e8a-b7d0-9f2e1c5a8b46")
}

// InvalidateCache drops the cached catalog so the next read aggregates
// fresh data.
func (s *Service) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, cache.CatalogKey)
}

func (s *Service) fromCache(ctx context.Context) ([]model.Model, bool) {
	if s.cache == nil {
		return nil, false
	}
	cached, err := cache.GetJSON[[]model.Model](ctx, s.cache, cache.CatalogKey)
	if err != nil {
		if cache.IsMiss(err) {
			metrics.RecordCacheLookup("miss")
		} else {
			s.log.Warn().Err(err).Msg("catalog cache read failed")
			metrics.RecordCacheLookup("error")
		}
		return nil, false
	}
	metrics.RecordCacheLookup("hit")
	return *cached, true
}

// fromLastSync serves the most recent completed sync, if one exists.
func (s *Service) fromLastSync(ctx context.Context) ([]model.Model, bool) {
	op, err := s.ledger.LatestCompletedSync(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to query latest completed sync")
		return nil, false
	}
	if op == nil {
		return nil, false
	}
	models, err := s.ledger.SnapshotsForSync(ctx, op.ID, "")
	if err != nil {
		s.log.Warn().Err(err).Str("sync_id", op.ID).Msg("failed to load snapshots from last sync")
		return nil, false
	}
	if len(models) == 0 {
		return nil, false
	}
	s.log.Debug().Str("sync_id", op.ID).Int("models", len(models)).Msg("serving catalog from last completed sync")
	return models, true
}

func (s *Service) cacheCatalog(ctx context.Context, models []model.Model) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, cache.CatalogKey, models, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Msg("failed to cache catalog")
	}
}

// persistAsync records the aggregation in the ledger without blocking
// the read path. The goroutine owns its own deadline and logs failures;
// a persistence error never fails a catalog request.
func (s *Service) persistAsync(ctx context.Context, outcomes []syncdomain.AdapterOutcome) {
	detached := context.WithoutCancel(ctx)
	go func() {
		pctx, cancel := context.WithTimeout(detached, persistTimeout)
		defer cancel()
		if _, err := s.orchestrator.Persist(pctx, outcomes); err != nil {
			s.log.Error().Err(err).Msg("background sync persistence failed")
		}
	}()
}
