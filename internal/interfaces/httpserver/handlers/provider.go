package handlers

import (
	"github.com/rs/zerolog"

	"model-lens/services/catalog-api/internal/domain/catalog"
	"model-lens/services/catalog-api/internal/domain/filter"
	syncdomain "model-lens/services/catalog-api/internal/domain/sync"
)

// Provider wires HTTP handlers.
type Provider struct {
	Catalog *CatalogHandler
	Sync    *SyncHandler
	Filter  *FilterHandler
}

func NewProvider(catalogService *catalog.Service, filterService *filter.Service, orchestrator *syncdomain.Orchestrator, ledger syncdomain.Ledger, log zerolog.Logger) *Provider {
	return &Provider{
		Catalog: NewCatalogHandler(catalogService, log),
		Sync:    NewSyncHandler(orchestrator, ledger, log),
		Filter:  NewFilterHandler(filterService, log),
	}
}
