package responses

import (
	"model-lens/services/catalog-api/internal/domain/model"
	"model-lens/services/catalog-api/internal/domain/sync"
)

// ModelListResponse wraps the aggregated catalog.
type ModelListResponse struct {
	Object string        `json:"object"`
	Total  int           `json:"total"`
	Data   []model.Model `json:"data"`
}

func NewModelListResponse(models []model.Model) ModelListResponse {
	if models == nil {
		models = []model.Model{}
	}
	return ModelListResponse{
		Object: "list",
		Total:  len(models),
		Data:   models,
	}
}

// SyncStartedResponse reports that a sync was started, not its outcome.
type SyncStartedResponse struct {
	Status string `json:"status"`
}

// SyncHistoryResponse lists recent sync operations.
type SyncHistoryResponse struct {
	Object string            `json:"object"`
	Data   []*sync.Operation `json:"data"`
}

func NewSyncHistoryResponse(ops []*sync.Operation) SyncHistoryResponse {
	if ops == nil {
		ops = []*sync.Operation{}
	}
	return SyncHistoryResponse{Object: "list", Data: ops}
}
