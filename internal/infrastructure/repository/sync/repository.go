package sync

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"model-lens/services/catalog-api/internal/domain/model"
	syncdomain "model-lens/services/catalog-api/internal/domain/sync"
	"model-lens/services/catalog-api/internal/infrastructure/database/entities"
	"model-lens/services/catalog-api/internal/utils/idgen"
	"model-lens/services/catalog-api/internal/utils/platformerrors"
)

const snapshotBatchSize = 100

// Repository is the gorm-backed sync ledger.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) InsertSyncOperation(ctx context.Context) (*syncdomain.Operation, error) {
	entity := entities.SyncOperation{
		ID:        idgen.NewSyncID(),
		Status:    string(syncdomain.StatusRunning),
		StartedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to insert sync operation", err, "1f7c3e9a-5b2d-4a8f-9c6e-0d4b7a1f3e85")
	}
	return operationToDomain(&entity), nil
}

func (r *Repository) UpdateSyncOperation(ctx context.Context, op *syncdomain.Operation) error {
	entity := operationToEntity(op)
	if err := r.db.WithContext(ctx).Model(&entities.SyncOperation{}).Where("id = ?", op.ID).Updates(map[string]any{
		"status":        entity.Status,
		"completed_at":  entity.CompletedAt,
		"total_fetched": entity.TotalFetched,
		"total_stored":  entity.TotalStored,
		"error_message": entity.ErrorMessage,
	}).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to update sync operation", err, "9b4d6f2e-8a1c-4e3b-b5d7-2f0a9c6e4d18")
	}
	return nil
}

func (r *Repository) InsertSnapshotBatch(ctx context.Context, syncID, source string, models []model.Model) error {
	if len(models) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]entities.ModelSnapshot, 0, len(models))
	for _, m := range models {
		payload, err := json.Marshal(m)
		if err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "failed to encode model snapshot", err, "5e2a8c4f-1d7b-4f9e-a3c0-6b8d2e5f7a94")
		}
		rows = append(rows, entities.ModelSnapshot{
			SyncID:   syncID,
			Source:   source,
			ModelID:  m.ID,
			Provider: m.Provider,
			Payload:  datatypes.JSON(payload),
			SyncedAt: now,
		})
	}
	if err := r.db.WithContext(ctx).CreateInBatches(rows, snapshotBatchSize).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to insert snapshot batch", err, "3c9e1b5d-7f4a-4d2c-8e6b-0a1f9d3c5e72")
	}
	return nil
}

// LatestCompletedSync returns nil without error when no completed sync
// exists yet.
func (r *Repository) LatestCompletedSync(ctx context.Context) (*syncdomain.Operation, error) {
	var entity entities.SyncOperation
	err := r.db.WithContext(ctx).
		Where("status = ?", string(syncdomain.StatusCompleted)).
		Order("completed_at DESC").
		First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to query latest completed sync", err, "7a5c2e8b-4f1d-4b6a-9d3e-8c0b5f2a7e41")
	}
	return operationToDomain(&entity), nil
}

func (r *Repository) SnapshotsForSync(ctx context.Context, syncID, source string) ([]model.Model, error) {
	query := r.db.WithContext(ctx).Where("sync_id = ?", syncID)
	if source != "" {
		query = query.Where("source = ?", source)
	}
	var rows []entities.ModelSnapshot
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to load snapshots", err, "2d8f4a6c-9e1b-4c5d-b7a3-5f0e8d2c4a69")
	}
	models := make([]model.Model, 0, len(rows))
	for _, row := range rows {
		var m model.Model
		if err := json.Unmarshal(row.Payload, &m); err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "failed to decode model snapshot", err, "8e3b6d1f-2a7c-4f8e-9b5d-1c4a7e0f3b26")
		}
		models = append(models, m)
	}
	return models, nil
}

func (r *Repository) ListSyncHistory(ctx context.Context, limit int) ([]*syncdomain.Operation, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []entities.SyncOperation
	if err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list sync history", err, "4b7e9c2a-6d3f-4a1b-8e5c-9f2d0b6a4c83")
	}
	ops := make([]*syncdomain.Operation, 0, len(rows))
	for i := range rows {
		ops = append(ops, operationToDomain(&rows[i]))
	}
	return ops, nil
}

func operationToDomain(e *entities.SyncOperation) *syncdomain.Operation {
	op := &syncdomain.Operation{
		ID:           e.ID,
		Status:       syncdomain.Status(e.Status),
		StartedAt:    e.StartedAt,
		CompletedAt:  e.CompletedAt,
		TotalFetched: e.TotalFetched,
		TotalStored:  e.TotalStored,
	}
	if e.ErrorMessage != nil {
		op.ErrorMessage = *e.ErrorMessage
	}
	return op
}

func operationToEntity(op *syncdomain.Operation) *entities.SyncOperation {
	entity := &entities.SyncOperation{
		ID:           op.ID,
		Status:       string(op.Status),
		StartedAt:    op.StartedAt,
		CompletedAt:  op.CompletedAt,
		TotalFetched: op.TotalFetched,
		TotalStored:  op.TotalStored,
	}
	if op.ErrorMessage != "" {
		msg := op.ErrorMessage
		entity.ErrorMessage = &msg
	}
	return entity
}
