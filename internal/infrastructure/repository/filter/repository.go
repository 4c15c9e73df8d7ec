package filter

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	filterdomain "model-lens/services/catalog-api/internal/domain/filter"
	"model-lens/services/catalog-api/internal/domain/query"
	"model-lens/services/catalog-api/internal/domain/ruleengine"
	"model-lens/services/catalog-api/internal/infrastructure/database/entities"
	"model-lens/services/catalog-api/internal/utils/platformerrors"
)

// Repository is the gorm-backed saved-filter store.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, f *filterdomain.SavedFilter) error {
	entity, err := filterToEntity(ctx, f)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create filter", err, "a1d4f7b2-3c8e-4d9a-b6f1-5e2c8a0d4f73")
	}
	f.CreatedAt = entity.CreatedAt
	f.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*filterdomain.SavedFilter, error) {
	var entity entities.SavedFilter
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "filter not found", err, "c5e8b1d4-7a2f-4c6b-9d3e-0f8a5c2b7e19")
	}
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to load filter", err, "e9b2d5f8-1c4a-4e7d-a0b3-6f9c2e5a8d41")
	}
	return entityToFilter(ctx, &entity)
}

// List applies access scoping in SQL: own filters, public filters, and
// team filters the requester's team can see.
func (r *Repository) List(ctx context.Context, scope filterdomain.ListScope, p query.Pagination) ([]*filterdomain.SavedFilter, int64, error) {
	base := r.db.WithContext(ctx).Model(&entities.SavedFilter{})
	if scope.TeamID != "" {
		base = base.Where(
			"owner_id = ? OR visibility = ? OR (visibility = ? AND team_id = ?)",
			scope.UserID, string(filterdomain.VisibilityPublic), string(filterdomain.VisibilityTeam), scope.TeamID,
		)
	} else {
		base = base.Where("owner_id = ? OR visibility = ?", scope.UserID, string(filterdomain.VisibilityPublic))
	}
	if scope.Visibility != nil {
		base = base.Where("visibility = ?", string(*scope.Visibility))
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to count filters", err, "f2a7c0e3-5d8b-4f1a-8c6d-3b9e0f4a7c25")
	}

	var rows []entities.SavedFilter
	if err := base.Order("updated_at DESC").Offset(p.Offset()).Limit(p.Limit()).Find(&rows).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list filters", err, "b8d1e4a7-9f2c-4b5e-a3d0-7c6f1b8e4a52")
	}

	filters := make([]*filterdomain.SavedFilter, 0, len(rows))
	for i := range rows {
		f, err := entityToFilter(ctx, &rows[i])
		if err != nil {
			return nil, 0, err
		}
		filters = append(filters, f)
	}
	return filters, total, nil
}

func (r *Repository) Update(ctx context.Context, f *filterdomain.SavedFilter) error {
	rules, err := json.Marshal(f.Rules)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "failed to encode filter rules", err, "d6f9b2e5-8a1d-4c7f-b0e3-9a2d5f8b1e64")
	}
	result := r.db.WithContext(ctx).Model(&entities.SavedFilter{}).Where("id = ?", f.ID).Updates(map[string]any{
		"name":        f.Name,
		"description": nullableString(f.Description),
		"team_id":     nullableString(f.TeamID),
		"visibility":  string(f.Visibility),
		"rules":       datatypes.JSON(rules),
		"version":     f.Version,
	})
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to update filter", result.Error, "3e6a9d2c-0b5f-4e8a-9c1d-4f7b0e3a6d98")
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "filter not found", nil, "7c0f3b6e-2d9a-4f1c-b5e8-0d3a6f9c2b47")
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.SavedFilter{})
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete filter", result.Error, "5a8d1f4b-7e0c-4a3f-8b6d-1c9e4a7f0b32")
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "filter not found", nil, "9f2b5e8a-4c7d-4b0e-a6f3-8d1c4b7e0a55")
	}
	return nil
}

func (r *Repository) IncrementUsage(ctx context.Context, id string) error {
	now := time.Now().UTC()
	if err := r.db.WithContext(ctx).Model(&entities.SavedFilter{}).Where("id = ?", id).Updates(map[string]any{
		"usage_count":  gorm.Expr("usage_count + 1"),
		"last_used_at": now,
	}).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to increment filter usage", err, "1b4e7a0d-3f6c-4d9b-8e2a-5c0f3d6b9e71")
	}
	return nil
}

// RunRepository is the gorm-backed append-only run ledger.
type RunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Insert appends one evaluation run. Runs are never updated or deleted.
func (r *RunRepository) Insert(ctx context.Context, run *filterdomain.Run) error {
	entity, err := runToEntity(ctx, run)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to insert filter run", err, "6d9c2f5a-8b1e-4c4d-a7f0-3e6b9d2c5f84")
	}
	return nil
}

func (r *RunRepository) List(ctx context.Context, filterID string, p query.Pagination) ([]*filterdomain.Run, int64, error) {
	base := r.db.WithContext(ctx).Model(&entities.FilterRun{}).Where("filter_id = ?", filterID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to count filter runs", err, "0e3a6d9b-5f8c-4e1a-b4d7-2c5f8e1a4d60")
	}

	var rows []entities.FilterRun
	if err := base.Order("executed_at DESC").Offset(p.Offset()).Limit(p.Limit()).Find(&rows).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list filter runs", err, "8a1d4f7c-0b3e-4a6d-9c2f-5e8b1d4a7f03")
	}

	runs := make([]*filterdomain.Run, 0, len(rows))
	for i := range rows {
		run, err := entityToRun(ctx, &rows[i])
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, run)
	}
	return runs, total, nil
}

func (r *RunRepository) GetByID(ctx context.Context, filterID, runID string) (*filterdomain.Run, error) {
	var entity entities.FilterRun
	err := r.db.WithContext(ctx).Where("id = ? AND filter_id = ?", runID, filterID).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "filter run not found", err, "4f7b0e3d-6a9c-4f2b-8d5e-1a4c7f0b3e66")
	}
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to load filter run", err, "2c5f8b1e-4d7a-4c0f-9b3d-6e9a2c5f8b10")
	}
	return entityToRun(ctx, &entity)
}

func filterToEntity(ctx context.Context, f *filterdomain.SavedFilter) (*entities.SavedFilter, error) {
	rules, err := json.Marshal(f.Rules)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "failed to encode filter rules", err, "e1a4d7f0-3b6c-4e9a-8f2d-5b8e1a4d7f02")
	}
	return &entities.SavedFilter{
		ID:          f.ID,
		OwnerID:     f.OwnerID,
		TeamID:      nullableString(f.TeamID),
		Name:        f.Name,
		Description: nullableString(f.Description),
		Visibility:  string(f.Visibility),
		Rules:       datatypes.JSON(rules),
		Version:     f.Version,
		UsageCount:  f.UsageCount,
		LastUsedAt:  f.LastUsedAt,
	}, nil
}

func entityToFilter(ctx context.Context, e *entities.SavedFilter) (*filterdomain.SavedFilter, error) {
	var rules []ruleengine.Clause
	if len(e.Rules) > 0 {
		if err := json.Unmarshal(e.Rules, &rules); err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "failed to decode filter rules", err, "b3e6a9d2-5c8f-4b1e-a4d7-0f3b6e9a2d55")
		}
	}
	f := &filterdomain.SavedFilter{
		ID:         e.ID,
		OwnerID:    e.OwnerID,
		Name:       e.Name,
		Visibility: filterdomain.Visibility(e.Visibility),
		Rules:      rules,
		Version:    e.Version,
		UsageCount: e.UsageCount,
		LastUsedAt: e.LastUsedAt,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
	if e.TeamID != nil {
		f.TeamID = *e.TeamID
	}
	if e.Description != nil {
		f.Description = *e.Description
	}
	return f, nil
}

func runToEntity(ctx context.Context, run *filterdomain.Run) (*entities.FilterRun, error) {
	snapshot, err := json.Marshal(run.Snapshot)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "failed to encode run snapshot", err, "d7f0b3e6-9a2c-4d5f-b8e1-4a7d0f3b6e20")
	}
	results, err := json.Marshal(run.Results)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "failed to encode run results", err, "f3b6e9a2-1d4c-4f8b-9e2a-5d8f1b4e7a36")
	}
	entity := &entities.FilterRun{
		ID:             run.ID,
		FilterID:       run.FilterID,
		ExecutedBy:     run.ExecutedBy,
		ExecutedAt:     run.ExecutedAt,
		DurationMS:     run.DurationMS,
		Snapshot:       datatypes.JSON(snapshot),
		TotalEvaluated: run.TotalEvaluated,
		MatchCount:     run.MatchCount,
		Results:        datatypes.JSON(results),
		LimitUsed:      run.LimitUsed,
		ModelID:        nullableString(run.ModelID),
	}
	if len(run.Artifacts) > 0 {
		artifacts, err := json.Marshal(run.Artifacts)
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "failed to encode run artifacts", err, "a9d2c5f8-7e0b-4a3d-8c1f-2b5e8a1d4c79")
		}
		entity.Artifacts = datatypes.JSON(artifacts)
	}
	return entity, nil
}

func entityToRun(ctx context.Context, e *entities.FilterRun) (*filterdomain.Run, error) {
	run := &filterdomain.Run{
		ID:             e.ID,
		FilterID:       e.FilterID,
		ExecutedBy:     e.ExecutedBy,
		ExecutedAt:     e.ExecutedAt,
		DurationMS:     e.DurationMS,
		TotalEvaluated: e.TotalEvaluated,
		MatchCount:     e.MatchCount,
		LimitUsed:      e.LimitUsed,
	}
	if e.ModelID != nil {
		run.ModelID = *e.ModelID
	}
	if len(e.Snapshot) > 0 {
		if err := json.Unmarshal(e.Snapshot, &run.Snapshot); err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "failed to decode run snapshot", err, "c2f5b8e1-0d3a-4c6f-a9d2-7f0c3e6b9d14")
		}
	}
	if len(e.Results) > 0 {
		if err := json.Unmarshal(e.Results, &run.Results); err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "failed to decode run results", err, "e6b9d2f5-3a8c-4e1b-b4f7-0c3e6a9d2f58")
		}
	}
	if len(e.Artifacts) > 0 {
		if err := json.Unmarshal(e.Artifacts, &run.Artifacts); err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "failed to decode run artifacts", err, "b5e8a1d4-6c9f-4b2e-8d0a-3f6b9e2c5a87")
		}
	}
	return run, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
