package filter

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	domain "model-lens/services/catalog-api/internal/domain"
	"model-lens/services/catalog-api/internal/domain/model"
	"model-lens/services/catalog-api/internal/domain/query"
	"model-lens/services/catalog-api/internal/domain/ruleengine"
	"model-lens/services/catalog-api/internal/infrastructure/metrics"
	"model-lens/services/catalog-api/internal/infrastructure/observability"
	"model-lens/services/catalog-api/internal/utils/idgen"
	"model-lens/services/catalog-api/internal/utils/platformerrors"
)

// Catalog supplies the model set filters are evaluated against.
type Catalog interface {
	ListModels(ctx context.Context) ([]model.Model, error)
}

// Service owns saved filter lifecycle and evaluation runs.
type Service struct {
	store        Store
	runs         RunLedger
	catalog      Catalog
	limitCeiling int
	log          zerolog.Logger
}

func NewService(store Store, runs RunLedger, catalog Catalog, limitCeiling int, log zerolog.Logger) *Service {
	if limitCeiling <= 0 {
		limitCeiling = 500
	}
	return &Service{
		store:        store,
		runs:         runs,
		catalog:      catalog,
		limitCeiling: limitCeiling,
		log:          log.With().Str("component", "filter-service").Logger(),
	}
}

// CreateInput carries a new filter definition.
type CreateInput struct {
	Name        string
	Description string
	Visibility  Visibility
	TeamID      string
	Rules       []ruleengine.Clause
}

// Create validates and persists a new saved filter owned by the caller.
func (s *Service) Create(ctx context.Context, p domain.Principal, input CreateInput) (*SavedFilter, error) {
	if !p.IsAuthenticated() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized, "authentication required", nil, "0c41c2fa-7a19-4f0e-9d14-6b1d8f5e2a91")
	}
	if input.Visibility == "" {
		input.Visibility = VisibilityPrivate
	}
	if err := s.validateDefinition(ctx, input.Visibility, input.TeamID, p, input.Rules); err != nil {
		return nil, err
	}

	f := &SavedFilter{
		ID:          idgen.NewFilterID(),
		OwnerID:     p.UserID,
		TeamID:      input.TeamID,
		Name:        input.Name,
		Description: input.Description,
		Visibility:  input.Visibility,
		Rules:       input.Rules,
		Version:     1,
	}
	if f.Visibility == VisibilityTeam && f.TeamID == "" {
		f.TeamID = p.TeamID
	}

	if err := s.store.Create(ctx, f); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create filter")
	}
	return f, nil
}

// Get returns a filter the caller may access. Inaccessible filters
// yield a forbidden outcome, distinct from not-found.
func (s *Service) Get(ctx context.Context, p domain.Principal, id string) (*SavedFilter, error) {
	f, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load filter")
	}
	if !CanAccess(p, f) {
		return nil, s.forbidden(ctx)
	}
	return f, nil
}

// List returns filters visible to the caller, optionally narrowed to a
// single visibility.
func (s *Service) List(ctx context.Context, p domain.Principal, visibility *Visibility, p8n query.Pagination) ([]*SavedFilter, int64, error) {
	scope := ListScope{UserID: p.UserID, TeamID: p.TeamID, Visibility: visibility}
	filters, total, err := s.store.List(ctx, scope, p8n)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list filters")
	}
	return filters, total, nil
}

// UpdateInput carries a partial filter update; nil fields are left
// unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Visibility  *Visibility
	TeamID      *string
	Rules       []ruleengine.Clause
}

// Update applies an owner-only partial update, bumping the version when
// rules or visibility change.
func (s *Service) Update(ctx context.Context, p domain.Principal, id string, input UpdateInput) (*SavedFilter, error) {
	f, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load filter")
	}
	if !CanMutate(p, f) {
		return nil, s.forbidden(ctx)
	}

	versionBump := false
	if input.Name != nil {
		f.Name = *input.Name
	}
	if input.Description != nil {
		f.Description = *input.Description
	}
	if input.TeamID != nil {
		f.TeamID = *input.TeamID
	}
	if input.Visibility != nil && *input.Visibility != f.Visibility {
		f.Visibility = *input.Visibility
		versionBump = true
	}
	if input.Rules != nil {
		f.Rules = input.Rules
		versionBump = true
	}
	if f.Visibility == VisibilityTeam && f.TeamID == "" {
		f.TeamID = p.TeamID
	}

	if err := s.validateDefinition(ctx, f.Visibility, f.TeamID, p, f.Rules); err != nil {
		return nil, err
	}
	if versionBump {
		f.Version++
	}

	if err := s.store.Update(ctx, f); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update filter")
	}
	return f, nil
}

// Delete removes a filter; owner-only.
func (s *Service) Delete(ctx context.Context, p domain.Principal, id string) error {
	f, err := s.store.GetByID(ctx, id)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load filter")
	}
	if !CanMutate(p, f) {
		return s.forbidden(ctx)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete filter")
	}
	return nil
}

// EvaluateOptions bound one evaluation run.
type EvaluateOptions struct {
	Limit     int
	ModelID   string
	Artifacts map[string]string
}

// Evaluate runs a saved filter against the current catalog and records
// an auditable run with an immutable snapshot of the filter.
func (s *Service) Evaluate(ctx context.Context, p domain.Principal, filterID string, opts EvaluateOptions) (*Run, error) {
	started := time.Now()
	ctx, span := observability.StartEvaluationSpan(ctx, filterID)
	defer span.End()

	f, err := s.Get(ctx, p, filterID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	models, err := s.catalog.ListModels(ctx)
	if err != nil {
		metrics.RecordEvaluation("error", time.Since(started).Seconds())
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load catalog for evaluation")
	}

	if opts.ModelID != "" {
		restricted := models[:0:0]
		for _, m := range models {
			if m.ID == opts.ModelID {
				restricted = append(restricted, m)
			}
		}
		models = restricted
	}

	limit := query.ClampLimit(opts.Limit, s.limitCeiling)
	if len(models) > limit {
		models = models[:limit]
	}

	run := &Run{
		ID:         idgen.NewRunID(),
		FilterID:   f.ID,
		ExecutedBy: p.UserID,
		ExecutedAt: started.UTC(),
		Snapshot:   f.Snapshot(),
		LimitUsed:  limit,
		ModelID:    opts.ModelID,
		Artifacts:  opts.Artifacts,
		Results:    make([]ModelResult, 0, len(models)),
	}

	for _, m := range models {
		outcome := ruleengine.Evaluate(f.Rules, m)
		if outcome.Match {
			run.MatchCount++
		}
		run.Results = append(run.Results, ModelResult{
			ModelID:           m.ID,
			Provider:          m.Provider,
			Match:             outcome.Match,
			Score:             outcome.Score,
			FailedHardClauses: outcome.FailedHardClauses,
			PassedSoftClauses: outcome.PassedSoftClauses,
			TotalSoftClauses:  outcome.TotalSoftClauses,
			Rationale:         outcome.Rationale,
		})
	}
	run.TotalEvaluated = len(models)
	run.DurationMS = time.Since(started).Milliseconds()

	if err := s.runs.Insert(ctx, run); err != nil {
		metrics.RecordEvaluation("error", time.Since(started).Seconds())
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to record filter run")
	}

	if err := s.store.IncrementUsage(ctx, f.ID); err != nil {
		// Usage counters are best-effort; the run record is the audit trail.
		s.log.Warn().Err(err).Str("filter_id", f.ID).Msg("failed to increment filter usage")
	}

	metrics.RecordEvaluation("success", time.Since(started).Seconds())
	return run, nil
}

// ListRuns returns a filter's runs, most recent first.
func (s *Service) ListRuns(ctx context.Context, p domain.Principal, filterID string, p8n query.Pagination) ([]*Run, int64, error) {
	if _, err := s.Get(ctx, p, filterID); err != nil {
		return nil, 0, err
	}
	runs, total, err := s.runs.List(ctx, filterID, p8n)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list filter runs")
	}
	return runs, total, nil
}

// GetRun returns one run of an accessible filter.
func (s *Service) GetRun(ctx context.Context, p domain.Principal, filterID, runID string) (*Run, error) {
	if _, err := s.Get(ctx, p, filterID); err != nil {
		return nil, err
	}
	run, err := s.runs.GetByID(ctx, filterID, runID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load filter run")
	}
	return run, nil
}

func (s *Service) validateDefinition(ctx context.Context, visibility Visibility, teamID string, p domain.Principal, rules []ruleengine.Clause) error {
	fields := map[string]any{}
	if !IsValidVisibility(visibility) {
		fields["visibility"] = "must be one of private, team, public"
	}
	if visibility == VisibilityTeam && teamID == "" && p.TeamID == "" {
		fields["team_id"] = "required for team visibility"
	}
	if len(rules) == 0 {
		fields["rules"] = "at least one rule clause is required"
	}
	for i, clause := range rules {
		if clause.Field == "" {
			fields[clauseField(i, "field")] = "field path is required"
		}
		if !ruleengine.IsValidOperator(clause.Operator) {
			fields[clauseField(i, "operator")] = "unknown operator"
		}
		if clause.Type != ruleengine.ClauseHard && clause.Type != ruleengine.ClauseSoft {
			fields[clauseField(i, "type")] = "must be hard or soft"
		}
		if clause.Weight < 0 {
			fields[clauseField(i, "weight")] = "must not be negative"
		}
	}
	if len(fields) > 0 {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid filter definition", nil, "8f2f6f4f-9d3a-4a0c-b6a4-52cf3f6f7a21", fields)
	}
	return nil
}

func clauseField(index int, name string) string {
	return "rules[" + strconv.Itoa(index) + "]." + name
}

func (s *Service) forbidden(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden, "filter is not accessible", nil, "4f6d2a8e-1b3c-4d5e-9f7a-0b1c2d3e4f5a")
}
