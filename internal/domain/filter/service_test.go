package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "model-lens/services/catalog-api/internal/domain"
	"model-lens/services/catalog-api/internal/domain/model"
	"model-lens/services/catalog-api/internal/domain/query"
	"model-lens/services/catalog-api/internal/domain/ruleengine"
	"model-lens/services/catalog-api/internal/utils/platformerrors"
)

func clause(field string, op ruleengine.Operator, value any, clauseType ruleengine.ClauseType, weight float64) ruleengine.Clause {
	return ruleengine.Clause{Field: field, Operator: op, Value: value, Type: clauseType, Weight: weight}
}

type memStore struct {
	filters   map[string]SavedFilter
	usage     map[string]int
	createErr error
	updateErr error
}

func newMemStore() *memStore {
	return &memStore{filters: make(map[string]SavedFilter), usage: make(map[string]int)}
}

func copyFilter(f SavedFilter) SavedFilter {
	rules := make([]ruleengine.Clause, len(f.Rules))
	copy(rules, f.Rules)
	f.Rules = rules
	return f
}

func (s *memStore) Create(ctx context.Context, f *SavedFilter) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.filters[f.ID] = copyFilter(*f)
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id string) (*SavedFilter, error) {
	f, ok := s.filters[id]
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "filter not found", nil, "")
	}
	out := copyFilter(f)
	return &out, nil
}

func (s *memStore) List(ctx context.Context, scope ListScope, p query.Pagination) ([]*SavedFilter, int64, error) {
	var out []*SavedFilter
	for _, f := range s.filters {
		c := copyFilter(f)
		out = append(out, &c)
	}
	return out, int64(len(out)), nil
}

func (s *memStore) Update(ctx context.Context, f *SavedFilter) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.filters[f.ID] = copyFilter(*f)
	return nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	delete(s.filters, id)
	return nil
}

func (s *memStore) IncrementUsage(ctx context.Context, id string) error {
	s.usage[id]++
	return nil
}

type memRuns struct {
	runs      []*Run
	insertErr error
}

func (r *memRuns) Insert(ctx context.Context, run *Run) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.runs = append(r.runs, run)
	return nil
}

func (r *memRuns) List(ctx context.Context, filterID string, p query.Pagination) ([]*Run, int64, error) {
	var out []*Run
	for _, run := range r.runs {
		if run.FilterID == filterID {
			out = append(out, run)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memRuns) GetByID(ctx context.Context, filterID, runID string) (*Run, error) {
	for _, run := range r.runs {
		if run.FilterID == filterID && run.ID == runID {
			return run, nil
		}
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "filter run not found", nil, "")
}

type fakeCatalog struct {
	models []model.Model
	err    error
}

func (c *fakeCatalog) ListModels(ctx context.Context) ([]model.Model, error) {
	return c.models, c.err
}

func testService(store Store, runs RunLedger, catalog Catalog) *Service {
	return NewService(store, runs, catalog, 500, zerolog.Nop())
}

var (
	owner    = domain.Principal{UserID: "u1", TeamID: "t1"}
	stranger = domain.Principal{UserID: "u2", TeamID: "t2"}
)

func validInput() CreateInput {
	return CreateInput{
		Name:  "cheap openai",
		Rules: []ruleengine.Clause{clause("provider", ruleengine.OpEq, "openai", ruleengine.ClauseHard, 0)},
	}
}

func TestCreateDefaults(t *testing.T) {
	store := newMemStore()
	svc := testService(store, &memRuns{}, &fakeCatalog{})

	f, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)

	assert.True(t, len(f.ID) > 4 && f.ID[:4] == "flt_")
	assert.Equal(t, "u1", f.OwnerID)
	assert.Equal(t, VisibilityPrivate, f.Visibility)
	assert.Equal(t, 1, f.Version)
}

func TestCreateTeamVisibilityInheritsTeam(t *testing.T) {
	store := newMemStore()
	svc := testService(store, &memRuns{}, &fakeCatalog{})

	input := validInput()
	input.Visibility = VisibilityTeam
	f, err := svc.Create(context.Background(), owner, input)
	require.NoError(t, err)
	assert.Equal(t, "t1", f.TeamID)
}

func TestCreateValidation(t *testing.T) {
	svc := testService(newMemStore(), &memRuns{}, &fakeCatalog{})
	ctx := context.Background()

	tests := []struct {
		name    string
		p       domain.Principal
		mutate  func(*CreateInput)
		errType platformerrors.ErrorType
	}{
		{
			"unauthenticated", domain.Principal{},
			func(in *CreateInput) {}, platformerrors.ErrorTypeUnauthorized,
		},
		{
			"empty rules", owner,
			func(in *CreateInput) { in.Rules = nil }, platformerrors.ErrorTypeValidation,
		},
		{
			"team visibility without team", domain.Principal{UserID: "u9"},
			func(in *CreateInput) { in.Visibility = VisibilityTeam }, platformerrors.ErrorTypeValidation,
		},
		{
			"unknown operator", owner,
			func(in *CreateInput) { in.Rules[0].Operator = "regex" }, platformerrors.ErrorTypeValidation,
		},
		{
			"blank field", owner,
			func(in *CreateInput) { in.Rules[0].Field = "" }, platformerrors.ErrorTypeValidation,
		},
		{
			"bad clause type", owner,
			func(in *CreateInput) { in.Rules[0].Type = "optional" }, platformerrors.ErrorTypeValidation,
		},
		{
			"negative weight", owner,
			func(in *CreateInput) { in.Rules[0].Weight = -1 }, platformerrors.ErrorTypeValidation,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			_, err := svc.Create(ctx, tc.p, input)
			require.Error(t, err)
			assert.True(t, platformerrors.IsErrorType(err, tc.errType))
		})
	}
}

func TestValidationCarriesFieldDetail(t *testing.T) {
	svc := testService(newMemStore(), &memRuns{}, &fakeCatalog{})

	input := validInput()
	input.Rules[0].Operator = "regex"
	_, err := svc.Create(context.Background(), owner, input)
	require.Error(t, err)

	var platformErr *platformerrors.PlatformError
	require.ErrorAs(t, err, &platformErr)
	assert.Contains(t, platformErr.Context, "rules[0].operator")
}

func TestGetForbiddenIsNotNotFound(t *testing.T) {
	store := newMemStore()
	svc := testService(store, &memRuns{}, &fakeCatalog{})
	ctx := context.Background()

	f, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	_, err = svc.Get(ctx, stranger, f.ID)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeForbidden))

	_, err = svc.Get(ctx, owner, "flt_missing")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestUpdateVersionBump(t *testing.T) {
	store := newMemStore()
	svc := testService(store, &memRuns{}, &fakeCatalog{})
	ctx := context.Background()

	f, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)
	require.Equal(t, 1, f.Version)

	// Name-only change keeps the version.
	name := "renamed"
	f, err = svc.Update(ctx, owner, f.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, 1, f.Version)

	// Rule change bumps it.
	f, err = svc.Update(ctx, owner, f.ID, UpdateInput{
		Rules: []ruleengine.Clause{clause("inputCost", ruleengine.OpLte, 10.0, ruleengine.ClauseHard, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Version)

	// Visibility change bumps it too.
	public := VisibilityPublic
	f, err = svc.Update(ctx, owner, f.ID, UpdateInput{Visibility: &public})
	require.NoError(t, err)
	assert.Equal(t, 3, f.Version)
}

func TestUpdateToTeamVisibilityInheritsTeam(t *testing.T) {
	store := newMemStore()
	svc := testService(store, &memRuns{}, &fakeCatalog{})
	ctx := context.Background()

	f, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)
	require.Empty(t, f.TeamID, "private filters carry no team")

	team := VisibilityTeam
	f, err = svc.Update(ctx, owner, f.ID, UpdateInput{Visibility: &team})
	require.NoError(t, err)

	assert.Equal(t, "t1", f.TeamID, "team visibility without an explicit team uses the caller's")
	teammate := domain.Principal{UserID: "u5", TeamID: "t1"}
	assert.True(t, CanAccess(teammate, f), "teammates can read the filter after the switch")
}

func TestUpdateOwnerOnly(t *testing.T) {
	store := newMemStore()
	svc := testService(store, &memRuns{}, &fakeCatalog{})
	ctx := context.Background()

	f, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	name := "hijacked"
	_, err = svc.Update(ctx, stranger, f.ID, UpdateInput{Name: &name})
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeForbidden))

	err = svc.Delete(ctx, stranger, f.ID)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeForbidden))
}

func evaluationCatalog() *fakeCatalog {
	return &fakeCatalog{models: []model.Model{
		{ID: "gpt-4", Provider: "openai", InputCost: 2.5},
		{ID: "claude-3-opus", Provider: "anthropic", InputCost: 15},
	}}
}

func TestEvaluateRecordsRun(t *testing.T) {
	store := newMemStore()
	runs := &memRuns{}
	svc := testService(store, runs, evaluationCatalog())
	ctx := context.Background()

	f, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	run, err := svc.Evaluate(ctx, owner, f.ID, EvaluateOptions{})
	require.NoError(t, err)

	assert.True(t, len(run.ID) > 4 && run.ID[:4] == "run_")
	assert.Equal(t, f.ID, run.FilterID)
	assert.Equal(t, "u1", run.ExecutedBy)
	assert.Equal(t, 2, run.TotalEvaluated)
	assert.Equal(t, 1, run.MatchCount)
	assert.Equal(t, 500, run.LimitUsed)
	assert.Len(t, run.Results, 2)
	assert.Equal(t, 1, run.Snapshot.Version)

	require.Len(t, runs.runs, 1)
	assert.Equal(t, 1, store.usage[f.ID], "usage incremented after a recorded run")
}

func TestEvaluateLimitClamp(t *testing.T) {
	store := newMemStore()
	svc := testService(store, &memRuns{}, evaluationCatalog())
	ctx := context.Background()

	f, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	run, err := svc.Evaluate(ctx, owner, f.ID, EvaluateOptions{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 500, run.LimitUsed)

	run, err = svc.Evaluate(ctx, owner, f.ID, EvaluateOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, run.LimitUsed)
	assert.Equal(t, 1, run.TotalEvaluated)
}

func TestEvaluateModelRestriction(t *testing.T) {
	store := newMemStore()
	svc := testService(store, &memRuns{}, evaluationCatalog())
	ctx := context.Background()

	f, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	run, err := svc.Evaluate(ctx, owner, f.ID, EvaluateOptions{ModelID: "claude-3-opus"})
	require.NoError(t, err)
	assert.Equal(t, 1, run.TotalEvaluated)
	assert.Zero(t, run.MatchCount)
	require.Len(t, run.Results, 1)
	assert.Equal(t, "claude-3-opus", run.Results[0].ModelID)
}

func TestEvaluateRunInsertFailureFailsRequest(t *testing.T) {
	store := newMemStore()
	runs := &memRuns{insertErr: errors.New("ledger down")}
	svc := testService(store, runs, evaluationCatalog())
	ctx := context.Background()

	f, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	_, err = svc.Evaluate(ctx, owner, f.ID, EvaluateOptions{})
	require.Error(t, err)
	assert.Zero(t, store.usage[f.ID], "no usage bump when the run is not recorded")
}

func TestRunSnapshotSurvivesFilterEdits(t *testing.T) {
	store := newMemStore()
	runs := &memRuns{}
	svc := testService(store, runs, evaluationCatalog())
	ctx := context.Background()

	f, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	run, err := svc.Evaluate(ctx, owner, f.ID, EvaluateOptions{})
	require.NoError(t, err)

	_, err = svc.Update(ctx, owner, f.ID, UpdateInput{
		Rules: []ruleengine.Clause{clause("inputCost", ruleengine.OpLte, 1.0, ruleengine.ClauseHard, 0)},
	})
	require.NoError(t, err)

	fetched, err := svc.GetRun(ctx, owner, f.ID, run.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Snapshot.Rules, 1)
	assert.Equal(t, ruleengine.Operator("eq"), fetched.Snapshot.Rules[0].Operator)
	assert.Equal(t, "provider", fetched.Snapshot.Rules[0].Field)
	assert.Equal(t, 1, fetched.Snapshot.Version)
}

func TestEvaluateCatalogFailure(t *testing.T) {
	store := newMemStore()
	svc := testService(store, &memRuns{}, &fakeCatalog{err: errors.New("all sources down")})
	ctx := context.Background()

	f, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	_, err = svc.Evaluate(ctx, owner, f.ID, EvaluateOptions{})
	require.Error(t, err)
}
