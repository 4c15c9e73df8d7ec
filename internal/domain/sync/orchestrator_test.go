package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"model-lens/services/catalog-api/internal/domain/model"
)

type fakeAdapter struct {
	name   string
	models []model.Model
	err    error
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Fetch(ctx context.Context) ([]model.Model, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.models, nil
}

type fakeLedger struct {
	mu         stdsync.Mutex
	insertErr  error
	batchErr   error
	failSource string

	op      *Operation
	batches map[string]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{batches: make(map[string]int)}
}

func (l *fakeLedger) InsertSyncOperation(ctx context.Context) (*Operation, error) {
	if l.insertErr != nil {
		return nil, l.insertErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.op = &Operation{ID: "sync_01TEST", Status: StatusRunning, StartedAt: time.Now().UTC()}
	return l.op, nil
}

func (l *fakeLedger) UpdateSyncOperation(ctx context.Context, op *Operation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.op = op
	return nil
}

func (l *fakeLedger) InsertSnapshotBatch(ctx context.Context, syncID, source string, models []model.Model) error {
	if l.batchErr != nil && (l.failSource == "" || l.failSource == source) {
		return l.batchErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.batches[source] = len(models)
	return nil
}

func (l *fakeLedger) LatestCompletedSync(ctx context.Context) (*Operation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.op != nil && l.op.Status == StatusCompleted {
		return l.op, nil
	}
	return nil, nil
}

func (l *fakeLedger) SnapshotsForSync(ctx context.Context, syncID, source string) ([]model.Model, error) {
	return nil, nil
}

func (l *fakeLedger) ListSyncHistory(ctx context.Context, limit int) ([]*Operation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.op == nil {
		return nil, nil
	}
	return []*Operation{l.op}, nil
}

type adapterFunc struct {
	name string
	fn   func(ctx context.Context) ([]model.Model, error)
}

func (a *adapterFunc) Name() string { return a.name }

func (a *adapterFunc) Fetch(ctx context.Context) ([]model.Model, error) {
	return a.fn(ctx)
}

type busyLocker struct{}

func (busyLocker) AcquireSyncLock(ctx context.Context, ttl time.Duration) (func(), error) {
	return nil, errors.New("lock held")
}

func someModels(n int, provider string) []model.Model {
	models := make([]model.Model, n)
	for i := range models {
		models[i] = model.Model{ID: provider + "-m", Provider: provider}
	}
	return models
}

func TestRunSyncPartialFailureCompletes(t *testing.T) {
	ledger := newFakeLedger()
	adapters := []Adapter{
		&fakeAdapter{name: "models.dev", models: someModels(3, "openai")},
		&fakeAdapter{name: "openrouter", models: someModels(4, "meta")},
		&fakeAdapter{name: "huggingface", models: someModels(2, "mistral")},
		&fakeAdapter{name: "benchmark", err: errors.New("connection refused")},
	}
	o := NewOrchestrator(adapters, ledger, nil, time.Minute, zerolog.Nop())

	result, err := o.RunSync(context.Background())
	require.NoError(t, err, "one failing source must not fail the sync")

	assert.Equal(t, 9, result.TotalFetched)
	assert.Equal(t, 9, result.TotalStored)
	assert.Len(t, result.SourceErrors, 1)
	assert.Contains(t, result.SourceErrors, "benchmark")
	assert.Equal(t, 3, result.SourceCounts["models.dev"])
	assert.Equal(t, 4, result.SourceCounts["openrouter"])
	assert.Equal(t, 2, result.SourceCounts["huggingface"])

	require.NotNil(t, ledger.op)
	assert.Equal(t, StatusCompleted, ledger.op.Status)
	assert.NotNil(t, ledger.op.CompletedAt)
	assert.Equal(t, 9, ledger.op.TotalStored)
	assert.Empty(t, ledger.op.ErrorMessage)
}

func TestRunSyncAllSourcesFailStillCompletes(t *testing.T) {
	ledger := newFakeLedger()
	adapters := []Adapter{
		&fakeAdapter{name: "models.dev", err: errors.New("timeout")},
		&fakeAdapter{name: "openrouter", err: errors.New("timeout")},
	}
	o := NewOrchestrator(adapters, ledger, nil, time.Minute, zerolog.Nop())

	result, err := o.RunSync(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.TotalStored)
	assert.Len(t, result.SourceErrors, 2)
	assert.Equal(t, StatusCompleted, ledger.op.Status)
}

func TestRunSyncLedgerBatchFailureMarksFailed(t *testing.T) {
	ledger := newFakeLedger()
	ledger.batchErr = errors.New("disk full")
	adapters := []Adapter{
		&fakeAdapter{name: "models.dev", models: someModels(3, "openai")},
	}
	o := NewOrchestrator(adapters, ledger, nil, time.Minute, zerolog.Nop())

	_, err := o.RunSync(context.Background())
	require.Error(t, err)

	require.NotNil(t, ledger.op)
	assert.Equal(t, StatusFailed, ledger.op.Status)
	assert.NotNil(t, ledger.op.CompletedAt)
	assert.Contains(t, ledger.op.ErrorMessage, "disk full")
}

func TestRunSyncRecordsRunningOperationBeforeFetch(t *testing.T) {
	ledger := newFakeLedger()
	var seen *Operation
	adapters := []Adapter{&adapterFunc{name: "models.dev", fn: func(ctx context.Context) ([]model.Model, error) {
		ledger.mu.Lock()
		if ledger.op != nil {
			op := *ledger.op
			seen = &op
		}
		ledger.mu.Unlock()
		return someModels(1, "openai"), nil
	}}}
	o := NewOrchestrator(adapters, ledger, nil, time.Minute, zerolog.Nop())

	_, err := o.RunSync(context.Background())
	require.NoError(t, err)

	require.NotNil(t, seen, "the operation must exist while sources are being fetched")
	assert.Equal(t, StatusRunning, seen.Status)
	assert.False(t, seen.StartedAt.IsZero())
}

func TestStartSyncRecordsOperationBeforeReturning(t *testing.T) {
	ledger := newFakeLedger()
	fetchDone := make(chan struct{})
	adapters := []Adapter{&adapterFunc{name: "models.dev", fn: func(ctx context.Context) ([]model.Model, error) {
		<-fetchDone
		return nil, nil
	}}}
	o := NewOrchestrator(adapters, ledger, nil, time.Minute, zerolog.Nop())

	require.NoError(t, o.StartSync(context.Background()))

	// The fetch is still blocked, yet the run is already in history.
	ledger.mu.Lock()
	op := ledger.op
	ledger.mu.Unlock()
	require.NotNil(t, op, "a triggered run must be visible in sync history immediately")
	assert.Equal(t, StatusRunning, op.Status)
	close(fetchDone)
}

func TestRunSyncLockBusy(t *testing.T) {
	ledger := newFakeLedger()
	o := NewOrchestrator(nil, ledger, busyLocker{}, time.Minute, zerolog.Nop())

	_, err := o.RunSync(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)
	assert.Nil(t, ledger.op, "no operation recorded when the lock is held")
}

func TestAggregateCapturesOutcomesIndependently(t *testing.T) {
	adapters := []Adapter{
		&fakeAdapter{name: "a", models: someModels(1, "a")},
		&fakeAdapter{name: "b", err: errors.New("boom")},
		&fakeAdapter{name: "c", models: someModels(2, "c")},
	}
	o := NewOrchestrator(adapters, newFakeLedger(), nil, time.Minute, zerolog.Nop())

	outcomes := o.Aggregate(context.Background())
	require.Len(t, outcomes, 3)
	assert.Equal(t, "a", outcomes[0].Source)
	assert.NoError(t, outcomes[0].Err)
	assert.Error(t, outcomes[1].Err)
	assert.NoError(t, outcomes[2].Err)

	merged := MergedModels(outcomes)
	assert.Len(t, merged, 3)
}

func TestPersistSkipsEmptySources(t *testing.T) {
	ledger := newFakeLedger()
	o := NewOrchestrator(nil, ledger, nil, time.Minute, zerolog.Nop())

	outcomes := []AdapterOutcome{
		{Source: "models.dev", Models: someModels(2, "openai")},
		{Source: "openrouter", Models: nil},
	}
	result, err := o.Persist(context.Background(), outcomes)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalStored)
	_, wroteEmpty := ledger.batches["openrouter"]
	assert.False(t, wroteEmpty, "empty batches are not written")
}
