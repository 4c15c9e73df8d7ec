package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"model-lens/services/catalog-api/internal/domain/model"
	"model-lens/services/catalog-api/internal/infrastructure/metrics"
	"model-lens/services/catalog-api/internal/infrastructure/observability"
	"model-lens/services/catalog-api/internal/utils/platformerrors"
)

// ErrSyncInProgress is returned when another run holds the sync lock.
var ErrSyncInProgress = errors.New("sync already in progress")

// syncRunTimeout bounds a background run started by StartSync.
const syncRunTimeout = 10 * time.Minute

// Orchestrator fans out all registered source adapters, tolerates
// individual source failure, and records the run in the ledger. Only
// infrastructure failure (the ledger itself) marks a sync failed.
type Orchestrator struct {
	adapters []Adapter
	ledger   Ledger
	locker   Locker
	lockTTL  time.Duration
	log      zerolog.Logger
}

func NewOrchestrator(adapters []Adapter, ledger Ledger, locker Locker, lockTTL time.Duration, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		adapters: adapters,
		ledger:   ledger,
		locker:   locker,
		lockTTL:  lockTTL,
		log:      log.With().Str("component", "sync-orchestrator").Logger(),
	}
}

// RunSync executes one full aggregation run: a running ledger record
// first, then concurrent fetch, per-source persistence, terminal
// status. The operation exists before any source is contacted, so sync
// history shows the in-flight run and StartedAt reflects sync start.
// Overlapping runs are serialized by the lock; callers get
// ErrSyncInProgress instead of a second run.
func (o *Orchestrator) RunSync(ctx context.Context) (*Result, error) {
	release, err := o.acquireLock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	started := time.Now()
	op, err := o.ledger.InsertSyncOperation(ctx)
	if err != nil {
		metrics.RecordSyncRun("failed", time.Since(started).Seconds())
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create sync operation")
	}

	outcomes := o.Aggregate(ctx)
	result, err := o.persistOutcomes(ctx, op, outcomes)
	if err != nil {
		metrics.RecordSyncRun("failed", time.Since(started).Seconds())
		return nil, err
	}
	metrics.RecordSyncRun("completed", time.Since(started).Seconds())
	return result, nil
}

// StartSync acquires the sync lock, records the running operation, and
// runs the aggregation in the background, reporting only whether the
// run started. The operation is inserted before this returns, so the
// triggered run is visible in sync history immediately; the outcome is
// observable there, not via the trigger call.
func (o *Orchestrator) StartSync(ctx context.Context) error {
	release, err := o.acquireLock(ctx)
	if err != nil {
		return err
	}

	op, err := o.ledger.InsertSyncOperation(ctx)
	if err != nil {
		release()
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create sync operation")
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		defer release()
		runCtx, cancel := context.WithTimeout(detached, syncRunTimeout)
		defer cancel()

		started := time.Now()
		outcomes := o.Aggregate(runCtx)
		if _, err := o.persistOutcomes(runCtx, op, outcomes); err != nil {
			metrics.RecordSyncRun("failed", time.Since(started).Seconds())
			o.log.Error().Err(err).Msg("triggered sync failed")
			return
		}
		metrics.RecordSyncRun("completed", time.Since(started).Seconds())
	}()

	return nil
}

// Aggregate invokes every adapter concurrently, bounded by a weighted
// semaphore sized to the adapter count. Each outcome is captured
// independently; one adapter's failure never cancels the others.
func (o *Orchestrator) Aggregate(ctx context.Context) []AdapterOutcome {
	outcomes := make([]AdapterOutcome, len(o.adapters))
	sem := semaphore.NewWeighted(int64(len(o.adapters)))
	var wg sync.WaitGroup

	for i, adapter := range o.adapters {
		wg.Add(1)
		go func(idx int, a Adapter) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				outcomes[idx] = AdapterOutcome{Source: a.Name(), Err: err}
				return
			}
			defer sem.Release(1)

			fetchCtx, span := observability.StartSourceSpan(ctx, a.Name())
			models, err := a.Fetch(fetchCtx)
			outcomes[idx] = AdapterOutcome{Source: a.Name(), Models: models, Err: err}
			if err != nil {
				observability.RecordError(span, err)
				span.End()
				metrics.RecordSourceFetch(a.Name(), "error", 0)
				o.log.Error().Err(err).Str("source", a.Name()).Msg("source fetch failed")
				return
			}
			span.End()
			metrics.RecordSourceFetch(a.Name(), "success", len(models))
			o.log.Info().Str("source", a.Name()).Int("models", len(models)).Msg("source fetch succeeded")
		}(i, adapter)
	}
	wg.Wait()

	return outcomes
}

// Persist records outcomes aggregated outside a locked run (the
// catalog read path). The operation is created at persist time here
// because the fetch already happened; locked runs insert it before
// fan-out instead.
func (o *Orchestrator) Persist(ctx context.Context, outcomes []AdapterOutcome) (*Result, error) {
	op, err := o.ledger.InsertSyncOperation(ctx)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create sync operation")
	}
	return o.persistOutcomes(ctx, op, outcomes)
}

// persistOutcomes writes the successful snapshot batches and moves op
// to its terminal status. Source failures are logged and excluded; a
// ledger write failure is fatal to the sync and recorded on the
// operation.
func (o *Orchestrator) persistOutcomes(ctx context.Context, op *Operation, outcomes []AdapterOutcome) (*Result, error) {
	result := &Result{
		SyncID:       op.ID,
		SourceCounts: make(map[string]int, len(outcomes)),
		SourceErrors: make(map[string]string),
	}

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			result.SourceErrors[outcome.Source] = outcome.Err.Error()
			continue
		}
		result.SourceCounts[outcome.Source] = len(outcome.Models)
		result.TotalFetched += len(outcome.Models)
		if len(outcome.Models) == 0 {
			continue
		}
		if err := o.ledger.InsertSnapshotBatch(ctx, op.ID, outcome.Source, outcome.Models); err != nil {
			return nil, o.markFailed(ctx, op, err, "failed to persist snapshot batch")
		}
		result.TotalStored += len(outcome.Models)
		result.Models = append(result.Models, outcome.Models...)
	}

	now := time.Now().UTC()
	op.Status = StatusCompleted
	op.CompletedAt = &now
	op.TotalFetched = result.TotalFetched
	op.TotalStored = result.TotalStored
	if err := o.ledger.UpdateSyncOperation(ctx, op); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to complete sync operation")
	}

	o.log.Info().
		Str("sync_id", op.ID).
		Int("total_fetched", result.TotalFetched).
		Int("total_stored", result.TotalStored).
		Int("failed_sources", len(result.SourceErrors)).
		Msg("sync completed")

	return result, nil
}

// MergedModels concatenates all successful outcomes in adapter order.
func MergedModels(outcomes []AdapterOutcome) []model.Model {
	var merged []model.Model
	for _, outcome := range outcomes {
		if outcome.Err == nil {
			merged = append(merged, outcome.Models...)
		}
	}
	return merged
}

func (o *Orchestrator) markFailed(ctx context.Context, op *Operation, cause error, message string) error {
	now := time.Now().UTC()
	op.Status = StatusFailed
	op.CompletedAt = &now
	op.ErrorMessage = cause.Error()
	if err := o.ledger.UpdateSyncOperation(ctx, op); err != nil {
		o.log.Error().Err(err).Str("sync_id", op.ID).Msg("failed to mark sync operation failed")
	}
	return platformerrors.AsError(ctx, platformerrors.LayerDomain, cause, message)
}

func (o *Orchestrator) acquireLock(ctx context.Context) (func(), error) {
	if o.locker == nil {
		return func() {}, nil
	}
	release, err := o.locker.AcquireSyncLock(ctx, o.lockTTL)
	if err != nil {
		return nil, ErrSyncInProgress
	}
	return release, nil
}
