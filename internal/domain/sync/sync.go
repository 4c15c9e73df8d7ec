package sync

import (
	"context"
	"time"

	"model-lens/services/catalog-api/internal/domain/model"
)

// Status is the lifecycle state of a sync operation. Completed and
// failed are terminal.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Operation is one append-only sync-operation record.
type Operation struct {
	ID           string     `json:"id"`
	Status       Status     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	TotalFetched int        `json:"total_fetched"`
	TotalStored  int        `json:"total_stored"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Adapter fetches one external origin and transforms its payload into
// canonical models. New sources implement this; the orchestrator never
// changes.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]model.Model, error)
}

// Ledger persists sync operations and per-source snapshot batches.
// SnapshotsForSync with an empty source returns the whole run.
type Ledger interface {
	InsertSyncOperation(ctx context.Context) (*Operation, error)
	UpdateSyncOperation(ctx context.Context, op *Operation) error
	InsertSnapshotBatch(ctx context.Context, syncID, source string, models []model.Model) error
	LatestCompletedSync(ctx context.Context) (*Operation, error)
	SnapshotsForSync(ctx context.Context, syncID, source string) ([]model.Model, error)
	ListSyncHistory(ctx context.Context, limit int) ([]*Operation, error)
}

// Locker serializes overlapping sync runs across replicas.
type Locker interface {
	AcquireSyncLock(ctx context.Context, ttl time.Duration) (release func(), err error)
}

// AdapterOutcome captures one adapter's result independently of the
// others.
type AdapterOutcome struct {
	Source string
	Models []model.Model
	Err    error
}

// Result summarizes one aggregation run.
type Result struct {
	SyncID       string            `json:"sync_id"`
	Models       []model.Model     `json:"models"`
	SourceCounts map[string]int    `json:"source_counts"`
	SourceErrors map[string]string `json:"source_errors,omitempty"`
	TotalFetched int               `json:"total_fetched"`
	TotalStored  int               `json:"total_stored"`
}
