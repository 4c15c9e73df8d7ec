package filter

import (
	"context"
	"time"

	"model-lens/services/catalog-api/internal/domain/query"
	"model-lens/services/catalog-api/internal/domain/ruleengine"
)

// Visibility scopes who may read and evaluate a saved filter.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityTeam    Visibility = "team"
	VisibilityPublic  Visibility = "public"
)

// IsValidVisibility reports whether v is a known visibility value.
func IsValidVisibility(v Visibility) bool {
	switch v {
	case VisibilityPrivate, VisibilityTeam, VisibilityPublic:
		return true
	}
	return false
}

// SavedFilter is a reusable, versioned filter definition. Version is
// bumped on every rule or visibility change so runs stay traceable to
// the exact definition they evaluated.
type SavedFilter struct {
	ID          string              `json:"id"`
	OwnerID     string              `json:"owner_id"`
	TeamID      string              `json:"team_id,omitempty"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Visibility  Visibility          `json:"visibility"`
	Rules       []ruleengine.Clause `json:"rules"`
	Version     int                 `json:"version"`
	UsageCount  int                 `json:"usage_count"`
	LastUsedAt  *time.Time          `json:"last_used_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Snapshot is the immutable copy of a filter captured in a run record.
// It never changes after the run is recorded, even when the parent
// filter is edited later.
type Snapshot struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Visibility  Visibility          `json:"visibility"`
	Rules       []ruleengine.Clause `json:"rules"`
	Version     int                 `json:"version"`
}

// Snapshot captures the filter's audit snapshot at evaluation time.
func (f *SavedFilter) Snapshot() Snapshot {
	rules := make([]ruleengine.Clause, len(f.Rules))
	copy(rules, f.Rules)
	return Snapshot{
		Name:        f.Name,
		Description: f.Description,
		Visibility:  f.Visibility,
		Rules:       rules,
		Version:     f.Version,
	}
}

// ModelResult is one model's evaluation outcome inside a run.
type ModelResult struct {
	ModelID           string  `json:"model_id"`
	Provider          string  `json:"provider"`
	Match             bool    `json:"match"`
	Score             float64 `json:"score"`
	FailedHardClauses int     `json:"failed_hard_clauses"`
	PassedSoftClauses int     `json:"passed_soft_clauses"`
	TotalSoftClauses  int     `json:"total_soft_clauses"`
	Rationale         string  `json:"rationale"`
}

// Run is one append-only evaluation record.
type Run struct {
	ID             string            `json:"id"`
	FilterID       string            `json:"filter_id"`
	ExecutedBy     string            `json:"executed_by"`
	ExecutedAt     time.Time         `json:"executed_at"`
	DurationMS     int64             `json:"duration_ms"`
	Snapshot       Snapshot          `json:"snapshot"`
	TotalEvaluated int               `json:"total_evaluated"`
	MatchCount     int               `json:"match_count"`
	Results        []ModelResult     `json:"results"`
	LimitUsed      int               `json:"limit_used"`
	ModelID        string            `json:"model_id,omitempty"`
	Artifacts      map[string]string `json:"artifacts,omitempty"`
}

// Store persists saved filter definitions.
type Store interface {
	Create(ctx context.Context, f *SavedFilter) error
	GetByID(ctx context.Context, id string) (*SavedFilter, error)
	List(ctx context.Context, scope ListScope, p query.Pagination) ([]*SavedFilter, int64, error)
	Update(ctx context.Context, f *SavedFilter) error
	Delete(ctx context.Context, id string) error
	IncrementUsage(ctx context.Context, id string) error
}

// ListScope narrows a filter listing to what the caller may see.
type ListScope struct {
	UserID     string
	TeamID     string
	Visibility *Visibility
}

// RunLedger is the append-only log of evaluation runs.
type RunLedger interface {
	Insert(ctx context.Context, run *Run) error
	List(ctx context.Context, filterID string, p query.Pagination) ([]*Run, int64, error)
	GetByID(ctx context.Context, filterID, runID string) (*Run, error)
}
