package entities

import (
	"time"

	"gorm.io/datatypes"
)

// SyncOperation represents one persisted aggregation run.
type SyncOperation struct {
	ID           string `gorm:"type:varchar(40);primaryKey"`
	Status       string `gorm:"type:varchar(16);not null;index"`
	StartedAt    time.Time
	CompletedAt  *time.Time
	TotalFetched int
	TotalStored  int
	ErrorMessage *string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (SyncOperation) TableName() string {
	return "sync_operations"
}

// ModelSnapshot is one append-only canonical model row tagged with the
// sync run and source that produced it.
type ModelSnapshot struct {
	ID       uint           `gorm:"primaryKey"`
	SyncID   string         `gorm:"type:varchar(40);index:idx_snapshots_sync;not null"`
	Source   string         `gorm:"type:varchar(64);index:idx_snapshots_sync;not null"`
	ModelID  string         `gorm:"type:varchar(128)"`
	Provider string         `gorm:"type:varchar(128)"`
	Payload  datatypes.JSON `gorm:"type:jsonb"`
	SyncedAt time.Time
}

func (ModelSnapshot) TableName() string {
	return "model_snapshots"
}

// SavedFilter represents a persisted reusable filter definition.
type SavedFilter struct {
	ID          string         `gorm:"type:varchar(40);primaryKey"`
	OwnerID     string         `gorm:"type:varchar(64);index;not null"`
	TeamID      *string        `gorm:"type:varchar(64);index"`
	Name        string         `gorm:"type:varchar(255);not null"`
	Description *string        `gorm:"type:text"`
	Visibility  string         `gorm:"type:varchar(16);index;not null"`
	Rules       datatypes.JSON `gorm:"type:jsonb"`
	Version     int            `gorm:"default:1"`
	UsageCount  int            `gorm:"default:0"`
	LastUsedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (SavedFilter) TableName() string {
	return "saved_filters"
}

// FilterRun is one append-only evaluation run with its immutable
// filter snapshot.
type FilterRun struct {
	ID             string    `gorm:"type:varchar(40);primaryKey"`
	FilterID       string    `gorm:"type:varchar(40);index;not null"`
	ExecutedBy     string    `gorm:"type:varchar(64)"`
	ExecutedAt     time.Time `gorm:"index"`
	DurationMS     int64
	Snapshot       datatypes.JSON `gorm:"type:jsonb"`
	TotalEvaluated int
	MatchCount     int
	Results        datatypes.JSON `gorm:"type:jsonb"`
	LimitUsed      int
	ModelID        *string        `gorm:"type:varchar(128)"`
	Artifacts      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time
}

func (FilterRun) TableName() string {
	return "filter_runs"
}
