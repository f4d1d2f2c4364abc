package ranking

import (
	"context"
	"time"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

// CounterIncrement is one atomic "add 1" against a product counter.
// The repository applies it in a single upsert and recomputes the stored
// trending score with Weights in the same statement.
type CounterIncrement struct {
	ProductID string
	Brand     string
	Counter   domain.Counter
	At        time.Time
	Weights   Weights
}

// CounterStore applies one increment. The repository and a recording
// transaction both satisfy it.
type CounterStore interface {
	IncrementCounter(ctx context.Context, inc CounterIncrement) (domain.ProductTrendingRecord, error)
}

type TrendingRepo interface {
	CounterStore
	// RebuildFromLog overwrites every counter with a summary of the interaction log.
	// Admin and base scores are left untouched.
	RebuildFromLog(ctx context.Context, w Weights) (int64, error)
	SetAdminScore(ctx context.Context, productID string, score int) error
	Insert(ctx context.Context, rec domain.ProductTrendingRecord) error
	ListAll(ctx context.Context) ([]domain.ProductTrendingRecord, error)
}

// SnapshotCache holds the materialized ranking. MarkDirty bumps a generation
// counter; a stored snapshot is only served while its generation is current.
type SnapshotCache interface {
	Generation(ctx context.Context) (uint64, error)
	Load(ctx context.Context) (Snapshot, bool, error)
	Store(ctx context.Context, snap Snapshot) error
	MarkDirty(ctx context.Context) error
}
