package ranking

import (
	"context"
	"sync"
	"time"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

// Snapshot is a fully ranked list built at one cache generation.
type Snapshot struct {
	Generation  uint64                 `json:"generation"`
	Items       []domain.RankedProduct `json:"items"`
	LastUpdated time.Time              `json:"lastUpdated"`
}

// View returns the first limit entries (all when limit <= 0) as a fresh slice.
func (s Snapshot) View(limit int) domain.RankedView {
	n := len(s.Items)
	if limit > 0 && limit < n {
		n = limit
	}
	items := make([]domain.RankedProduct, n)
	copy(items, s.Items[:n])

	return domain.RankedView{
		Trending:      items,
		TotalProducts: len(s.Items),
		LastUpdated:   s.LastUpdated,
	}
}

// MemorySnapshotCache keeps the snapshot in process.
type MemorySnapshotCache struct {
	mu   sync.RWMutex
	gen  uint64
	snap *Snapshot
}

func NewMemorySnapshotCache() *MemorySnapshotCache {
	return &MemorySnapshotCache{}
}

func (c *MemorySnapshotCache) Generation(context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen, nil
}

func (c *MemorySnapshotCache) Load(context.Context) (Snapshot, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil || c.snap.Generation != c.gen {
		return Snapshot{}, false, nil
	}
	return *c.snap, true, nil
}

func (c *MemorySnapshotCache) Store(_ context.Context, snap Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = &snap
	return nil
}

func (c *MemorySnapshotCache) MarkDirty(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return nil
}
