package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/baechuer/wholesale-catalog/internal/application/ranking"
)

const (
	generationKey = "ranking:generation"
	snapshotKey   = "ranking:snapshot"
)

// SnapshotCache shares the ranked snapshot between instances. The generation
// counter is a plain INCR key so every instance sees the same dirty state.
type SnapshotCache struct {
	c *Client
}

func NewSnapshotCache(c *Client) *SnapshotCache {
	return &SnapshotCache{c: c}
}

func (s *SnapshotCache) Generation(ctx context.Context) (uint64, error) {
	n, err := s.c.rdb.Get(ctx, generationKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (s *SnapshotCache) Load(ctx context.Context) (ranking.Snapshot, bool, error) {
	gen, err := s.Generation(ctx)
	if err != nil {
		return ranking.Snapshot{}, false, err
	}
	var snap ranking.Snapshot
	found, err := s.c.Get(ctx, snapshotKey, &snap)
	if err != nil || !found {
		return ranking.Snapshot{}, false, err
	}
	if snap.Generation != gen {
		return ranking.Snapshot{}, false, nil
	}
	return snap, true, nil
}

func (s *SnapshotCache) Store(ctx context.Context, snap ranking.Snapshot) error {
	return s.c.Set(ctx, snapshotKey, snap, 0)
}

func (s *SnapshotCache) MarkDirty(ctx context.Context) error {
	return s.c.rdb.Incr(ctx, generationKey).Err()
}
