package ranking

import (
	"context"
	"errors"
	"sync"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/application/eventing"
	"github.com/baechuer/wholesale-catalog/internal/domain"
)

type Mode string

const (
	ModeLive     Mode = "live"
	ModeSnapshot Mode = "snapshot"
)

type Config struct {
	Mode Mode
}

// Service owns the ranking core: counter aggregation, admin overrides and the
// ranked view.
type Service struct {
	repo   TrendingRepo
	scorer Scorer
	cache  SnapshotCache
	pub    eventing.Publisher
	clock  domain.Clock
	mode   Mode

	// serialises snapshot rebuilds so concurrent dirty reads build once
	refreshMu sync.Mutex
}

func NewService(repo TrendingRepo, scorer Scorer, cache SnapshotCache, pub eventing.Publisher, clock domain.Clock, cfg Config) *Service {
	if scorer == nil {
		scorer = LinearScorer{W: DefaultWeights()}
	}
	if cache == nil {
		cache = NewMemorySnapshotCache()
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	mode := cfg.Mode
	if mode == "" {
		mode = ModeSnapshot
	}
	return &Service{
		repo:   repo,
		scorer: scorer,
		cache:  cache,
		pub:    pub,
		clock:  clock,
		mode:   mode,
	}
}

func (s *Service) Mode() Mode { return s.mode }

// Invalidate marks the snapshot dirty; used after out-of-band writes such as restores.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.MarkDirty(ctx)
}

func (s *Service) markDirty(ctx context.Context) {
	if err := s.cache.MarkDirty(ctx); err != nil {
		zlog.Warn().Err(err).Msg("ranking snapshot mark dirty failed")
	}
}

// asInternal keeps domain errors and wraps anything else.
func asInternal(err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.ErrInternal(err)
}
