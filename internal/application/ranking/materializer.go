package ranking

import (
	"context"
	"sort"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/application/eventing"
	"github.com/baechuer/wholesale-catalog/internal/domain"
)

// Rank scores every record and orders them by total score descending, ties by
// product id ascending. Ranks run 1..N with no gaps.
func Rank(recs []domain.ProductTrendingRecord, scorer Scorer, now time.Time) []domain.RankedProduct {
	out := make([]domain.RankedProduct, len(recs))
	for i, rec := range recs {
		rec.TrendingScore = scorer.Score(rec, now)
		out[i] = domain.RankedProduct{
			ProductTrendingRecord: rec,
			TotalScore:            rec.TrendingScore + float64(rec.AdminScore),
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].ProductID < out[j].ProductID
	})

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// GetRanked returns the ranked view. In snapshot mode the cached snapshot is
// served unless it is missing, dirty or forceRefresh is set.
func (s *Service) GetRanked(ctx context.Context, limit int, forceRefresh bool) (domain.RankedView, error) {
	var (
		snap Snapshot
		err  error
	)

	switch {
	case s.mode == ModeLive:
		snap, err = s.build(ctx)
	case forceRefresh:
		snap, err = s.refresh(ctx, true)
	default:
		snap, err = s.cached(ctx)
	}
	if err != nil {
		return domain.RankedView{}, err
	}
	return snap.View(limit), nil
}

// Refresh rebuilds the snapshot. It is a no-op in live mode.
func (s *Service) Refresh(ctx context.Context) error {
	if s.mode == ModeLive {
		return nil
	}
	_, err := s.refresh(ctx, true)
	return err
}

func (s *Service) cached(ctx context.Context) (Snapshot, error) {
	snap, ok, err := s.cache.Load(ctx)
	if err != nil {
		zlog.Warn().Err(err).Msg("ranking snapshot load failed; computing live")
		return s.build(ctx)
	}
	if ok {
		return snap, nil
	}
	return s.refresh(ctx, false)
}

// refresh rebuilds under refreshMu. Without force, a snapshot already rebuilt
// for the current generation by a concurrent caller is reused. The refresh
// event goes out after the lock is released.
func (s *Service) refresh(ctx context.Context, force bool) (Snapshot, error) {
	snap, rebuilt, err := s.rebuild(ctx, force)
	if err != nil || !rebuilt {
		return snap, err
	}

	eventing.Emit(ctx, s.pub, domain.EventRankingRefreshed, map[string]any{
		"totalProducts": len(snap.Items),
		"generation":    snap.Generation,
	}, s.clock.Now())

	return snap, nil
}

func (s *Service) rebuild(ctx context.Context, force bool) (Snapshot, bool, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	gen, err := s.cache.Generation(ctx)
	if err != nil {
		zlog.Warn().Err(err).Msg("ranking snapshot generation unavailable; serving uncached")
		snap, err := s.build(ctx)
		return snap, false, err
	}

	if !force {
		if snap, ok, err := s.cache.Load(ctx); err == nil && ok && snap.Generation == gen {
			return snap, false, nil
		}
	}

	snap, err := s.build(ctx)
	if err != nil {
		return Snapshot{}, false, err
	}
	snap.Generation = gen

	if err := s.cache.Store(ctx, snap); err != nil {
		zlog.Warn().Err(err).Msg("ranking snapshot store failed")
	}
	return snap, true, nil
}

func (s *Service) build(ctx context.Context) (Snapshot, error) {
	recs, err := s.repo.ListAll(ctx)
	if err != nil {
		return Snapshot{}, asInternal(err)
	}

	now := s.clock.Now()
	snap := Snapshot{
		Items:       Rank(recs, s.scorer, now),
		LastUpdated: now,
	}

	// newest record update; build time only when there are no records
	var latest time.Time
	for _, r := range recs {
		if r.UpdatedAt.After(latest) {
			latest = r.UpdatedAt
		}
	}
	if !latest.IsZero() {
		snap.LastUpdated = latest
	}
	return snap, nil
}
