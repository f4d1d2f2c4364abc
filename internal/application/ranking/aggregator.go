package ranking

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

// Apply folds one recorded interaction into its product's counters and marks
// the snapshot dirty. Interactions that do not map to a counter, or carry no
// product, are a no-op and return (nil, nil).
func (s *Service) Apply(ctx context.Context, it domain.Interaction) (*domain.ProductTrendingRecord, error) {
	rec, err := s.ApplyTo(ctx, s.repo, it)
	if rec != nil {
		s.markDirty(ctx)
	}
	return rec, err
}

// ApplyTo writes the increment through store without touching the snapshot;
// the caller invalidates once its transaction has committed.
func (s *Service) ApplyTo(ctx context.Context, store CounterStore, it domain.Interaction) (*domain.ProductTrendingRecord, error) {
	if !it.Counted() {
		return nil, nil
	}

	inc := CounterIncrement{
		ProductID: *it.ProductID,
		Counter:   it.Type.Counter(),
		At:        it.Timestamp,
		Weights:   s.scorer.Weights(),
	}
	if it.Brand != nil {
		inc.Brand = *it.Brand
	}
	if inc.At.IsZero() {
		inc.At = s.clock.Now()
	}

	rec, err := store.IncrementCounter(ctx, inc)
	if err != nil {
		return nil, asInternal(err)
	}
	return &rec, nil
}

// Rebuild recomputes every counter from the interaction log. Running it after
// any number of incremental Applies converges on the same counters.
func (s *Service) Rebuild(ctx context.Context) (int64, error) {
	n, err := s.repo.RebuildFromLog(ctx, s.scorer.Weights())
	if err != nil {
		return 0, asInternal(err)
	}
	s.markDirty(ctx)

	zlog.Info().Int64("products", n).Msg("ranking rebuilt from interaction log")

	if s.mode == ModeSnapshot {
		if _, err := s.refresh(ctx, true); err != nil {
			return n, err
		}
	}
	return n, nil
}
