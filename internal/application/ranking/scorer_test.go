package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

func TestNewScorer(t *testing.T) {
	s, err := NewScorer(ScorerConfig{Kind: "", Weights: DefaultWeights()})
	require.NoError(t, err)
	assert.IsType(t, LinearScorer{}, s)

	s, err = NewScorer(ScorerConfig{Kind: ScorerDecayed, Weights: DefaultWeights(), HalfLife: time.Hour})
	require.NoError(t, err)
	assert.IsType(t, DecayedScorer{}, s)

	_, err = NewScorer(ScorerConfig{Kind: ScorerDecayed})
	assert.Error(t, err)

	_, err = NewScorer(ScorerConfig{Kind: "neural"})
	assert.Error(t, err)
}

func TestLinearScorer_DefaultWeightsIsPlainSum(t *testing.T) {
	s := LinearScorer{W: DefaultWeights()}
	rec := domain.ProductTrendingRecord{TotalViews: 4, TotalClicks: 2, TotalSearches: 1, BaseScore: 0.5}

	assert.Equal(t, 7.5, s.Score(rec, time.Now()))
}

func TestDecayedScorer_HalvesEveryHalfLife(t *testing.T) {
	s := DecayedScorer{W: Weights{View: 1, Click: 2, Search: 3}, HalfLife: 24 * time.Hour}
	last := t0
	rec := domain.ProductTrendingRecord{TotalViews: 2, TotalClicks: 1, TotalSearches: 2, BaseScore: 1, LastInteraction: &last}
	// linear part = 2 + 2 + 6 = 10

	assert.InDelta(t, 11.0, s.Score(rec, t0), 1e-9)
	assert.InDelta(t, 6.0, s.Score(rec, t0.Add(24*time.Hour)), 1e-9)
	assert.InDelta(t, 3.5, s.Score(rec, t0.Add(48*time.Hour)), 1e-9)

	// clock skew never boosts a score
	assert.InDelta(t, 11.0, s.Score(rec, t0.Add(-time.Hour)), 1e-9)

	rec.LastInteraction = nil
	assert.InDelta(t, 11.0, s.Score(rec, t0.Add(48*time.Hour)), 1e-9)
}

func TestWeights_For(t *testing.T) {
	w := Weights{View: 1, Click: 2, Search: 3}
	assert.Equal(t, 1.0, w.For(domain.CounterViews))
	assert.Equal(t, 2.0, w.For(domain.CounterClicks))
	assert.Equal(t, 3.0, w.For(domain.CounterSearches))
	assert.Equal(t, 0.0, w.For(domain.CounterNone))
}

func TestRank_UsesScorerAndTotals(t *testing.T) {
	last := t0
	recs := []domain.ProductTrendingRecord{
		{ProductID: "b", TotalViews: 1, AdminScore: 5, LastInteraction: &last},
		{ProductID: "a", TotalViews: 6, LastInteraction: &last},
		{ProductID: "c", TotalViews: 3, AdminScore: 3, LastInteraction: &last},
	}

	out := Rank(recs, LinearScorer{W: DefaultWeights()}, t0)
	require.Len(t, out, 3)

	// a=6, b=6, c=6: all tied, product id decides
	assert.Equal(t, "a", out[0].ProductID)
	assert.Equal(t, "b", out[1].ProductID)
	assert.Equal(t, "c", out[2].ProductID)
	for i, p := range out {
		assert.Equal(t, i+1, p.Rank)
		assert.Equal(t, 6.0, p.TotalScore)
	}

	assert.Empty(t, Rank(nil, LinearScorer{W: DefaultWeights()}, t0))
}

func TestSnapshotView_CopiesItems(t *testing.T) {
	snap := Snapshot{Items: []domain.RankedProduct{{Rank: 1}, {Rank: 2}}}

	v := snap.View(1)
	v.Trending[0].Rank = 99

	assert.Equal(t, 1, snap.Items[0].Rank)
	assert.Equal(t, 2, v.TotalProducts)
}
