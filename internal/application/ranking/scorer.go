package ranking

import (
	"fmt"
	"math"
	"time"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

const (
	ScorerSimple  = "simple"
	ScorerDecayed = "decayed"
)

type Weights struct {
	View   float64
	Click  float64
	Search float64
}

func DefaultWeights() Weights {
	return Weights{View: 1, Click: 1, Search: 1}
}

func (w Weights) Linear(views, clicks, searches int64) float64 {
	return w.View*float64(views) + w.Click*float64(clicks) + w.Search*float64(searches)
}

// For returns the weight of a single increment of counter c.
func (w Weights) For(c domain.Counter) float64 {
	switch c {
	case domain.CounterViews:
		return w.View
	case domain.CounterClicks:
		return w.Click
	case domain.CounterSearches:
		return w.Search
	default:
		return 0
	}
}

// Scorer turns counters into a trending score.
type Scorer interface {
	Weights() Weights
	Score(rec domain.ProductTrendingRecord, now time.Time) float64
}

type ScorerConfig struct {
	Kind     string
	Weights  Weights
	HalfLife time.Duration
}

func NewScorer(cfg ScorerConfig) (Scorer, error) {
	switch cfg.Kind {
	case "", ScorerSimple:
		return LinearScorer{W: cfg.Weights}, nil
	case ScorerDecayed:
		if cfg.HalfLife <= 0 {
			return nil, fmt.Errorf("decayed scorer needs a positive half-life")
		}
		return DecayedScorer{W: cfg.Weights, HalfLife: cfg.HalfLife}, nil
	default:
		return nil, fmt.Errorf("unknown scorer %q", cfg.Kind)
	}
}

// LinearScorer: base + w_view*views + w_click*clicks + w_search*searches.
type LinearScorer struct {
	W Weights
}

func (s LinearScorer) Weights() Weights { return s.W }

func (s LinearScorer) Score(rec domain.ProductTrendingRecord, _ time.Time) float64 {
	return rec.BaseScore + s.W.Linear(rec.TotalViews, rec.TotalClicks, rec.TotalSearches)
}

// DecayedScorer halves the interaction part of the score every HalfLife since
// the last interaction. The seeded base score does not decay.
type DecayedScorer struct {
	W        Weights
	HalfLife time.Duration
}

func (s DecayedScorer) Weights() Weights { return s.W }

func (s DecayedScorer) Score(rec domain.ProductTrendingRecord, now time.Time) float64 {
	linear := s.W.Linear(rec.TotalViews, rec.TotalClicks, rec.TotalSearches)
	if rec.LastInteraction != nil {
		if age := now.Sub(*rec.LastInteraction); age > 0 {
			linear *= math.Pow(0.5, float64(age)/float64(s.HalfLife))
		}
	}
	return rec.BaseScore + linear
}
