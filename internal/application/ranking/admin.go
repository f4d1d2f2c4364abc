package ranking

import (
	"context"
	"math"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

type SetAdminScoreCmd struct {
	ProductID string
	Score     int
	Actor     string
}

// SetAdminScore writes only the admin bonus; counters and the trending score
// are never touched.
func (s *Service) SetAdminScore(ctx context.Context, cmd SetAdminScoreCmd) error {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return domain.ErrMissingField("productId")
	}
	if cmd.Score < 0 {
		return domain.ErrInvalidField("score", "must be >= 0")
	}

	if err := s.repo.SetAdminScore(ctx, productID, cmd.Score); err != nil {
		return asInternal(err)
	}
	s.markDirty(ctx)

	zlog.Info().
		Bool("audit", true).
		Str("action", "ranking.set_admin_score").
		Str("actor", cmd.Actor).
		Str("product_id", productID).
		Int("score", cmd.Score).
		Msg("audit")
	return nil
}

// AddProductCmd seeds a product by hand. SeedTrendingScore is stored as the
// base score, so it is part of the trending score and survives rebuilds.
// SeedAdminScore becomes the admin bonus.
type AddProductCmd struct {
	ProductID         string
	Name              string
	Brand             string
	SeedTrendingScore float64
	SeedAdminScore    int
	Actor             string
}

func (s *Service) AddProduct(ctx context.Context, cmd AddProductCmd) (domain.ProductTrendingRecord, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	name := strings.TrimSpace(cmd.Name)
	if productID == "" {
		return domain.ProductTrendingRecord{}, domain.ErrMissingField("productId")
	}
	if name == "" {
		return domain.ProductTrendingRecord{}, domain.ErrMissingField("productName")
	}
	if cmd.SeedTrendingScore < 0 || math.IsNaN(cmd.SeedTrendingScore) || math.IsInf(cmd.SeedTrendingScore, 0) {
		return domain.ProductTrendingRecord{}, domain.ErrInvalidField("seedTrendingScore", "must be a finite number >= 0")
	}
	if cmd.SeedAdminScore < 0 {
		return domain.ProductTrendingRecord{}, domain.ErrInvalidField("seedAdminScore", "must be >= 0")
	}

	now := s.clock.Now()
	rec := domain.ProductTrendingRecord{
		ProductID:     productID,
		Brand:         strings.TrimSpace(cmd.Brand),
		Name:          name,
		TrendingScore: cmd.SeedTrendingScore,
		BaseScore:     cmd.SeedTrendingScore,
		AdminScore:    cmd.SeedAdminScore,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		return domain.ProductTrendingRecord{}, asInternal(err)
	}
	s.markDirty(ctx)

	zlog.Info().
		Bool("audit", true).
		Str("action", "ranking.add_product").
		Str("actor", cmd.Actor).
		Str("product_id", productID).
		Float64("seed_trending_score", cmd.SeedTrendingScore).
		Int("seed_admin_score", cmd.SeedAdminScore).
		Msg("audit")
	return rec, nil
}
