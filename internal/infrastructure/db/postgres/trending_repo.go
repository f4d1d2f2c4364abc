package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/baechuer/wholesale-catalog/internal/application/ranking"
	"github.com/baechuer/wholesale-catalog/internal/domain"
)

const trendingCols = `product_id, brand, name, total_views, total_clicks, total_searches,
       last_interaction, trending_score, admin_score, base_score, created_at, updated_at`

// The stored trending_score is base_score plus the weighted counters, computed
// in the same statement as the increment.
const incrementCounterSQL = `
INSERT INTO product_trending AS t (
  product_id, brand, total_views, total_clicks, total_searches,
  last_interaction, trending_score, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7::float8, $6, NOW())
ON CONFLICT (product_id) DO UPDATE SET
  brand            = CASE WHEN t.brand = '' THEN EXCLUDED.brand ELSE t.brand END,
  total_views      = t.total_views + EXCLUDED.total_views,
  total_clicks     = t.total_clicks + EXCLUDED.total_clicks,
  total_searches   = t.total_searches + EXCLUDED.total_searches,
  last_interaction = GREATEST(t.last_interaction, EXCLUDED.last_interaction),
  trending_score   = t.base_score
                   + $8::float8 * (t.total_views + EXCLUDED.total_views)
                   + $9::float8 * (t.total_clicks + EXCLUDED.total_clicks)
                   + $10::float8 * (t.total_searches + EXCLUDED.total_searches),
  updated_at       = NOW()
RETURNING ` + trendingCols

// SHARE mode waits for in-flight recordings and holds off new ones until the
// rebuild commits, so every log row is counted by exactly one of the two.
const lockLogSQL = `LOCK TABLE interactions IN SHARE MODE`

const resetCountersSQL = `
UPDATE product_trending
SET total_views = 0, total_clicks = 0, total_searches = 0, last_interaction = NULL
`

const replayLogSQL = `
INSERT INTO product_trending AS t (
  product_id, brand, total_views, total_clicks, total_searches, last_interaction, created_at, updated_at
)
SELECT product_id,
       COALESCE(MAX(brand), ''),
       COUNT(*) FILTER (WHERE type = 'product_view'),
       COUNT(*) FILTER (WHERE type = 'result_click'),
       COUNT(*) FILTER (WHERE type = 'search'),
       MAX(ts),
       MIN(ts),
       NOW()
FROM interactions
WHERE product_id IS NOT NULL AND product_id <> ''
  AND type IN ('product_view', 'result_click', 'search')
GROUP BY product_id
ON CONFLICT (product_id) DO UPDATE SET
  total_views      = EXCLUDED.total_views,
  total_clicks     = EXCLUDED.total_clicks,
  total_searches   = EXCLUDED.total_searches,
  last_interaction = EXCLUDED.last_interaction
`

const rescoreSQL = `
UPDATE product_trending
SET trending_score = base_score
                   + $1::float8 * total_views
                   + $2::float8 * total_clicks
                   + $3::float8 * total_searches,
    updated_at = NOW()
`

const restoreTrendingSQL = `
INSERT INTO product_trending (` + trendingCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (product_id) DO UPDATE SET
  brand            = EXCLUDED.brand,
  name             = EXCLUDED.name,
  total_views      = EXCLUDED.total_views,
  total_clicks     = EXCLUDED.total_clicks,
  total_searches   = EXCLUDED.total_searches,
  last_interaction = EXCLUDED.last_interaction,
  trending_score   = EXCLUDED.trending_score,
  admin_score      = EXCLUDED.admin_score,
  base_score       = EXCLUDED.base_score,
  updated_at       = EXCLUDED.updated_at
`

type TrendingRepo struct {
	db *sql.DB
}

func NewTrendingRepo(db *sql.DB) *TrendingRepo {
	return &TrendingRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanTrending(s rowScanner) (domain.ProductTrendingRecord, error) {
	var (
		rec  domain.ProductTrendingRecord
		last sql.NullTime
	)
	err := s.Scan(
		&rec.ProductID, &rec.Brand, &rec.Name,
		&rec.TotalViews, &rec.TotalClicks, &rec.TotalSearches,
		&last, &rec.TrendingScore, &rec.AdminScore, &rec.BaseScore,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return domain.ProductTrendingRecord{}, err
	}
	if last.Valid {
		t := last.Time.UTC()
		rec.LastInteraction = &t
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

func counterDeltas(c domain.Counter) (views, clicks, searches int64) {
	switch c {
	case domain.CounterViews:
		return 1, 0, 0
	case domain.CounterClicks:
		return 0, 1, 0
	case domain.CounterSearches:
		return 0, 0, 1
	}
	return 0, 0, 0
}

func (r *TrendingRepo) IncrementCounter(ctx context.Context, inc ranking.CounterIncrement) (domain.ProductTrendingRecord, error) {
	return incrementCounter(ctx, r.db, inc)
}

func incrementCounter(ctx context.Context, q queryRower, inc ranking.CounterIncrement) (domain.ProductTrendingRecord, error) {
	if inc.ProductID == "" {
		return domain.ProductTrendingRecord{}, domain.ErrMissingField("productId")
	}
	v, c, s := counterDeltas(inc.Counter)
	if v+c+s == 0 {
		return domain.ProductTrendingRecord{}, domain.ErrInvalidField("counter", "unknown counter")
	}

	rec, err := scanTrending(q.QueryRowContext(ctx, incrementCounterSQL,
		inc.ProductID, inc.Brand, v, c, s, inc.At,
		inc.Weights.For(inc.Counter),
		inc.Weights.View, inc.Weights.Click, inc.Weights.Search,
	))
	if err != nil {
		return domain.ProductTrendingRecord{}, storageErr(err)
	}
	return rec, nil
}

// RebuildFromLog recomputes every counter from the interaction log in one
// transaction. Products missing from the log end up with zero counters.
// Recordings block until it commits.
func (r *TrendingRepo) RebuildFromLog(ctx context.Context, w ranking.Weights) (int64, error) {
	var touched int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, lockLogSQL); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, resetCountersSQL); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, replayLogSQL)
		if err != nil {
			return err
		}
		touched, _ = res.RowsAffected()
		_, err = tx.ExecContext(ctx, rescoreSQL, w.View, w.Click, w.Search)
		return err
	})
	if err != nil {
		return 0, storageErr(err)
	}
	return touched, nil
}

func (r *TrendingRepo) SetAdminScore(ctx context.Context, productID string, score int) error {
	const q = `
UPDATE product_trending
SET admin_score = $2, updated_at = NOW()
WHERE product_id = $1
`
	res, err := r.db.ExecContext(ctx, q, productID, score)
	if err != nil {
		return storageErr(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrProductNotFound(productID)
	}
	return nil
}

func (r *TrendingRepo) Insert(ctx context.Context, rec domain.ProductTrendingRecord) error {
	const q = `
INSERT INTO product_trending (
  product_id, brand, name, trending_score, admin_score, base_score, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ProductID, rec.Brand, rec.Name,
		rec.TrendingScore, rec.AdminScore, rec.BaseScore,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrProductExists(rec.ProductID)
		}
		return storageErr(err)
	}
	return nil
}

func (r *TrendingRepo) ListAll(ctx context.Context) ([]domain.ProductTrendingRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+trendingCols+` FROM product_trending ORDER BY product_id`)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []domain.ProductTrendingRecord
	for rows.Next() {
		rec, err := scanTrending(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

// Restore upserts full records from a backup. Rows not in recs are kept.
func (r *TrendingRepo) Restore(ctx context.Context, recs []domain.ProductTrendingRecord) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, restoreTrendingSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, rec := range recs {
			if rec.ProductID == "" {
				return domain.ErrMissingField("productId")
			}
			var last any
			if rec.LastInteraction != nil {
				last = *rec.LastInteraction
			}
			created := rec.CreatedAt
			if created.IsZero() {
				created = time.Now().UTC()
			}
			updated := rec.UpdatedAt
			if updated.IsZero() {
				updated = created
			}
			if _, err := stmt.ExecContext(ctx,
				rec.ProductID, rec.Brand, rec.Name,
				rec.TotalViews, rec.TotalClicks, rec.TotalSearches,
				last, rec.TrendingScore, rec.AdminScore, rec.BaseScore,
				created, updated,
			); err != nil {
				return err
			}
		}
		return nil
	})
	return storageErr(err)
}
