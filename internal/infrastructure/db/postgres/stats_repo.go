package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

// StatsRepo answers the dashboard's read-only aggregate queries.
type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

func (r *StatsRepo) count(ctx context.Context, q string, args ...any) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}

func (r *StatsRepo) CountInteractions(ctx context.Context, since time.Time) (int64, error) {
	if since.IsZero() {
		return r.count(ctx, `SELECT COUNT(*) FROM interactions`)
	}
	return r.count(ctx, `SELECT COUNT(*) FROM interactions WHERE ts >= $1`, since)
}

func (r *StatsRepo) CountUniqueSessions(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, `SELECT COUNT(DISTINCT session_id) FROM interactions WHERE ts >= $1`, since)
}

func (r *StatsRepo) CountTrackedProducts(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM product_trending`)
}

func (r *StatsRepo) CountActiveBadges(ctx context.Context, now time.Time) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM manual_fire_badges WHERE is_active AND end_time > $1`, now)
}

func (r *StatsRepo) TopSearchTerms(ctx context.Context, since time.Time, limit int) ([]domain.SearchTermCount, error) {
	const q = `
SELECT LOWER(search_term) AS term, COUNT(*) AS n
FROM interactions
WHERE type = 'search' AND search_term IS NOT NULL AND ts >= $1
GROUP BY LOWER(search_term)
ORDER BY n DESC, term ASC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, since, limit)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	out := []domain.SearchTermCount{}
	for rows.Next() {
		var tc domain.SearchTermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, storageErr(err)
		}
		out = append(out, tc)
	}
	return out, storageErr(rows.Err())
}
