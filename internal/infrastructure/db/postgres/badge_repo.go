package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

const badgeCols = `id, product_id, position, duration_hours, start_time, end_time, is_active, created_by`

type BadgeRepo struct {
	db *sql.DB
}

func NewBadgeRepo(db *sql.DB) *BadgeRepo {
	return &BadgeRepo{db: db}
}

func scanBadge(s rowScanner) (domain.FireBadge, error) {
	var b domain.FireBadge
	err := s.Scan(&b.ID, &b.ProductID, &b.Position, &b.DurationHours,
		&b.StartTime, &b.EndTime, &b.IsActive, &b.CreatedBy)
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	return b, err
}

// Occupy retires whatever badge holds b.Position and inserts b, atomically.
// A concurrent assignment to the same slot surfaces as ErrPositionOccupied.
func (r *BadgeRepo) Occupy(ctx context.Context, b domain.FireBadge) (domain.FireBadge, error) {
	const retire = `
UPDATE manual_fire_badges SET is_active = FALSE
WHERE position = $1 AND is_active
`
	const insert = `
INSERT INTO manual_fire_badges (` + badgeCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + badgeCols

	var out domain.FireBadge
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, retire, b.Position); err != nil {
			return err
		}
		var err error
		out, err = scanBadge(tx.QueryRowContext(ctx, insert,
			b.ID, b.ProductID, b.Position, b.DurationHours,
			b.StartTime, b.EndTime, b.IsActive, b.CreatedBy,
		))
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.FireBadge{}, domain.ErrPositionOccupied(b.Position)
		}
		return domain.FireBadge{}, storageErr(err)
	}
	return out, nil
}

func (r *BadgeRepo) list(ctx context.Context, q string, args ...any) ([]domain.FireBadge, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	out := []domain.FireBadge{}
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

func (r *BadgeRepo) ListActive(ctx context.Context, now time.Time) ([]domain.FireBadge, error) {
	return r.list(ctx, `SELECT `+badgeCols+` FROM manual_fire_badges
WHERE is_active AND end_time > $1
ORDER BY position`, now)
}

func (r *BadgeRepo) ListAll(ctx context.Context) ([]domain.FireBadge, error) {
	return r.list(ctx, `SELECT `+badgeCols+` FROM manual_fire_badges ORDER BY start_time, id`)
}

func (r *BadgeRepo) Deactivate(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrBadgeNotFound()
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE manual_fire_badges SET is_active = FALSE WHERE id = $1 AND is_active`, id)
	if err != nil {
		return storageErr(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrBadgeNotFound()
	}
	return nil
}

func (r *BadgeRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE manual_fire_badges SET is_active = FALSE WHERE is_active AND end_time <= $1`, now)
	if err != nil {
		return 0, storageErr(err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Restore retires every live badge, then upserts the backed-up set by id.
func (r *BadgeRepo) Restore(ctx context.Context, badges []domain.FireBadge) error {
	const upsert = `
INSERT INTO manual_fire_badges (` + badgeCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
  product_id     = EXCLUDED.product_id,
  position       = EXCLUDED.position,
  duration_hours = EXCLUDED.duration_hours,
  start_time     = EXCLUDED.start_time,
  end_time       = EXCLUDED.end_time,
  is_active      = EXCLUDED.is_active,
  created_by     = EXCLUDED.created_by
`
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE manual_fire_badges SET is_active = FALSE WHERE is_active`); err != nil {
			return err
		}
		for _, b := range badges {
			if _, err := tx.ExecContext(ctx, upsert,
				b.ID, b.ProductID, b.Position, b.DurationHours,
				b.StartTime, b.EndTime, b.IsActive, b.CreatedBy,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && isUniqueViolation(err) {
		return domain.ErrInvalidField("badges", "backup holds two active badges on one position")
	}
	return storageErr(err)
}
