package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/baechuer/wholesale-catalog/internal/application/ranking"
	"github.com/baechuer/wholesale-catalog/internal/application/tracking"
	"github.com/baechuer/wholesale-catalog/internal/domain"
)

type InteractionRepo struct {
	db *sql.DB
}

func NewInteractionRepo(db *sql.DB) *InteractionRepo {
	return &InteractionRepo{db: db}
}

// WithTx runs fn in one transaction. The log row and the counter increment
// made through tx commit or roll back together.
func (r *InteractionRepo) WithTx(ctx context.Context, fn func(tx tracking.RecordTx) error) error {
	return storageErr(withTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&recordTx{tx: tx})
	}))
}

type recordTx struct {
	tx *sql.Tx
}

func (t *recordTx) Append(ctx context.Context, it domain.Interaction) (domain.Interaction, error) {
	return appendInteraction(ctx, t.tx, it)
}

func (t *recordTx) IncrementCounter(ctx context.Context, inc ranking.CounterIncrement) (domain.ProductTrendingRecord, error) {
	return incrementCounter(ctx, t.tx, inc)
}

// appendInteraction inserts one log row. Optional fields that are nil are left
// out of the column list so the database defaults apply.
func appendInteraction(ctx context.Context, q queryRower, it domain.Interaction) (domain.Interaction, error) {
	cols := []string{"id", "type", "session_id", "ts"}
	args := []any{it.ID, string(it.Type), it.SessionID, it.Timestamp}

	if it.ProductID != nil {
		cols = append(cols, "product_id")
		args = append(args, *it.ProductID)
	}
	if it.Brand != nil {
		cols = append(cols, "brand")
		args = append(args, *it.Brand)
	}
	if it.SearchTerm != nil {
		cols = append(cols, "search_term")
		args = append(args, *it.SearchTerm)
	}
	if len(it.Metadata) > 0 {
		b, err := json.Marshal(it.Metadata)
		if err != nil {
			return domain.Interaction{}, domain.ErrInvalidField("metadata", "not serialisable")
		}
		cols = append(cols, "metadata")
		args = append(args, string(b))
	}

	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}

	stmt := "INSERT INTO interactions (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.Join(ph, ", ") + ") RETURNING id, ts"

	if err := q.QueryRowContext(ctx, stmt, args...).Scan(&it.ID, &it.Timestamp); err != nil {
		return domain.Interaction{}, storageErr(err)
	}
	it.Timestamp = it.Timestamp.UTC()
	return it, nil
}
