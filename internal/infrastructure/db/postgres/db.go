package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	zlog "github.com/rs/zerolog/log"
)

type PoolConfig struct {
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxIdle  time.Duration
}

// NewDB opens a pool on driver "pgx" (jackc/pgx stdlib) or "postgres" (lib/pq)
// and pings it before returning.
func NewDB(driver, dsn string, pool PoolConfig, debug bool) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty DB DSN")
	}
	if driver == "" {
		driver = "pgx"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if pool.MaxOpenConns <= 0 {
		pool.MaxOpenConns = 20
	}
	if pool.MaxIdleConns <= 0 {
		pool.MaxIdleConns = 10
	}
	if pool.ConnMaxIdle <= 0 {
		pool.ConnMaxIdle = 5 * time.Minute
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxIdleTime(pool.ConnMaxIdle)
	db.SetConnMaxLifetime(60 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if debug {
		var who, dbname, ver string
		_ = db.QueryRowContext(ctx, "SELECT current_user").Scan(&who)
		_ = db.QueryRowContext(ctx, "SELECT current_database()").Scan(&dbname)
		_ = db.QueryRowContext(ctx, "SHOW server_version").Scan(&ver)

		zlog.Debug().
			Str("driver", driver).
			Str("user", who).
			Str("db", dbname).
			Str("version", ver).
			Msg("db connected")
	}

	return db, nil
}
