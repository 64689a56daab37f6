package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PoolOptions bounds the connection pool shared by all requests.
type PoolOptions struct {
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
}

// Connect opens the pool and pings it; ctx bounds the ping.
func Connect(ctx context.Context, url string, opts PoolOptions) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if opts.MaxConns > 0 {
		db.SetMaxOpenConns(opts.MaxConns)
	}
	// database/sql has no minimum pool size; keeping idle connections is the closest equivalent.
	if opts.MinConns > 0 {
		db.SetMaxIdleConns(opts.MinConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	return db, nil
}
