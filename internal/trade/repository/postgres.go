package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tvhook/internal/trade"
)

// schemaLockKey serializes concurrent EnsureSchema calls across processes.
const schemaLockKey = 7265616376

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tv_trades (
		id BIGSERIAL PRIMARY KEY,
		received_at TIMESTAMPTZ NOT NULL,
		strategy TEXT,
		action TEXT,
		side TEXT,
		symbol TEXT,
		time_ms BIGINT,
		price DOUBLE PRECISION,
		qty DOUBLE PRECISION,
		sl DOUBLE PRECISION,
		tp DOUBLE PRECISION,
		equity DOUBLE PRECISION,
		reason TEXT,
		raw JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tv_trades_symbol_time ON tv_trades(symbol, time_ms)`,
	`CREATE INDEX IF NOT EXISTS idx_tv_trades_strategy ON tv_trades(strategy)`,
}

const insertEventQuery = `
	INSERT INTO tv_trades (
		received_at, strategy, action, side, symbol, time_ms,
		price, qty, sl, tp, equity, reason, raw
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb)
	RETURNING id
`

type PostgresEventRepository struct {
	DB *sqlx.DB
}

func NewPostgresEventRepository(db *sqlx.DB) *PostgresEventRepository {
	return &PostgresEventRepository{DB: db}
}

// EnsureSchema creates the tv_trades table and its indexes if they are missing.
// Safe to run from several processes at once.
func (r *PostgresEventRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Insert writes one event and sets its ID.
func (r *PostgresEventRepository) Insert(ctx context.Context, ev *trade.Event) error {
	err := r.DB.QueryRowxContext(ctx, insertEventQuery,
		ev.ReceivedAt, ev.Strategy, ev.Action, ev.Side, ev.Symbol, ev.TimeMs,
		ev.Price, ev.Qty, ev.StopLoss, ev.TakeProfit, ev.Equity, ev.Reason,
		string(ev.Raw),
	).Scan(&ev.ID)
	if err != nil {
		return fmt.Errorf("%w: insert event: %w", trade.ErrStorageWrite, err)
	}
	return nil
}

func (r *PostgresEventRepository) Close() error {
	return r.DB.Close()
}
