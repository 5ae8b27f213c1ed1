// Package postgres persists the scoring ledger and the processed-transaction
// set. All ledger mutations are single-statement upsert-increments so
// concurrent ingestion loops never read-modify-write.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"xianScore/internal/model"
)

// Store provides Postgres persistence for the monitor.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects a pool for the given DSN.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the monitor tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			address TEXT PRIMARY KEY,
			score BIGINT NOT NULL DEFAULT 0,
			value DOUBLE PRECISION NOT NULL DEFAULT 0,
			value_sent DOUBLE PRECISION NOT NULL DEFAULT 0,
			exchange_volume DOUBLE PRECISION NOT NULL DEFAULT 0,
			exchange_count BIGINT NOT NULL DEFAULT 0,
			stake_duration_sec BIGINT NOT NULL DEFAULT 0,
			stake_active BOOLEAN NOT NULL DEFAULT FALSE,
			stake_last_update BIGINT,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS processed (
			tx_hash TEXT PRIMARY KEY,
			seen_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Has reports whether the hash was marked processed.
func (s *Store) Has(ctx context.Context, txHash string) (bool, error) {
	var exists bool
	row := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM processed WHERE tx_hash = $1)`, txHash)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Mark records the hash. Duplicate inserts are a silent success.
func (s *Store) Mark(ctx context.Context, txHash string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO processed (tx_hash) VALUES ($1)
		ON CONFLICT (tx_hash) DO NOTHING
	`, txHash)
	return err
}

// AddScore increments score and the score-linked value accumulator.
func (s *Store) AddScore(ctx context.Context, address string, points int64, value float64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (address, score, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (address) DO UPDATE SET
			score = accounts.score + EXCLUDED.score,
			value = accounts.value + EXCLUDED.value,
			updated_at = now()
	`, address, points, value)
	return err
}

// AddExchangeVolume increments exchange volume and count.
func (s *Store) AddExchangeVolume(ctx context.Context, address string, volume float64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (address, exchange_volume, exchange_count, updated_at)
		VALUES ($1, $2, 1, now())
		ON CONFLICT (address) DO UPDATE SET
			exchange_volume = accounts.exchange_volume + EXCLUDED.exchange_volume,
			exchange_count = accounts.exchange_count + 1,
			updated_at = now()
	`, address, volume)
	return err
}

// AddValueSent increments the native-transfer value accumulator.
func (s *Store) AddValueSent(ctx context.Context, address string, value float64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (address, value_sent, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (address) DO UPDATE SET
			value_sent = accounts.value_sent + EXCLUDED.value_sent,
			updated_at = now()
	`, address, value)
	return err
}

// StakeStartOrRefresh opens the stake interval. An already-open interval
// accrues its elapsed seconds first, clamped at zero for out-of-order
// timestamps.
func (s *Store) StakeStartOrRefresh(ctx context.Context, address string, now int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (address, stake_active, stake_last_update, updated_at)
		VALUES ($1, TRUE, $2, now())
		ON CONFLICT (address) DO UPDATE SET
			stake_duration_sec = accounts.stake_duration_sec + CASE
				WHEN accounts.stake_active
					THEN GREATEST(0, $2 - COALESCE(accounts.stake_last_update, $2))
				ELSE 0
			END,
			stake_active = TRUE,
			stake_last_update = $2,
			updated_at = now()
	`, address, now)
	return err
}

// StakeStop accrues any open interval and closes it.
func (s *Store) StakeStop(ctx context.Context, address string, now int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (address, stake_active, stake_last_update, updated_at)
		VALUES ($1, FALSE, $2, now())
		ON CONFLICT (address) DO UPDATE SET
			stake_duration_sec = accounts.stake_duration_sec + CASE
				WHEN accounts.stake_active
					THEN GREATEST(0, $2 - COALESCE(accounts.stake_last_update, $2))
				ELSE 0
			END,
			stake_active = FALSE,
			stake_last_update = $2,
			updated_at = now()
	`, address, now)
	return err
}

// Account returns the current state for an address.
func (s *Store) Account(ctx context.Context, address string) (model.Account, bool, error) {
	acct := model.Account{Address: address}
	row := s.pool.QueryRow(ctx, `
		SELECT score, value, value_sent, exchange_volume, exchange_count,
			stake_duration_sec, stake_active, stake_last_update, updated_at
		FROM accounts WHERE address = $1
	`, address)
	err := row.Scan(
		&acct.Score,
		&acct.Value,
		&acct.ValueSent,
		&acct.ExchangeVolume,
		&acct.ExchangeCount,
		&acct.StakeDurationSec,
		&acct.StakeActive,
		&acct.StakeLastUpdate,
		&acct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, false, nil
		}
		return model.Account{}, false, err
	}
	return acct, true, nil
}
