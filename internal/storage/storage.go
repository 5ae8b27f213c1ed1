// Package storage defines the persistence contracts for the scoring
// pipeline.
package storage

import (
	"context"

	"xianScore/internal/model"
)

// DedupStore records processed transaction hashes. Mark is idempotent:
// re-inserting a known hash is a silent success, so redelivery across a
// reconnect never corrupts state.
type DedupStore interface {
	Has(ctx context.Context, txHash string) (bool, error)
	Mark(ctx context.Context, txHash string) error
}

// LedgerStore holds the per-address reputation accumulators. Every operation
// creates the account with zero defaults when absent and applies a per-key
// atomic increment, so multiple ingestion loops can share one store.
type LedgerStore interface {
	// AddScore increments the score and the score-linked value accumulator.
	AddScore(ctx context.Context, address string, points int64, value float64) error
	// AddExchangeVolume increments exchange volume and bumps the exchange count.
	AddExchangeVolume(ctx context.Context, address string, volume float64) error
	// AddValueSent increments the native-transfer value accumulator.
	AddValueSent(ctx context.Context, address string, value float64) error
	// StakeStartOrRefresh opens the stake interval, accruing elapsed time
	// first when one is already open.
	StakeStartOrRefresh(ctx context.Context, address string, now int64) error
	// StakeStop accrues any open interval and closes it.
	StakeStop(ctx context.Context, address string, now int64) error
	// Account returns the current state for an address.
	Account(ctx context.Context, address string) (model.Account, bool, error)
}
