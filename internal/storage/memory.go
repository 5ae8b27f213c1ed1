package storage

import (
	"context"
	"sync"
	"time"

	"xianScore/internal/model"
)

// MemoryStore keeps the dedup set and scoring ledger in process memory. It
// backs tests and local runs without Postgres.
type MemoryStore struct {
	mu        sync.Mutex
	processed map[string]time.Time
	accounts  map[string]*model.Account
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		processed: make(map[string]time.Time),
		accounts:  make(map[string]*model.Account),
	}
}

// Has reports whether the hash was marked processed.
func (s *MemoryStore) Has(_ context.Context, txHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processed[txHash]
	return ok, nil
}

// Mark records the hash; marking twice is a no-op.
func (s *MemoryStore) Mark(_ context.Context, txHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.processed[txHash]; !ok {
		s.processed[txHash] = time.Now().UTC()
	}
	return nil
}

// account returns the entry for address, creating it with zero defaults.
// Callers must hold the lock.
func (s *MemoryStore) account(address string) *model.Account {
	acct, ok := s.accounts[address]
	if !ok {
		acct = &model.Account{Address: address}
		s.accounts[address] = acct
	}
	return acct
}

// AddScore increments score and the score-linked value accumulator.
func (s *MemoryStore) AddScore(_ context.Context, address string, points int64, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.account(address)
	acct.Score += points
	acct.Value += value
	acct.UpdatedAt = time.Now().UTC()
	return nil
}

// AddExchangeVolume increments exchange volume and count.
func (s *MemoryStore) AddExchangeVolume(_ context.Context, address string, volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.account(address)
	acct.ExchangeVolume += volume
	acct.ExchangeCount++
	acct.UpdatedAt = time.Now().UTC()
	return nil
}

// AddValueSent increments the native-transfer value accumulator.
func (s *MemoryStore) AddValueSent(_ context.Context, address string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.account(address)
	acct.ValueSent += value
	acct.UpdatedAt = time.Now().UTC()
	return nil
}

// StakeStartOrRefresh opens the stake interval, accruing elapsed time first
// when one is already open.
func (s *MemoryStore) StakeStartOrRefresh(_ context.Context, address string, now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.account(address)
	if acct.StakeActive && acct.StakeLastUpdate != nil {
		acct.StakeDurationSec += clampElapsed(now, *acct.StakeLastUpdate)
	}
	acct.StakeActive = true
	last := now
	acct.StakeLastUpdate = &last
	acct.UpdatedAt = time.Now().UTC()
	return nil
}

// StakeStop accrues any open interval and closes it.
func (s *MemoryStore) StakeStop(_ context.Context, address string, now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.account(address)
	if acct.StakeActive && acct.StakeLastUpdate != nil {
		acct.StakeDurationSec += clampElapsed(now, *acct.StakeLastUpdate)
	}
	acct.StakeActive = false
	last := now
	acct.StakeLastUpdate = &last
	acct.UpdatedAt = time.Now().UTC()
	return nil
}

// Account returns a copy of the state for an address.
func (s *MemoryStore) Account(_ context.Context, address string) (model.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[address]
	if !ok {
		return model.Account{}, false, nil
	}
	copied := *acct
	if acct.StakeLastUpdate != nil {
		last := *acct.StakeLastUpdate
		copied.StakeLastUpdate = &last
	}
	return copied, true, nil
}

// clampElapsed never goes negative: out-of-order timestamps accrue nothing.
func clampElapsed(now, last int64) int64 {
	if now <= last {
		return 0
	}
	return now - last
}
