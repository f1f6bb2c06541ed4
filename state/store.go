// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state persists vault accounting snapshots: per-account
// records, the epoch globals and the aggregate totals. Writes are
// staged on a versioned view and become durable atomically on commit,
// so a failed operation never leaves partial state behind.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/ids"

	"github.com/luxfi/vault/reward"
)

var (
	ErrAccountNotFound = errors.New("account not found")

	accountPrefix = []byte("account")
	globalsKey    = []byte("globals")
	totalsKey     = []byte("totals")
)

// AccountRecord is one staker's persisted position, ledger balances
// and reward bookkeeping together.
type AccountRecord struct {
	Address                  ids.ShortID `json:"address"`
	AssetBalance             *big.Int    `json:"assetBalance"`
	ShareBalance             *big.Int    `json:"shareBalance"`
	RewardAccrued            *big.Int    `json:"rewardAccrued"`
	RewardPerShareCheckpoint *big.Int    `json:"rewardPerShareCheckpoint"`
}

// Totals is the persisted aggregate pair.
type Totals struct {
	TotalAssets *big.Int `json:"totalAssets"`
	TotalShares *big.Int `json:"totalShares"`
}

// Store stages and commits vault snapshots on top of a database.
type Store struct {
	mu       sync.Mutex
	vdb      *versiondb.Database
	accounts database.Database
}

// New creates a store over db.
func New(db database.Database) *Store {
	vdb := versiondb.New(db)
	return &Store{
		vdb:      vdb,
		accounts: prefixdb.New(accountPrefix, vdb),
	}
}

// PutAccount stages an account record.
func (s *Store) PutAccount(record AccountRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode account %s: %w", record.Address, err)
	}
	return s.accounts.Put(record.Address[:], data)
}

// GetAccount loads an account record.
func (s *Store) GetAccount(address ids.ShortID) (AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.accounts.Get(address[:])
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return AccountRecord{}, ErrAccountNotFound
		}
		return AccountRecord{}, err
	}
	var record AccountRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return AccountRecord{}, fmt.Errorf("failed to decode account %s: %w", address, err)
	}
	return record, nil
}

// Accounts loads every persisted account record.
func (s *Store) Accounts() ([]AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	iter := s.accounts.NewIterator()
	defer iter.Release()

	var records []AccountRecord
	for iter.Next() {
		var record AccountRecord
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			return nil, fmt.Errorf("failed to decode account record: %w", err)
		}
		records = append(records, record)
	}
	return records, iter.Error()
}

// PutGlobals stages the reward globals.
func (s *Store) PutGlobals(state reward.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode reward globals: %w", err)
	}
	return s.vdb.Put(globalsKey, data)
}

// GetGlobals loads the reward globals. The second return is false when
// the store has never been committed to.
func (s *Store) GetGlobals() (reward.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.vdb.Get(globalsKey)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return reward.State{}, false, nil
		}
		return reward.State{}, false, err
	}
	var state reward.State
	if err := json.Unmarshal(data, &state); err != nil {
		return reward.State{}, false, fmt.Errorf("failed to decode reward globals: %w", err)
	}
	return state, true, nil
}

// PutTotals stages the aggregate totals.
func (s *Store) PutTotals(totals Totals) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(totals)
	if err != nil {
		return fmt.Errorf("failed to encode totals: %w", err)
	}
	return s.vdb.Put(totalsKey, data)
}

// GetTotals loads the aggregate totals.
func (s *Store) GetTotals() (Totals, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.vdb.Get(totalsKey)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return Totals{}, false, nil
		}
		return Totals{}, false, err
	}
	var totals Totals
	if err := json.Unmarshal(data, &totals); err != nil {
		return Totals{}, false, fmt.Errorf("failed to decode totals: %w", err)
	}
	return totals, true, nil
}

// Commit makes all staged writes durable atomically.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vdb.Commit()
}

// Abort discards all staged writes.
func (s *Store) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vdb.Abort()
}

// Close releases the underlying versioned view.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vdb.Close()
}
