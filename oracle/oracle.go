// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package oracle defines the external data sources the vault consumes:
// the boost multiplier feed and the pool reserve report. Both are
// consumed, never computed, by the accounting core.
package oracle

import (
	"errors"
	"math/big"
	"sync"

	"github.com/luxfi/ids"
)

var (
	ErrNoMultiplier = errors.New("no multiplier for account")
	ErrNoReserves   = errors.New("no reserve report available")
)

// MultiplierOracle reports how an account's long-term lock translates
// into a boost factor. BoostOf returns a 1e18-scaled factor (1e18 means
// no boost). LockedPrincipalOf returns the principal amount the account
// has committed in the external lock.
type MultiplierOracle interface {
	BoostOf(account ids.ShortID) (*big.Int, error)
	LockedPrincipalOf(account ids.ShortID) (*big.Int, error)
}

// ReserveOracle reports how many locked principal units the pooled LP
// position represents.
type ReserveOracle interface {
	// Reserves returns the principal reserves backing the pool token.
	Reserves() (*big.Int, error)
	// PoolTokenSupply returns the total supply of the pool token.
	PoolTokenSupply() (*big.Int, error)
	// PoolTokenBalanceOf returns an account's unstaked pool token balance.
	PoolTokenBalanceOf(account ids.ShortID) (*big.Int, error)
}

// StaticMultiplierOracle is an in-memory multiplier feed.
type StaticMultiplierOracle struct {
	mu       sync.RWMutex
	boosts   map[ids.ShortID]*big.Int
	locked   map[ids.ShortID]*big.Int
	defBoost *big.Int
}

// NewStaticMultiplierOracle creates a multiplier feed that reports
// defaultBoost (1e18-scaled) and zero locked principal for unknown
// accounts.
func NewStaticMultiplierOracle(defaultBoost *big.Int) *StaticMultiplierOracle {
	return &StaticMultiplierOracle{
		boosts:   make(map[ids.ShortID]*big.Int),
		locked:   make(map[ids.ShortID]*big.Int),
		defBoost: new(big.Int).Set(defaultBoost),
	}
}

// SetBoost sets the boost factor for an account.
func (o *StaticMultiplierOracle) SetBoost(account ids.ShortID, boost *big.Int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.boosts[account] = new(big.Int).Set(boost)
}

// SetLockedPrincipal sets the locked principal for an account.
func (o *StaticMultiplierOracle) SetLockedPrincipal(account ids.ShortID, amount *big.Int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.locked[account] = new(big.Int).Set(amount)
}

func (o *StaticMultiplierOracle) BoostOf(account ids.ShortID) (*big.Int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if boost, ok := o.boosts[account]; ok {
		return new(big.Int).Set(boost), nil
	}
	return new(big.Int).Set(o.defBoost), nil
}

func (o *StaticMultiplierOracle) LockedPrincipalOf(account ids.ShortID) (*big.Int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if locked, ok := o.locked[account]; ok {
		return new(big.Int).Set(locked), nil
	}
	return new(big.Int), nil
}

// StaticReserveOracle is an in-memory reserve report.
type StaticReserveOracle struct {
	mu       sync.RWMutex
	reserves *big.Int
	supply   *big.Int
	balances map[ids.ShortID]*big.Int
}

// NewStaticReserveOracle creates a reserve report with the given pool
// reserves and pool token supply.
func NewStaticReserveOracle(reserves, supply *big.Int) *StaticReserveOracle {
	return &StaticReserveOracle{
		reserves: new(big.Int).Set(reserves),
		supply:   new(big.Int).Set(supply),
		balances: make(map[ids.ShortID]*big.Int),
	}
}

// SetReserves updates the reported pool reserves.
func (o *StaticReserveOracle) SetReserves(reserves *big.Int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reserves.Set(reserves)
}

// SetPoolTokenSupply updates the reported pool token supply.
func (o *StaticReserveOracle) SetPoolTokenSupply(supply *big.Int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.supply.Set(supply)
}

// SetPoolTokenBalance updates an account's reported pool token balance.
func (o *StaticReserveOracle) SetPoolTokenBalance(account ids.ShortID, balance *big.Int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.balances[account] = new(big.Int).Set(balance)
}

func (o *StaticReserveOracle) Reserves() (*big.Int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.reserves.Sign() == 0 {
		return nil, ErrNoReserves
	}
	return new(big.Int).Set(o.reserves), nil
}

func (o *StaticReserveOracle) PoolTokenSupply() (*big.Int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return new(big.Int).Set(o.supply), nil
}

func (o *StaticReserveOracle) PoolTokenBalanceOf(account ids.ShortID) (*big.Int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if balance, ok := o.balances[account]; ok {
		return new(big.Int).Set(balance), nil
	}
	return new(big.Int), nil
}
