// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger tracks per-account asset and share balances for the
// vault. Aggregate totals are strict sums of the per-account values;
// every mutation moves both sides symmetrically.
package ledger

import (
	"errors"
	"math/big"
	"sync"

	"github.com/luxfi/ids"
)

var (
	ErrZeroAmount          = errors.New("amount must be positive")
	ErrReceiverMismatch    = errors.New("receiver must be the caller")
	ErrNotOwner            = errors.New("caller is not the position owner")
	ErrInsufficientBalance = errors.New("insufficient staked balance")
)

// Account is a staker's position. Balances never go negative; accounts
// are created implicitly on first deposit and never destroyed.
type Account struct {
	Address      ids.ShortID `json:"address"`
	AssetBalance *big.Int    `json:"assetBalance"`
	ShareBalance *big.Int    `json:"shareBalance"`
}

// Ledger holds all staking positions and the aggregate totals.
type Ledger struct {
	mu          sync.RWMutex
	accounts    map[ids.ShortID]*Account
	totalAssets *big.Int
	totalShares *big.Int
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		accounts:    make(map[ids.ShortID]*Account),
		totalAssets: new(big.Int),
		totalShares: new(big.Int),
	}
}

// ApplyDeposit credits assets and shares to receiver and grows the
// totals. The deposit asset pull happens outside the ledger.
func (l *Ledger) ApplyDeposit(caller, receiver ids.ShortID, assets, shares *big.Int) error {
	if assets.Sign() <= 0 || shares.Sign() < 0 {
		return ErrZeroAmount
	}
	if receiver != caller {
		return ErrReceiverMismatch
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	account := l.getOrCreate(receiver)
	account.AssetBalance.Add(account.AssetBalance, assets)
	account.ShareBalance.Add(account.ShareBalance, shares)
	l.totalAssets.Add(l.totalAssets, assets)
	l.totalShares.Add(l.totalShares, shares)
	return nil
}

// ApplyWithdraw debits assets and shares from owner and shrinks the
// totals. The deposit asset push happens outside the ledger.
func (l *Ledger) ApplyWithdraw(caller, owner ids.ShortID, assets, shares *big.Int) error {
	if assets.Sign() <= 0 || shares.Sign() < 0 {
		return ErrZeroAmount
	}
	if caller != owner {
		return ErrNotOwner
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[owner]
	if !ok || account.AssetBalance.Cmp(assets) < 0 || account.ShareBalance.Cmp(shares) < 0 {
		return ErrInsufficientBalance
	}

	account.AssetBalance.Sub(account.AssetBalance, assets)
	account.ShareBalance.Sub(account.ShareBalance, shares)
	l.totalAssets.Sub(l.totalAssets, assets)
	l.totalShares.Sub(l.totalShares, shares)
	return nil
}

// LoadAccount seeds a position during rehydration, growing the totals
// so they stay strict sums.
func (l *Ledger) LoadAccount(address ids.ShortID, assets, shares *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account := l.getOrCreate(address)
	account.AssetBalance.Set(assets)
	account.ShareBalance.Set(shares)
	l.recomputeTotalsLocked()
}

// AssetBalanceOf returns an account's staked principal.
func (l *Ledger) AssetBalanceOf(account ids.ShortID) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if acc, ok := l.accounts[account]; ok {
		return new(big.Int).Set(acc.AssetBalance)
	}
	return new(big.Int)
}

// ShareBalanceOf returns an account's issued shares.
func (l *Ledger) ShareBalanceOf(account ids.ShortID) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if acc, ok := l.accounts[account]; ok {
		return new(big.Int).Set(acc.ShareBalance)
	}
	return new(big.Int)
}

// TotalAssets returns the sum of all staked principal.
func (l *Ledger) TotalAssets() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.totalAssets)
}

// TotalShares returns the sum of all issued shares.
func (l *Ledger) TotalShares() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.totalShares)
}

// Accounts returns a copy of every position.
func (l *Ledger) Accounts() []Account {
	l.mu.RLock()
	defer l.mu.RUnlock()

	accounts := make([]Account, 0, len(l.accounts))
	for _, acc := range l.accounts {
		accounts = append(accounts, Account{
			Address:      acc.Address,
			AssetBalance: new(big.Int).Set(acc.AssetBalance),
			ShareBalance: new(big.Int).Set(acc.ShareBalance),
		})
	}
	return accounts
}

// Snapshot captures one account and the totals for rollback.
type Snapshot struct {
	address      ids.ShortID
	existed      bool
	assetBalance *big.Int
	shareBalance *big.Int
	totalAssets  *big.Int
	totalShares  *big.Int
}

// Snapshot captures the state needed to undo a mutation of account.
func (l *Ledger) Snapshot(account ids.ShortID) Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snap := Snapshot{
		address:     account,
		totalAssets: new(big.Int).Set(l.totalAssets),
		totalShares: new(big.Int).Set(l.totalShares),
	}
	if acc, ok := l.accounts[account]; ok {
		snap.existed = true
		snap.assetBalance = new(big.Int).Set(acc.AssetBalance)
		snap.shareBalance = new(big.Int).Set(acc.ShareBalance)
	}
	return snap
}

// Restore rolls the ledger back to a snapshot taken earlier in the
// same operation.
func (l *Ledger) Restore(snap Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.totalAssets.Set(snap.totalAssets)
	l.totalShares.Set(snap.totalShares)
	if snap.existed {
		acc := l.getOrCreate(snap.address)
		acc.AssetBalance.Set(snap.assetBalance)
		acc.ShareBalance.Set(snap.shareBalance)
	} else {
		delete(l.accounts, snap.address)
	}
}

func (l *Ledger) getOrCreate(address ids.ShortID) *Account {
	account, ok := l.accounts[address]
	if !ok {
		account = &Account{
			Address:      address,
			AssetBalance: new(big.Int),
			ShareBalance: new(big.Int),
		}
		l.accounts[address] = account
	}
	return account
}

func (l *Ledger) recomputeTotalsLocked() {
	totalAssets := new(big.Int)
	totalShares := new(big.Int)
	for _, acc := range l.accounts {
		totalAssets.Add(totalAssets, acc.AssetBalance)
		totalShares.Add(totalShares, acc.ShareBalance)
	}
	l.totalAssets = totalAssets
	l.totalShares = totalShares
}
