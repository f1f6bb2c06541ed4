// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token defines the fungible asset port the vault moves value
// through, an in-memory implementation of it, and the non-transferable
// share view.
package token

import (
	"errors"
	"math/big"
	"sync"

	"github.com/luxfi/ids"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient token balance")
	ErrInsufficientAllowance = errors.New("insufficient token allowance")
	ErrNonTransferable       = errors.New("share token is non-transferable")
	ErrInvalidAmount         = errors.New("invalid token amount")
)

// Token is the narrow fungible asset interface the vault consumes.
// There is no ambient caller identity, so the moving party is explicit
// in every call.
type Token interface {
	ID() ids.ID
	Transfer(from, to ids.ShortID, amount *big.Int) error
	TransferFrom(spender, from, to ids.ShortID, amount *big.Int) error
	BalanceOf(account ids.ShortID) *big.Int
}

// Ledger is an in-memory fungible token with allowances.
type Ledger struct {
	id     ids.ID
	symbol string

	mu         sync.RWMutex
	balances   map[ids.ShortID]*big.Int
	allowances map[ids.ShortID]map[ids.ShortID]*big.Int
	supply     *big.Int
}

// NewLedger creates an empty token ledger.
func NewLedger(id ids.ID, symbol string) *Ledger {
	return &Ledger{
		id:         id,
		symbol:     symbol,
		balances:   make(map[ids.ShortID]*big.Int),
		allowances: make(map[ids.ShortID]map[ids.ShortID]*big.Int),
		supply:     new(big.Int),
	}
}

func (l *Ledger) ID() ids.ID {
	return l.id
}

// Symbol returns the token's display symbol.
func (l *Ledger) Symbol() string {
	return l.symbol
}

// Mint credits amount to an account, growing the supply.
func (l *Ledger) Mint(to ids.ShortID, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.credit(to, amount)
	l.supply.Add(l.supply, amount)
	return nil
}

// Approve lets spender move up to amount from owner's balance.
func (l *Ledger) Approve(owner, spender ids.ShortID, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	approvals, ok := l.allowances[owner]
	if !ok {
		approvals = make(map[ids.ShortID]*big.Int)
		l.allowances[owner] = approvals
	}
	approvals[spender] = new(big.Int).Set(amount)
}

// Allowance returns how much spender may still move from owner.
func (l *Ledger) Allowance(owner, spender ids.ShortID) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if approvals, ok := l.allowances[owner]; ok {
		if allowed, ok := approvals[spender]; ok {
			return new(big.Int).Set(allowed)
		}
	}
	return new(big.Int)
}

func (l *Ledger) Transfer(from, to ids.ShortID, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

func (l *Ledger) TransferFrom(spender, from, to ids.ShortID, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if spender != from {
		approvals := l.allowances[from]
		allowed, ok := approvals[spender]
		if !ok || allowed.Cmp(amount) < 0 {
			return ErrInsufficientAllowance
		}
		allowed.Sub(allowed, amount)
	}
	return l.move(from, to, amount)
}

func (l *Ledger) BalanceOf(account ids.ShortID) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if balance, ok := l.balances[account]; ok {
		return new(big.Int).Set(balance)
	}
	return new(big.Int)
}

// TotalSupply returns the minted supply.
func (l *Ledger) TotalSupply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.supply)
}

func (l *Ledger) move(from, to ids.ShortID, amount *big.Int) error {
	balance, ok := l.balances[from]
	if !ok || balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	balance.Sub(balance, amount)
	l.credit(to, amount)
	return nil
}

func (l *Ledger) credit(to ids.ShortID, amount *big.Int) {
	balance, ok := l.balances[to]
	if !ok {
		balance = new(big.Int)
		l.balances[to] = balance
	}
	balance.Add(balance, amount)
}

// ShareSource reports share balances and the share supply. The vault
// ledger satisfies it.
type ShareSource interface {
	ShareBalanceOf(account ids.ShortID) *big.Int
	TotalShares() *big.Int
}

// NonTransferable exposes vault shares through the Token interface.
// Every transfer-style call fails unconditionally; shares only move by
// vault operations.
type NonTransferable struct {
	id     ids.ID
	source ShareSource
}

// NewNonTransferable wraps a share source as a read-only token.
func NewNonTransferable(id ids.ID, source ShareSource) *NonTransferable {
	return &NonTransferable{
		id:     id,
		source: source,
	}
}

func (t *NonTransferable) ID() ids.ID {
	return t.id
}

func (*NonTransferable) Transfer(ids.ShortID, ids.ShortID, *big.Int) error {
	return ErrNonTransferable
}

func (*NonTransferable) TransferFrom(ids.ShortID, ids.ShortID, ids.ShortID, *big.Int) error {
	return ErrNonTransferable
}

func (t *NonTransferable) BalanceOf(account ids.ShortID) *big.Int {
	return t.source.ShareBalanceOf(account)
}

// TotalSupply returns the outstanding share supply.
func (t *NonTransferable) TotalSupply() *big.Int {
	return t.source.TotalShares()
}
