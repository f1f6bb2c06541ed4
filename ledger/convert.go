// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"math/big"

	"github.com/luxfi/ids"

	"github.com/luxfi/vault/oracle"
)

// scale18 is the fixed-point base shared with the multiplier feed.
var scale18 = big.NewInt(1e18)

// Converter translates between deposited assets and issued shares.
//
// Deposit and mint consult the multiplier feed fresh per call: the
// boost applies when the account's staked principal share of the pool
// is at least its reported locked principal. Withdraw and redeem use
// the account's own historical share-to-asset ratio instead, so
// multiplier drift between entry and exit is settled against the
// account's average. All arithmetic floors; the rounding loss is not
// corrected.
type Converter struct {
	ledger     *Ledger
	multiplier oracle.MultiplierOracle
	reserves   oracle.ReserveOracle
}

// NewConverter wires a converter to the ledger and the oracle ports.
func NewConverter(l *Ledger, multiplier oracle.MultiplierOracle, reserves oracle.ReserveOracle) *Converter {
	return &Converter{
		ledger:     l,
		multiplier: multiplier,
		reserves:   reserves,
	}
}

// DepositShares returns the shares minted for depositing assets.
func (c *Converter) DepositShares(account ids.ShortID, assets *big.Int) (*big.Int, error) {
	if assets.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	shares := new(big.Int).Set(assets)
	boosted, boost, err := c.boostFor(account)
	if err != nil {
		return nil, err
	}
	if boosted {
		shares.Mul(shares, boost)
		shares.Div(shares, scale18)
	}
	return shares, nil
}

// MintAssets returns the assets required to mint shares; the dual of
// DepositShares.
func (c *Converter) MintAssets(account ids.ShortID, shares *big.Int) (*big.Int, error) {
	if shares.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	assets := new(big.Int).Set(shares)
	boosted, boost, err := c.boostFor(account)
	if err != nil {
		return nil, err
	}
	if boosted && boost.Sign() > 0 {
		assets.Mul(assets, scale18)
		assets.Div(assets, boost)
	}
	return assets, nil
}

// WithdrawShares returns the shares burned to withdraw assets, using
// the account's historical share-to-asset ratio.
func (c *Converter) WithdrawShares(account ids.ShortID, assets *big.Int) *big.Int {
	assetBalance := c.ledger.AssetBalanceOf(account)
	if assetBalance.Sign() == 0 {
		return new(big.Int).Set(assets)
	}
	shares := new(big.Int).Mul(assets, c.ledger.ShareBalanceOf(account))
	return shares.Div(shares, assetBalance)
}

// RedeemAssets returns the assets released by burning shares; the dual
// of WithdrawShares.
func (c *Converter) RedeemAssets(account ids.ShortID, shares *big.Int) *big.Int {
	shareBalance := c.ledger.ShareBalanceOf(account)
	if shareBalance.Sign() == 0 {
		return new(big.Int).Set(shares)
	}
	assets := new(big.Int).Mul(shares, c.ledger.AssetBalanceOf(account))
	return assets.Div(assets, shareBalance)
}

// boostFor reads the oracles and decides whether the boost applies:
// stakedPrincipal(account) >= lockedPrincipal(account).
func (c *Converter) boostFor(account ids.ShortID) (bool, *big.Int, error) {
	locked, err := c.multiplier.LockedPrincipalOf(account)
	if err != nil {
		return false, nil, err
	}
	// Zero locked principal satisfies the condition trivially; the
	// reserve feed is only consulted when there is a lock to cover.
	if locked.Sign() > 0 {
		staked, err := c.stakedPrincipal(account)
		if err != nil {
			return false, nil, err
		}
		if staked.Cmp(locked) < 0 {
			return false, nil, nil
		}
	}
	boost, err := c.multiplier.BoostOf(account)
	if err != nil {
		return false, nil, err
	}
	return true, boost, nil
}

// stakedPrincipal values the account's staked pool tokens in locked
// principal units: reserves * stakedBalance / poolTokenSupply.
func (c *Converter) stakedPrincipal(account ids.ShortID) (*big.Int, error) {
	reserves, err := c.reserves.Reserves()
	if err != nil {
		return nil, err
	}
	supply, err := c.reserves.PoolTokenSupply()
	if err != nil {
		return nil, err
	}
	if supply.Sign() == 0 {
		return new(big.Int), nil
	}
	principal := new(big.Int).Mul(reserves, c.ledger.AssetBalanceOf(account))
	return principal.Div(principal, supply), nil
}
