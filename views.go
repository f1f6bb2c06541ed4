// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"math/big"
	"time"

	"github.com/luxfi/ids"

	"github.com/luxfi/vault/token"
)

// The views below are pure reads; none of them mutate accumulator or
// ledger state.

// TotalAssets returns the total managed deposit assets.
func (v *Vault) TotalAssets() *big.Int {
	return v.ledger.TotalAssets()
}

// TotalShares returns the total outstanding shares.
func (v *Vault) TotalShares() *big.Int {
	return v.ledger.TotalShares()
}

// AssetBalanceOf returns an account's staked principal.
func (v *Vault) AssetBalanceOf(account ids.ShortID) *big.Int {
	return v.ledger.AssetBalanceOf(account)
}

// ShareBalanceOf returns an account's issued shares.
func (v *Vault) ShareBalanceOf(account ids.ShortID) *big.Int {
	return v.ledger.ShareBalanceOf(account)
}

// Earned returns an account's claimable reward as of now.
func (v *Vault) Earned(account ids.ShortID) *big.Int {
	return v.accumulator.Earned(account, v.ledger.ShareBalanceOf(account), v.ledger.TotalShares())
}

// RewardPerShare returns the accumulator brought forward to now.
func (v *Vault) RewardPerShare() *big.Int {
	return v.accumulator.RewardPerShare(v.ledger.TotalShares())
}

// RewardRate returns the reward units streamed per second.
func (v *Vault) RewardRate() *big.Int {
	return v.accumulator.Epoch().Rate()
}

// PeriodFinish returns the unix second the current epoch ends.
func (v *Vault) PeriodFinish() uint64 {
	return v.accumulator.Epoch().PeriodFinish()
}

// RewardsDuration returns the configured epoch window length.
func (v *Vault) RewardsDuration() time.Duration {
	return time.Duration(v.accumulator.Epoch().Duration()) * time.Second
}

// TotalRewardsDistributed returns the cumulative claimed reward.
func (v *Vault) TotalRewardsDistributed() *big.Int {
	return v.accumulator.TotalDistributed()
}

// MaxWithdraw returns the most assets the account could withdraw now;
// zero while paused.
func (v *Vault) MaxWithdraw(account ids.ShortID) *big.Int {
	if v.paused.Load() {
		return new(big.Int)
	}
	return v.ledger.AssetBalanceOf(account)
}

// MaxRedeem returns the most shares the account could redeem now; zero
// while paused.
func (v *Vault) MaxRedeem(account ids.ShortID) *big.Int {
	if v.paused.Load() {
		return new(big.Int)
	}
	return v.ledger.ShareBalanceOf(account)
}

// Paused reports whether staking is paused.
func (v *Vault) Paused() bool {
	return v.paused.Load()
}

// Shares returns the non-transferable share token view.
func (v *Vault) Shares() token.Token {
	return v.shares
}

// Address returns the vault's custody identity.
func (v *Vault) Address() ids.ShortID {
	return v.cfg.VaultAddress
}

// Owner returns the vault's owner identity.
func (v *Vault) Owner() ids.ShortID {
	return v.cfg.Owner
}
