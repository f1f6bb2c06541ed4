// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/vault/oracle"
)

func newTestConverter() (*Converter, *Ledger, *oracle.StaticMultiplierOracle, *oracle.StaticReserveOracle) {
	l := New()
	multiplier := oracle.NewStaticMultiplierOracle(scale18)
	reserves := oracle.NewStaticReserveOracle(new(big.Int), new(big.Int))
	return NewConverter(l, multiplier, reserves), l, multiplier, reserves
}

func TestDepositSharesDefaultMultiplier(t *testing.T) {
	require := require.New(t)

	c, _, _, _ := newTestConverter()
	shares, err := c.DepositShares(alice, big.NewInt(100))
	require.NoError(err)
	require.Equal(big.NewInt(100), shares)
}

func TestDepositSharesBoosted(t *testing.T) {
	require := require.New(t)

	c, _, multiplier, _ := newTestConverter()
	// 2.5x boost with no locked principal to cover.
	multiplier.SetBoost(alice, new(big.Int).Mul(big.NewInt(25), new(big.Int).Div(scale18, big.NewInt(10))))

	shares, err := c.DepositShares(alice, big.NewInt(100))
	require.NoError(err)
	require.Equal(big.NewInt(250), shares)
}

func TestBoostDeniedWhenLockNotCovered(t *testing.T) {
	require := require.New(t)

	c, l, multiplier, reserves := newTestConverter()
	multiplier.SetBoost(alice, new(big.Int).Mul(big.NewInt(2), scale18))
	multiplier.SetLockedPrincipal(alice, big.NewInt(500))
	reserves.SetReserves(big.NewInt(1000))
	reserves.SetPoolTokenSupply(big.NewInt(100))

	// 10 staked pool tokens value 100 principal units, under the 500
	// locked, so the deposit is unboosted.
	l.LoadAccount(alice, big.NewInt(10), big.NewInt(10))
	shares, err := c.DepositShares(alice, big.NewInt(100))
	require.NoError(err)
	require.Equal(big.NewInt(100), shares)
}

func TestBoostGrantedWhenLockCovered(t *testing.T) {
	require := require.New(t)

	c, l, multiplier, reserves := newTestConverter()
	multiplier.SetBoost(alice, new(big.Int).Mul(big.NewInt(2), scale18))
	multiplier.SetLockedPrincipal(alice, big.NewInt(500))
	reserves.SetReserves(big.NewInt(1000))
	reserves.SetPoolTokenSupply(big.NewInt(100))

	l.LoadAccount(alice, big.NewInt(100), big.NewInt(100))
	shares, err := c.DepositShares(alice, big.NewInt(100))
	require.NoError(err)
	require.Equal(big.NewInt(200), shares)
}

func TestDepositSharesReserveFailure(t *testing.T) {
	require := require.New(t)

	c, _, multiplier, _ := newTestConverter()
	multiplier.SetLockedPrincipal(alice, big.NewInt(500))

	_, err := c.DepositShares(alice, big.NewInt(100))
	require.ErrorIs(err, oracle.ErrNoReserves)
}

func TestMintAssetsIsDepositDual(t *testing.T) {
	require := require.New(t)

	c, _, multiplier, _ := newTestConverter()
	multiplier.SetBoost(alice, new(big.Int).Mul(big.NewInt(2), scale18))

	assets, err := c.MintAssets(alice, big.NewInt(250))
	require.NoError(err)
	require.Equal(big.NewInt(125), assets)

	shares, err := c.DepositShares(alice, assets)
	require.NoError(err)
	require.Equal(big.NewInt(250), shares)
}

func TestWithdrawSharesUsesAverageRatio(t *testing.T) {
	require := require.New(t)

	c, l, _, _ := newTestConverter()
	l.LoadAccount(alice, big.NewInt(100), big.NewInt(250))

	require.Equal(big.NewInt(100), c.WithdrawShares(alice, big.NewInt(40)))
	require.Equal(big.NewInt(250), c.WithdrawShares(alice, big.NewInt(100)))
}

func TestWithdrawSharesEmptyPosition(t *testing.T) {
	require := require.New(t)

	c, _, _, _ := newTestConverter()
	require.Equal(big.NewInt(40), c.WithdrawShares(bob, big.NewInt(40)))
}

func TestRedeemAssetsIsWithdrawDual(t *testing.T) {
	require := require.New(t)

	c, l, _, _ := newTestConverter()
	l.LoadAccount(alice, big.NewInt(100), big.NewInt(250))

	require.Equal(big.NewInt(40), c.RedeemAssets(alice, big.NewInt(100)))
	require.Equal(big.NewInt(100), c.RedeemAssets(alice, big.NewInt(250)))
}

func TestConversionRejectsNonPositive(t *testing.T) {
	require := require.New(t)

	c, _, _, _ := newTestConverter()

	_, err := c.DepositShares(alice, new(big.Int))
	require.ErrorIs(err, ErrZeroAmount)
	_, err = c.DepositShares(alice, big.NewInt(-1))
	require.ErrorIs(err, ErrZeroAmount)

	_, err = c.MintAssets(alice, new(big.Int))
	require.ErrorIs(err, ErrZeroAmount)
	_, err = c.MintAssets(alice, big.NewInt(-1))
	require.ErrorIs(err, ErrZeroAmount)
}

func TestConversionFloors(t *testing.T) {
	require := require.New(t)

	c, l, _, _ := newTestConverter()
	l.LoadAccount(alice, big.NewInt(3), big.NewInt(10))

	// 1 * 10 / 3 floors to 3.
	require.Equal(big.NewInt(3), c.WithdrawShares(alice, big.NewInt(1)))
	// 1 * 3 / 10 floors to 0.
	require.Zero(c.RedeemAssets(alice, big.NewInt(1)).Sign())
}
