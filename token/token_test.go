// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"math/big"
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

var (
	tokenID = ids.ID{0x01}
	alice   = ids.ShortID{0xa1}
	bob     = ids.ShortID{0xb0}
	carol   = ids.ShortID{0xc0}
)

func TestMintAndTransfer(t *testing.T) {
	require := require.New(t)

	l := NewLedger(tokenID, "STAKE")
	require.Equal(tokenID, l.ID())
	require.NoError(l.Mint(alice, big.NewInt(100)))
	require.Equal(big.NewInt(100), l.TotalSupply())

	require.NoError(l.Transfer(alice, bob, big.NewInt(40)))
	require.Equal(big.NewInt(60), l.BalanceOf(alice))
	require.Equal(big.NewInt(40), l.BalanceOf(bob))

	err := l.Transfer(alice, bob, big.NewInt(61))
	require.ErrorIs(err, ErrInsufficientBalance)
}

func TestTransferRejectsNonPositive(t *testing.T) {
	require := require.New(t)

	l := NewLedger(tokenID, "STAKE")
	require.NoError(l.Mint(alice, big.NewInt(100)))

	require.ErrorIs(l.Transfer(alice, bob, new(big.Int)), ErrInvalidAmount)
	require.ErrorIs(l.Transfer(alice, bob, big.NewInt(-1)), ErrInvalidAmount)
	require.ErrorIs(l.Mint(alice, new(big.Int)), ErrInvalidAmount)
}

func TestTransferFromSpendsAllowance(t *testing.T) {
	require := require.New(t)

	l := NewLedger(tokenID, "STAKE")
	require.NoError(l.Mint(alice, big.NewInt(100)))

	err := l.TransferFrom(carol, alice, bob, big.NewInt(40))
	require.ErrorIs(err, ErrInsufficientAllowance)

	l.Approve(alice, carol, big.NewInt(50))
	require.NoError(l.TransferFrom(carol, alice, bob, big.NewInt(40)))
	require.Equal(big.NewInt(10), l.Allowance(alice, carol))
	require.Equal(big.NewInt(40), l.BalanceOf(bob))

	err = l.TransferFrom(carol, alice, bob, big.NewInt(11))
	require.ErrorIs(err, ErrInsufficientAllowance)
}

func TestTransferFromSelfNeedsNoAllowance(t *testing.T) {
	require := require.New(t)

	l := NewLedger(tokenID, "STAKE")
	require.NoError(l.Mint(alice, big.NewInt(100)))
	require.NoError(l.TransferFrom(alice, alice, bob, big.NewInt(40)))
	require.Equal(big.NewInt(40), l.BalanceOf(bob))
}

type staticShares struct{}

func (staticShares) ShareBalanceOf(ids.ShortID) *big.Int { return big.NewInt(7) }
func (staticShares) TotalShares() *big.Int               { return big.NewInt(21) }

func TestNonTransferable(t *testing.T) {
	require := require.New(t)

	shares := NewNonTransferable(tokenID, staticShares{})
	require.Equal(tokenID, shares.ID())
	require.Equal(big.NewInt(7), shares.BalanceOf(alice))
	require.Equal(big.NewInt(21), shares.TotalSupply())

	err := shares.Transfer(alice, bob, big.NewInt(1))
	require.ErrorIs(err, ErrNonTransferable)
	err = shares.TransferFrom(carol, alice, bob, big.NewInt(1))
	require.ErrorIs(err, ErrNonTransferable)
}
