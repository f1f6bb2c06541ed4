// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package reward

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/vault/utils/timer/mockable"
)

func newTestAccumulator(duration time.Duration) (*Accumulator, *mockable.Clock) {
	clk := &mockable.Clock{}
	clk.Set(time.Unix(1000, 0))
	return NewAccumulator(clk, duration), clk
}

func TestNotifyIdleEpoch(t *testing.T) {
	require := require.New(t)

	a, _ := newTestAccumulator(100 * time.Second)
	require.NoError(a.NotifyReward(big.NewInt(1000), big.NewInt(1000)))

	epoch := a.Epoch()
	require.Equal(big.NewInt(10), epoch.Rate())
	require.Equal(uint64(1100), epoch.PeriodFinish())
	require.Equal(uint64(1000), epoch.LastUpdate())
}

func TestNotifyRateFloors(t *testing.T) {
	require := require.New(t)

	a, _ := newTestAccumulator(100 * time.Second)
	// 1050 over 100 seconds floors to 10 per second; the remainder 50
	// is never streamed.
	require.NoError(a.NotifyReward(big.NewInt(1050), big.NewInt(1050)))
	require.Equal(big.NewInt(10), a.Epoch().Rate())
}

func TestNotifyMidStreamRestreamsLeftover(t *testing.T) {
	require := require.New(t)

	a, clk := newTestAccumulator(100 * time.Second)
	require.NoError(a.NotifyReward(big.NewInt(1000), big.NewInt(2000)))

	// 40 seconds in, 60 seconds of streaming remain: 600 units, folded
	// into the new amount over a fresh window.
	clk.Advance(40 * time.Second)
	require.NoError(a.NotifyReward(big.NewInt(300), big.NewInt(2000)))

	epoch := a.Epoch()
	require.Equal(big.NewInt(9), epoch.Rate())
	require.Equal(uint64(1140), epoch.PeriodFinish())
}

func TestNotifyRejectsRateAboveCustody(t *testing.T) {
	require := require.New(t)

	a, _ := newTestAccumulator(100 * time.Second)
	err := a.NotifyReward(big.NewInt(1000), big.NewInt(999))
	require.ErrorIs(err, ErrRewardRateTooHigh)

	// The failed notification must not touch the epoch.
	epoch := a.Epoch()
	require.Zero(epoch.Rate().Sign())
	require.Zero(epoch.PeriodFinish())
}

func TestSetDurationDuringEpoch(t *testing.T) {
	require := require.New(t)

	a, clk := newTestAccumulator(100 * time.Second)
	require.NoError(a.NotifyReward(big.NewInt(1000), big.NewInt(1000)))

	clk.Advance(99 * time.Second)
	err := a.SetDuration(200 * time.Second)
	require.ErrorIs(err, ErrEpochActive)
	require.Equal(uint64(100), a.Epoch().Duration())

	clk.Advance(time.Second)
	require.NoError(a.SetDuration(200 * time.Second))
	require.Equal(uint64(200), a.Epoch().Duration())
}

func TestSetDurationRejectsZero(t *testing.T) {
	require := require.New(t)

	a, _ := newTestAccumulator(100 * time.Second)
	require.ErrorIs(a.SetDuration(0), ErrZeroDuration)
}
