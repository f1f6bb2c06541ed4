// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package reward implements the streamed reward accounting: the epoch
// controller that governs the reward rate and its funded window, and
// the reward-per-share accumulator that attributes the stream to
// shareholders without iterating accounts.
package reward

import (
	"errors"
	"math/big"

	safemath "github.com/luxfi/math"
)

var (
	ErrRewardRateTooHigh = errors.New("reward rate exceeds custodied reward balance")
	ErrEpochActive       = errors.New("rewards duration cannot change during an active epoch")
	ErrNothingToClaim    = errors.New("nothing to claim")
	ErrZeroDuration      = errors.New("rewards duration must be positive")
)

// Epoch is the funded streaming window. It is Idle when now has passed
// periodFinish and Streaming otherwise.
type Epoch struct {
	rate         *big.Int // reward units per second
	periodFinish uint64   // unix seconds
	duration     uint64   // seconds
	lastUpdate   uint64   // unix seconds
}

func newEpoch(duration uint64) Epoch {
	return Epoch{
		rate:     new(big.Int),
		duration: duration,
	}
}

// applicableTime clamps now to the funded window so accrual never
// extends past it.
func (e *Epoch) applicableTime(now uint64) uint64 {
	return min(now, e.periodFinish)
}

// notify recomputes the rate for a top-up of amount. Mid-stream, the
// undistributed remainder of the current window is re-streamed evenly
// with the new amount. Division floors; the truncated remainder is
// permanently lost from the distributable pool. The computed rate must
// not promise more than custody holds over a full window.
func (e *Epoch) notify(now uint64, amount, custody *big.Int) error {
	if e.duration == 0 {
		return ErrZeroDuration
	}

	total := new(big.Int).Set(amount)
	if now < e.periodFinish {
		leftover := new(big.Int).SetUint64(e.periodFinish - now)
		leftover.Mul(leftover, e.rate)
		total.Add(total, leftover)
	}
	duration := new(big.Int).SetUint64(e.duration)
	rate := total.Div(total, duration)

	owed := new(big.Int).Mul(rate, duration)
	if owed.Cmp(custody) > 0 {
		return ErrRewardRateTooHigh
	}

	finish, err := safemath.Add(now, e.duration)
	if err != nil {
		return err
	}
	e.rate = rate
	e.lastUpdate = now
	e.periodFinish = finish
	return nil
}

// setDuration changes the window length; only allowed once the current
// window has finished.
func (e *Epoch) setDuration(now, duration uint64) error {
	if duration == 0 {
		return ErrZeroDuration
	}
	if now < e.periodFinish {
		return ErrEpochActive
	}
	e.duration = duration
	return nil
}

func (e *Epoch) clone() Epoch {
	return Epoch{
		rate:         new(big.Int).Set(e.rate),
		periodFinish: e.periodFinish,
		duration:     e.duration,
		lastUpdate:   e.lastUpdate,
	}
}

// Rate returns the reward units streamed per second.
func (e Epoch) Rate() *big.Int {
	return new(big.Int).Set(e.rate)
}

// PeriodFinish returns the unix second the current window ends.
func (e Epoch) PeriodFinish() uint64 {
	return e.periodFinish
}

// Duration returns the window length in seconds.
func (e Epoch) Duration() uint64 {
	return e.duration
}

// LastUpdate returns the unix second of the last checkpoint.
func (e Epoch) LastUpdate() uint64 {
	return e.lastUpdate
}
