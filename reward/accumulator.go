// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package reward

import (
	"math/big"
	"sync"
	"time"

	"github.com/luxfi/ids"

	"github.com/luxfi/vault/utils/timer/mockable"
)

// scale18 is the fixed-point base for the per-share accumulator.
var scale18 = big.NewInt(1e18)

// position is one account's reward bookkeeping.
type position struct {
	accrued    *big.Int // claimable reward units
	checkpoint *big.Int // accumulator value last observed
}

// Accumulator maintains the global reward-per-share accumulator and
// per-account checkpoints. The stored accumulator is monotonically
// non-decreasing while shares exist; an account's accrued reward only
// decreases when a claim zeroes it.
//
// Callers must checkpoint an account before any change to its share
// balance; mutating shares first would misattribute past accrual.
type Accumulator struct {
	clk *mockable.Clock

	mu               sync.RWMutex
	epoch            Epoch
	perShareStored   *big.Int
	totalDistributed *big.Int
	positions        map[ids.ShortID]*position
}

// NewAccumulator creates an accumulator with an idle epoch of the
// given window length.
func NewAccumulator(clk *mockable.Clock, duration time.Duration) *Accumulator {
	return &Accumulator{
		clk:              clk,
		epoch:            newEpoch(uint64(duration / time.Second)),
		perShareStored:   new(big.Int),
		totalDistributed: new(big.Int),
		positions:        make(map[ids.ShortID]*position),
	}
}

// RewardPerShare returns the accumulator brought forward to now. With
// no shares outstanding it returns the stored value unchanged: nothing
// accrues while the pool is empty.
func (a *Accumulator) RewardPerShare(totalShares *big.Int) *big.Int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.rewardPerShareLocked(totalShares)
}

func (a *Accumulator) rewardPerShareLocked(totalShares *big.Int) *big.Int {
	stored := new(big.Int).Set(a.perShareStored)
	if totalShares.Sign() == 0 {
		return stored
	}
	elapsed := a.epoch.applicableTime(a.clk.Unix()) - a.epoch.lastUpdate
	accrued := new(big.Int).SetUint64(elapsed)
	accrued.Mul(accrued, a.epoch.rate)
	accrued.Mul(accrued, scale18)
	accrued.Div(accrued, totalShares)
	return stored.Add(stored, accrued)
}

// Earned returns the account's claimable reward as of now. Pure read.
func (a *Accumulator) Earned(account ids.ShortID, shareBalance, totalShares *big.Int) *big.Int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.earnedLocked(account, shareBalance, totalShares)
}

func (a *Accumulator) earnedLocked(account ids.ShortID, shareBalance, totalShares *big.Int) *big.Int {
	perShare := a.rewardPerShareLocked(totalShares)
	accrued := new(big.Int)
	if pos, ok := a.positions[account]; ok {
		accrued.Set(pos.accrued)
		perShare.Sub(perShare, pos.checkpoint)
	}
	delta := perShare.Mul(perShare, shareBalance)
	delta.Div(delta, scale18)
	return accrued.Add(accrued, delta)
}

// Checkpoint freezes accrual at now: the stored accumulator and last
// update time advance, and unless account is the aggregate placeholder
// (ids.ShortEmpty) the account's pending reward is fixed at the
// current accumulator value.
func (a *Accumulator) Checkpoint(account ids.ShortID, shareBalance, totalShares *big.Int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	earned := a.earnedLocked(account, shareBalance, totalShares)
	a.perShareStored = a.rewardPerShareLocked(totalShares)
	a.epoch.lastUpdate = a.epoch.applicableTime(a.clk.Unix())

	if account == ids.ShortEmpty {
		return
	}
	pos, ok := a.positions[account]
	if !ok {
		pos = &position{
			accrued:    new(big.Int),
			checkpoint: new(big.Int),
		}
		a.positions[account] = pos
	}
	pos.accrued.Set(earned)
	pos.checkpoint.Set(a.perShareStored)
}

// TakeAccrued zeroes and returns the account's checkpointed reward.
// The caller is responsible for moving the reward asset.
func (a *Accumulator) TakeAccrued(account ids.ShortID) (*big.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pos, ok := a.positions[account]
	if !ok || pos.accrued.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	amount := new(big.Int).Set(pos.accrued)
	pos.accrued.SetUint64(0)
	a.totalDistributed.Add(a.totalDistributed, amount)
	return amount, nil
}

// NotifyReward starts or extends the streaming window for a top-up of
// amount. custody is the reward asset balance held by the vault; the
// recomputed rate may not promise more than that over a full window.
// The caller must have checkpointed the aggregate first.
func (a *Accumulator) NotifyReward(amount, custody *big.Int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.epoch.notify(a.clk.Unix(), amount, custody)
}

// SetDuration changes the epoch window length; fails while a window is
// still streaming.
func (a *Accumulator) SetDuration(duration time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.epoch.setDuration(a.clk.Unix(), uint64(duration/time.Second))
}

// Epoch returns a copy of the current epoch state.
func (a *Accumulator) Epoch() Epoch {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.epoch.clone()
}

// RewardPerShareStored returns the stored accumulator value.
func (a *Accumulator) RewardPerShareStored() *big.Int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return new(big.Int).Set(a.perShareStored)
}

// TotalDistributed returns the cumulative claimed reward.
func (a *Accumulator) TotalDistributed() *big.Int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return new(big.Int).Set(a.totalDistributed)
}

// Position returns the account's checkpointed reward bookkeeping.
func (a *Accumulator) Position(account ids.ShortID) (accrued, checkpoint *big.Int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if pos, ok := a.positions[account]; ok {
		return new(big.Int).Set(pos.accrued), new(big.Int).Set(pos.checkpoint)
	}
	return new(big.Int), new(big.Int)
}

// LoadPosition seeds an account's bookkeeping during rehydration.
func (a *Accumulator) LoadPosition(account ids.ShortID, accrued, checkpoint *big.Int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.positions[account] = &position{
		accrued:    new(big.Int).Set(accrued),
		checkpoint: new(big.Int).Set(checkpoint),
	}
}

// State is the accumulator's persistable global state.
type State struct {
	Rate                 *big.Int `json:"rate"`
	PeriodFinish         uint64   `json:"periodFinish"`
	Duration             uint64   `json:"duration"`
	LastUpdate           uint64   `json:"lastUpdate"`
	RewardPerShareStored *big.Int `json:"rewardPerShareStored"`
	TotalDistributed     *big.Int `json:"totalDistributed"`
}

// GlobalState returns the persistable global state.
func (a *Accumulator) GlobalState() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return State{
		Rate:                 new(big.Int).Set(a.epoch.rate),
		PeriodFinish:         a.epoch.periodFinish,
		Duration:             a.epoch.duration,
		LastUpdate:           a.epoch.lastUpdate,
		RewardPerShareStored: new(big.Int).Set(a.perShareStored),
		TotalDistributed:     new(big.Int).Set(a.totalDistributed),
	}
}

// LoadGlobalState rehydrates the global state.
func (a *Accumulator) LoadGlobalState(state State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.epoch = Epoch{
		rate:         new(big.Int).Set(state.Rate),
		periodFinish: state.PeriodFinish,
		duration:     state.Duration,
		lastUpdate:   state.LastUpdate,
	}
	a.perShareStored = new(big.Int).Set(state.RewardPerShareStored)
	a.totalDistributed = new(big.Int).Set(state.TotalDistributed)
}

// Snapshot captures the globals and one account's bookkeeping for
// rollback within a single operation.
type Snapshot struct {
	epoch            Epoch
	perShareStored   *big.Int
	totalDistributed *big.Int
	account          ids.ShortID
	existed          bool
	accrued          *big.Int
	checkpoint       *big.Int
}

// Snapshot captures the state needed to undo a mutation touching
// account.
func (a *Accumulator) Snapshot(account ids.ShortID) Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap := Snapshot{
		epoch:            a.epoch.clone(),
		perShareStored:   new(big.Int).Set(a.perShareStored),
		totalDistributed: new(big.Int).Set(a.totalDistributed),
		account:          account,
	}
	if pos, ok := a.positions[account]; ok {
		snap.existed = true
		snap.accrued = new(big.Int).Set(pos.accrued)
		snap.checkpoint = new(big.Int).Set(pos.checkpoint)
	}
	return snap
}

// Restore rolls the accumulator back to a snapshot taken earlier in
// the same operation.
func (a *Accumulator) Restore(snap Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.epoch = snap.epoch.clone()
	a.perShareStored.Set(snap.perShareStored)
	a.totalDistributed.Set(snap.totalDistributed)
	if snap.existed {
		a.positions[snap.account] = &position{
			accrued:    new(big.Int).Set(snap.accrued),
			checkpoint: new(big.Int).Set(snap.checkpoint),
		}
	} else {
		delete(a.positions, snap.account)
	}
}
