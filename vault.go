// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vault implements a share-based staking vault. Deposits of a
// fungible asset mint non-transferable shares scaled by an external
// boost multiplier, and a separate reward asset streams to
// shareholders pro rata over funded epochs.
//
// Every state-changing operation runs the same ordered pipeline:
// exclusivity acquisition, pause check where applicable, reward
// checkpoint for the affected account, ledger mutation, external asset
// transfer, event record. Any failure rolls the whole operation back.
package vault

import (
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/vault/config"
	"github.com/luxfi/vault/ledger"
	"github.com/luxfi/vault/oracle"
	"github.com/luxfi/vault/reward"
	"github.com/luxfi/vault/state"
	"github.com/luxfi/vault/token"
	"github.com/luxfi/vault/utils/timer/mockable"
)

// Vault orchestrates the reward accumulator, the balance ledger and
// the external asset ports.
type Vault struct {
	cfg   config.Config
	log   log.Logger
	clock mockable.Clock

	// busy is the reentrancy exclusivity guard: any overlapping
	// operation attempt fails immediately instead of queuing.
	busy   atomic.Bool
	paused atomic.Bool

	ledger      *ledger.Ledger
	converter   *ledger.Converter
	accumulator *reward.Accumulator

	depositAsset token.Token
	rewardAsset  token.Token
	shares       *token.NonTransferable

	store   *state.Store
	metrics *vaultMetrics

	eventsMu sync.RWMutex
	events   []Event
}

// New creates a vault around the given asset ports and oracles.
func New(
	cfg config.Config,
	depositAsset token.Token,
	rewardAsset token.Token,
	multiplier oracle.MultiplierOracle,
	reserves oracle.ReserveOracle,
	logger log.Logger,
) (*Vault, error) {
	if cfg.RewardsDuration <= 0 {
		return nil, reward.ErrZeroDuration
	}

	v := &Vault{
		cfg:          cfg,
		log:          logger,
		ledger:       ledger.New(),
		depositAsset: depositAsset,
		rewardAsset:  rewardAsset,
	}
	v.converter = ledger.NewConverter(v.ledger, multiplier, reserves)
	v.accumulator = reward.NewAccumulator(&v.clock, cfg.RewardsDuration)
	v.shares = token.NewNonTransferable(shareTokenID(depositAsset.ID()), v.ledger)
	v.paused.Store(cfg.StartPaused)
	return v, nil
}

// shareTokenID derives a distinct identity for the share view from the
// deposit asset's.
func shareTokenID(depositAsset ids.ID) ids.ID {
	shareID := depositAsset
	shareID[0] ^= 0xff
	return shareID
}

// RegisterMetrics registers the vault's metrics on registerer.
func (v *Vault) RegisterMetrics(registerer metric.Registerer) error {
	m, err := newMetrics(registerer)
	if err != nil {
		return err
	}
	v.metrics = m
	return nil
}

// UseStore attaches a durable store and rehydrates any persisted state
// from it.
func (v *Vault) UseStore(store *state.Store) error {
	globals, ok, err := store.GetGlobals()
	if err != nil {
		return err
	}
	if ok {
		v.accumulator.LoadGlobalState(globals)
		records, err := store.Accounts()
		if err != nil {
			return err
		}
		for _, record := range records {
			v.ledger.LoadAccount(record.Address, record.AssetBalance, record.ShareBalance)
			v.accumulator.LoadPosition(record.Address, record.RewardAccrued, record.RewardPerShareCheckpoint)
		}
	}
	v.store = store
	return nil
}

// Clock returns the vault's clock for test control.
func (v *Vault) Clock() *mockable.Clock {
	return &v.clock
}

// Deposit stakes assets for receiver and returns the shares minted.
func (v *Vault) Deposit(caller ids.ShortID, assets *big.Int, receiver ids.ShortID) (*big.Int, error) {
	if err := v.enter(); err != nil {
		return nil, err
	}
	defer v.exit()
	if err := v.requireNotPaused(); err != nil {
		return nil, err
	}

	rollback := v.snapshot(receiver)
	v.checkpoint(receiver)

	shares, err := v.converter.DepositShares(receiver, assets)
	if err != nil {
		rollback()
		return nil, err
	}
	if err := v.ledger.ApplyDeposit(caller, receiver, assets, shares); err != nil {
		rollback()
		return nil, err
	}
	if err := v.depositAsset.TransferFrom(v.cfg.VaultAddress, caller, v.cfg.VaultAddress, assets); err != nil {
		rollback()
		return nil, err
	}

	v.persist(receiver)
	v.record(Event{
		Type:     EventDeposit,
		Account:  caller,
		Receiver: receiver,
		Assets:   new(big.Int).Set(assets),
		Shares:   new(big.Int).Set(shares),
	})
	if v.metrics != nil {
		v.metrics.numDeposits.Inc()
		v.observeTotals()
	}
	return shares, nil
}

// Mint stakes exactly enough assets to issue shares to receiver and
// returns the assets pulled; the dual of Deposit.
func (v *Vault) Mint(caller ids.ShortID, shares *big.Int, receiver ids.ShortID) (*big.Int, error) {
	if err := v.enter(); err != nil {
		return nil, err
	}
	defer v.exit()
	if err := v.requireNotPaused(); err != nil {
		return nil, err
	}

	rollback := v.snapshot(receiver)
	v.checkpoint(receiver)

	assets, err := v.converter.MintAssets(receiver, shares)
	if err != nil {
		rollback()
		return nil, err
	}
	if err := v.ledger.ApplyDeposit(caller, receiver, assets, shares); err != nil {
		rollback()
		return nil, err
	}
	if err := v.depositAsset.TransferFrom(v.cfg.VaultAddress, caller, v.cfg.VaultAddress, assets); err != nil {
		rollback()
		return nil, err
	}

	v.persist(receiver)
	v.record(Event{
		Type:     EventDeposit,
		Account:  caller,
		Receiver: receiver,
		Assets:   new(big.Int).Set(assets),
		Shares:   new(big.Int).Set(shares),
	})
	if v.metrics != nil {
		v.metrics.numDeposits.Inc()
		v.observeTotals()
	}
	return assets, nil
}

// Withdraw unstakes assets from owner's position, paying receiver, and
// returns the shares burned.
func (v *Vault) Withdraw(caller ids.ShortID, assets *big.Int, receiver, owner ids.ShortID) (*big.Int, error) {
	if err := v.enter(); err != nil {
		return nil, err
	}
	defer v.exit()
	if err := v.requireNotPaused(); err != nil {
		return nil, err
	}

	rollback := v.snapshot(owner)
	v.checkpoint(owner)

	shares := v.converter.WithdrawShares(owner, assets)
	if err := v.ledger.ApplyWithdraw(caller, owner, assets, shares); err != nil {
		rollback()
		return nil, err
	}
	if err := v.depositAsset.Transfer(v.cfg.VaultAddress, receiver, assets); err != nil {
		rollback()
		return nil, err
	}

	v.persist(owner)
	v.record(Event{
		Type:     EventWithdrawal,
		Account:  owner,
		Receiver: receiver,
		Assets:   new(big.Int).Set(assets),
		Shares:   new(big.Int).Set(shares),
	})
	if v.metrics != nil {
		v.metrics.numWithdrawals.Inc()
		v.observeTotals()
	}
	return shares, nil
}

// Redeem burns shares from owner's position, paying receiver, and
// returns the assets released; the dual of Withdraw.
func (v *Vault) Redeem(caller ids.ShortID, shares *big.Int, receiver, owner ids.ShortID) (*big.Int, error) {
	if err := v.enter(); err != nil {
		return nil, err
	}
	defer v.exit()
	if err := v.requireNotPaused(); err != nil {
		return nil, err
	}

	rollback := v.snapshot(owner)
	v.checkpoint(owner)

	assets := v.converter.RedeemAssets(owner, shares)
	if err := v.ledger.ApplyWithdraw(caller, owner, assets, shares); err != nil {
		rollback()
		return nil, err
	}
	if err := v.depositAsset.Transfer(v.cfg.VaultAddress, receiver, assets); err != nil {
		rollback()
		return nil, err
	}

	v.persist(owner)
	v.record(Event{
		Type:     EventWithdrawal,
		Account:  owner,
		Receiver: receiver,
		Assets:   new(big.Int).Set(assets),
		Shares:   new(big.Int).Set(shares),
	})
	if v.metrics != nil {
		v.metrics.numWithdrawals.Inc()
		v.observeTotals()
	}
	return assets, nil
}

// ClaimReward pays out the caller's checkpointed reward.
func (v *Vault) ClaimReward(caller ids.ShortID) (*big.Int, error) {
	if err := v.enter(); err != nil {
		return nil, err
	}
	defer v.exit()

	rollback := v.snapshot(caller)
	v.checkpoint(caller)

	amount, err := v.accumulator.TakeAccrued(caller)
	if err != nil {
		rollback()
		return nil, err
	}
	if err := v.rewardAsset.Transfer(v.cfg.VaultAddress, caller, amount); err != nil {
		rollback()
		return nil, err
	}

	v.persist(caller)
	v.record(Event{
		Type:    EventRewardPaid,
		Account: caller,
		Reward:  new(big.Int).Set(amount),
	})
	if v.metrics != nil {
		v.metrics.numClaims.Inc()
	}
	return amount, nil
}

// Exit withdraws the caller's entire position and claims any pending
// reward, returning the reward paid.
func (v *Vault) Exit(caller ids.ShortID) (*big.Int, error) {
	if err := v.enter(); err != nil {
		return nil, err
	}
	defer v.exit()
	if err := v.requireNotPaused(); err != nil {
		return nil, err
	}

	rollback := v.snapshot(caller)
	v.checkpoint(caller)

	assets := v.ledger.AssetBalanceOf(caller)
	shares := v.converter.WithdrawShares(caller, assets)
	if err := v.ledger.ApplyWithdraw(caller, caller, assets, shares); err != nil {
		rollback()
		return nil, err
	}

	// The reward payout runs before the principal push so a failed
	// payout aborts before any asset leaves custody.
	claimed := new(big.Int)
	if amount, err := v.accumulator.TakeAccrued(caller); err == nil {
		if err := v.rewardAsset.Transfer(v.cfg.VaultAddress, caller, amount); err != nil {
			rollback()
			return nil, err
		}
		claimed = amount
	}
	if err := v.depositAsset.Transfer(v.cfg.VaultAddress, caller, assets); err != nil {
		// Return the reward already paid before undoing the books.
		if claimed.Sign() > 0 {
			if rerr := v.rewardAsset.Transfer(caller, v.cfg.VaultAddress, claimed); rerr != nil {
				v.log.Error("failed to return reward after aborted exit",
					"account", caller,
					"reward", claimed,
					"error", rerr,
				)
			}
		}
		rollback()
		return nil, err
	}

	v.persist(caller)
	v.record(Event{
		Type:     EventWithdrawal,
		Account:  caller,
		Receiver: caller,
		Assets:   new(big.Int).Set(assets),
		Shares:   new(big.Int).Set(shares),
		Reward:   new(big.Int).Set(claimed),
	})
	if v.metrics != nil {
		v.metrics.numWithdrawals.Inc()
		if claimed.Sign() > 0 {
			v.metrics.numClaims.Inc()
		}
		v.observeTotals()
	}
	return claimed, nil
}

// NotifyReward funds a new streaming epoch of amount reward units. The
// reward asset must already be in vault custody. Restricted to the
// rewards distributor.
func (v *Vault) NotifyReward(caller ids.ShortID, amount *big.Int) error {
	if err := v.enter(); err != nil {
		return err
	}
	defer v.exit()
	if err := v.requireDistributor(caller); err != nil {
		return err
	}

	rollback := v.snapshot(ids.ShortEmpty)
	v.checkpoint(ids.ShortEmpty)

	custody := v.rewardAsset.BalanceOf(v.cfg.VaultAddress)
	if err := v.accumulator.NotifyReward(amount, custody); err != nil {
		rollback()
		return err
	}

	v.persist()
	v.record(Event{
		Type:    EventRewardAdded,
		Account: caller,
		Reward:  new(big.Int).Set(amount),
	})
	if v.metrics != nil {
		v.metrics.numNotifies.Inc()
		v.observeTotals()
	}
	return nil
}

// SetRewardsDuration changes the epoch window length; only allowed
// between epochs. Restricted to the owner.
func (v *Vault) SetRewardsDuration(caller ids.ShortID, duration time.Duration) error {
	if err := v.enter(); err != nil {
		return err
	}
	defer v.exit()
	if err := v.requireOwner(caller); err != nil {
		return err
	}

	if err := v.accumulator.SetDuration(duration); err != nil {
		return err
	}

	v.persist()
	v.record(Event{
		Type:     EventDurationUpdated,
		Account:  caller,
		Duration: duration,
	})
	return nil
}

// SetPaused toggles the staking pause. Restricted to the owner.
func (v *Vault) SetPaused(caller ids.ShortID, paused bool) error {
	if err := v.enter(); err != nil {
		return err
	}
	defer v.exit()
	if err := v.requireOwner(caller); err != nil {
		return err
	}

	v.paused.Store(paused)
	v.record(Event{
		Type:    EventPauseChanged,
		Account: caller,
		Paused:  paused,
	})
	return nil
}

// RecoverForeignAsset sends amount of a token mistakenly held by the
// vault to the owner. The deposit asset can never be recovered.
// Restricted to the owner.
func (v *Vault) RecoverForeignAsset(caller ids.ShortID, tok token.Token, amount *big.Int) error {
	if err := v.enter(); err != nil {
		return err
	}
	defer v.exit()
	if err := v.requireOwner(caller); err != nil {
		return err
	}
	if tok.ID() == v.depositAsset.ID() {
		return ErrForbiddenAssetRecovery
	}

	if err := tok.Transfer(v.cfg.VaultAddress, v.cfg.Owner, amount); err != nil {
		return err
	}

	v.record(Event{
		Type:    EventAssetRecovered,
		Account: caller,
		Token:   tok.ID(),
		Assets:  new(big.Int).Set(amount),
	})
	return nil
}

// checkpoint freezes the account's reward accrual at now. It must run
// before any change to the account's share balance.
func (v *Vault) checkpoint(account ids.ShortID) {
	v.accumulator.Checkpoint(account, v.ledger.ShareBalanceOf(account), v.ledger.TotalShares())
}

// snapshot captures everything an operation may mutate and returns the
// restore function used on any failure.
func (v *Vault) snapshot(account ids.ShortID) func() {
	ledgerSnap := v.ledger.Snapshot(account)
	rewardSnap := v.accumulator.Snapshot(account)
	return func() {
		v.ledger.Restore(ledgerSnap)
		v.accumulator.Restore(rewardSnap)
	}
}

// persist mirrors the touched accounts and the globals to the store.
// The store is a durability mirror: a failed commit is logged and the
// staged writes are discarded, leaving the store at its previous
// consistent snapshot.
func (v *Vault) persist(accounts ...ids.ShortID) {
	if v.store == nil {
		return
	}
	for _, account := range accounts {
		accrued, checkpoint := v.accumulator.Position(account)
		record := state.AccountRecord{
			Address:                  account,
			AssetBalance:             v.ledger.AssetBalanceOf(account),
			ShareBalance:             v.ledger.ShareBalanceOf(account),
			RewardAccrued:            accrued,
			RewardPerShareCheckpoint: checkpoint,
		}
		if err := v.store.PutAccount(record); err != nil {
			v.store.Abort()
			v.log.Warn("failed to stage account snapshot", "account", account, "error", err)
			return
		}
	}
	if err := v.store.PutGlobals(v.accumulator.GlobalState()); err != nil {
		v.store.Abort()
		v.log.Warn("failed to stage reward globals", "error", err)
		return
	}
	totals := state.Totals{
		TotalAssets: v.ledger.TotalAssets(),
		TotalShares: v.ledger.TotalShares(),
	}
	if err := v.store.PutTotals(totals); err != nil {
		v.store.Abort()
		v.log.Warn("failed to stage totals", "error", err)
		return
	}
	if err := v.store.Commit(); err != nil {
		v.store.Abort()
		v.log.Warn("failed to commit vault snapshot", "error", err)
	}
}

func (v *Vault) observeTotals() {
	v.metrics.observeTotals(
		v.ledger.TotalAssets(),
		v.ledger.TotalShares(),
		v.accumulator.Epoch().Rate(),
	)
}
