// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"math/big"
	"time"

	"github.com/luxfi/ids"
)

// EventType identifies a vault event record.
type EventType string

const (
	EventDeposit         EventType = "deposit"
	EventWithdrawal      EventType = "withdrawal"
	EventRewardPaid      EventType = "rewardPaid"
	EventRewardAdded     EventType = "rewardAdded"
	EventDurationUpdated EventType = "durationUpdated"
	EventAssetRecovered  EventType = "assetRecovered"
	EventPauseChanged    EventType = "pauseChanged"
)

// Event is an operation record carrying the amounts moved and the
// resulting totals, for off-system reconciliation.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Account   ids.ShortID `json:"account"`
	Receiver  ids.ShortID `json:"receiver,omitempty"`

	Assets *big.Int `json:"assets,omitempty"`
	Shares *big.Int `json:"shares,omitempty"`
	Reward *big.Int `json:"reward,omitempty"`

	Token    ids.ID        `json:"token,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Paused   bool          `json:"paused,omitempty"`

	TotalAssets *big.Int `json:"totalAssets,omitempty"`
	TotalShares *big.Int `json:"totalShares,omitempty"`
}

// record appends an event to the bounded history and logs it.
func (v *Vault) record(event Event) {
	event.Timestamp = v.clock.Time()
	event.TotalAssets = v.ledger.TotalAssets()
	event.TotalShares = v.ledger.TotalShares()

	v.eventsMu.Lock()
	v.events = append(v.events, event)
	if limit := v.cfg.MaxEventHistory; limit > 0 && len(v.events) > limit {
		v.events = v.events[len(v.events)-limit:]
	}
	v.eventsMu.Unlock()

	v.log.Info("vault event",
		"type", event.Type,
		"account", event.Account,
		"assets", event.Assets,
		"shares", event.Shares,
		"reward", event.Reward,
		"totalAssets", event.TotalAssets,
		"totalShares", event.TotalShares,
	)
}

// Events returns a copy of the retained event history, oldest first.
func (v *Vault) Events() []Event {
	v.eventsMu.RLock()
	defer v.eventsMu.RUnlock()
	events := make([]Event, len(v.events))
	copy(events, v.events)
	return events
}
