// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import "github.com/luxfi/ids"

// The guards below form the fixed pre-condition pipeline every public
// operation runs: exclusivity first, then pause state, then role.

// enter acquires the exclusivity guard. A call that overlaps a running
// operation, including reentry through an external asset transfer,
// fails immediately rather than blocking.
func (v *Vault) enter() error {
	if !v.busy.CompareAndSwap(false, true) {
		return ErrReentrancyBlocked
	}
	return nil
}

// exit releases the exclusivity guard.
func (v *Vault) exit() {
	v.busy.Store(false)
}

func (v *Vault) requireNotPaused() error {
	if v.paused.Load() {
		return ErrPaused
	}
	return nil
}

func (v *Vault) requireOwner(caller ids.ShortID) error {
	if caller != v.cfg.Owner {
		return ErrUnauthorized
	}
	return nil
}

func (v *Vault) requireDistributor(caller ids.ShortID) error {
	if caller != v.cfg.RewardsDistributor {
		return ErrUnauthorized
	}
	return nil
}
