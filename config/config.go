// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines configuration for the staking vault.
package config

import (
	"time"

	"github.com/luxfi/ids"
)

// Config contains the vault's operating parameters.
type Config struct {
	// VaultAddress is the identity that custodies deposited and reward
	// assets.
	VaultAddress ids.ShortID `json:"vaultAddress"`
	// Owner may pause the vault, change the rewards duration and
	// recover foreign assets.
	Owner ids.ShortID `json:"owner"`
	// RewardsDistributor may fund new reward epochs.
	RewardsDistributor ids.ShortID `json:"rewardsDistributor"`

	// RewardsDuration is the streaming window length for each funded
	// epoch.
	RewardsDuration time.Duration `json:"rewardsDuration"`

	// StartPaused starts the vault with staking disabled.
	StartPaused bool `json:"startPaused"`

	// MaxEventHistory bounds the in-memory event log.
	MaxEventHistory int `json:"maxEventHistory"`
}

// DefaultConfig returns the default vault configuration.
func DefaultConfig() Config {
	return Config{
		RewardsDuration: 7 * 24 * time.Hour,
		StartPaused:     false,
		MaxEventHistory: 1024,
	}
}
