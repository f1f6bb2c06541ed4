// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"math/big"

	"github.com/luxfi/metric"
)

type vaultMetrics struct {
	numDeposits    metric.Counter
	numWithdrawals metric.Counter
	numClaims      metric.Counter
	numNotifies    metric.Counter

	totalAssets metric.Gauge
	totalShares metric.Gauge
	rewardRate  metric.Gauge
}

func newMetrics(registerer metric.Registerer) (*vaultMetrics, error) {
	m := &vaultMetrics{
		numDeposits: metric.NewCounter(metric.CounterOpts{
			Name: "vault_deposits",
			Help: "Number of completed deposits and mints",
		}),
		numWithdrawals: metric.NewCounter(metric.CounterOpts{
			Name: "vault_withdrawals",
			Help: "Number of completed withdrawals, redeems and exits",
		}),
		numClaims: metric.NewCounter(metric.CounterOpts{
			Name: "vault_reward_claims",
			Help: "Number of completed reward claims",
		}),
		numNotifies: metric.NewCounter(metric.CounterOpts{
			Name: "vault_reward_notifications",
			Help: "Number of reward epoch top-ups",
		}),
		totalAssets: metric.NewGauge(metric.GaugeOpts{
			Name: "vault_total_assets",
			Help: "Total managed deposit assets",
		}),
		totalShares: metric.NewGauge(metric.GaugeOpts{
			Name: "vault_total_shares",
			Help: "Total outstanding shares",
		}),
		rewardRate: metric.NewGauge(metric.GaugeOpts{
			Name: "vault_reward_rate",
			Help: "Reward units streamed per second",
		}),
	}

	for _, counter := range []metric.Counter{
		m.numDeposits,
		m.numWithdrawals,
		m.numClaims,
		m.numNotifies,
	} {
		if err := registerer.Register(metric.AsCollector(counter)); err != nil {
			return nil, err
		}
	}
	for _, gauge := range []metric.Gauge{
		m.totalAssets,
		m.totalShares,
		m.rewardRate,
	} {
		if err := registerer.Register(metric.AsCollector(gauge)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *vaultMetrics) observeTotals(totalAssets, totalShares, rate *big.Int) {
	m.totalAssets.Set(bigToFloat(totalAssets))
	m.totalShares.Set(bigToFloat(totalShares))
	m.rewardRate.Set(bigToFloat(rate))
}

func bigToFloat(x *big.Int) float64 {
	f, _ := new(big.Float).SetInt(x).Float64()
	return f
}
