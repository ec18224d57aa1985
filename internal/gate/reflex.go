package gate

import (
	"token-snipe-engine/internal/domain"
)

// Reflex override reasons.
const (
	ReasonFakeLPLock      = "fake_lp_lock"
	ReasonWalletSwarm     = "wallet_swarm"
	ReasonFakeVolumeSpike = "fake_volume_spike"
)

// ReflexOverride catches rare but dangerous edge cases after scoring.
// Any trigger forces an avoid regardless of score.
type ReflexOverride struct {
	// MaxLockExpiry is the lock expiry (seconds) below which a stated
	// LP lock is treated as fake. A lock claimed without expiry data,
	// or with the expiry already past, falls below any threshold.
	MaxLockExpiry int64
	// MaxBuyers is the early-buyer count above which the token looks
	// like a coordinated wallet swarm.
	MaxBuyers int
	// SpikeChartScore and SpikeSniperPressure together describe the
	// volume-spike honeypot signature: a chart this hot with near-zero
	// sniper pressure is synthetic.
	SpikeChartScore     float64
	SpikeSniperPressure float64
}

// NewReflexOverride creates an override with the default thresholds.
func NewReflexOverride() *ReflexOverride {
	return &ReflexOverride{
		MaxLockExpiry:       300,
		MaxBuyers:           100,
		SpikeChartScore:     18,
		SpikeSniperPressure: 1,
	}
}

// Check inspects the token context for override conditions. Returns
// true and the triggered reasons when the token must be avoided.
func (r *ReflexOverride) Check(tc *domain.TokenContext) (bool, []string) {
	var reasons []string

	if tc.Liquidity.LPStatus == LPStatusLocked && tc.Liquidity.LPLockExpires < r.MaxLockExpiry {
		reasons = append(reasons, ReasonFakeLPLock)
	}
	if tc.Wallet.Buyers > r.MaxBuyers {
		reasons = append(reasons, ReasonWalletSwarm)
	}
	if tc.Chart.ChartScore >= r.SpikeChartScore && tc.Chart.SniperPressure <= r.SpikeSniperPressure {
		reasons = append(reasons, ReasonFakeVolumeSpike)
	}

	return len(reasons) > 0, reasons
}
