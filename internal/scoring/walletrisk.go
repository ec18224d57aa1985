package scoring

import (
	"token-snipe-engine/internal/domain"
)

// WalletRisk computes the composite wallet outcome-history score for
// the wallets behind a token. The result goes onto the token context;
// callers decide how to blend it, it is never added to the score
// directly.
func WalletRisk(profiles []*domain.WalletProfile) float64 {
	var composite float64
	for _, p := range profiles {
		if p == nil {
			continue
		}
		composite += p.ImpactScore()
	}
	return composite
}
