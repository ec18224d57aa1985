package domain

// Wallet cluster tags assigned by the feedback router.
const (
	ClusterTagCabal = "cabal"
	ClusterTagWhale = "whale"
)

// WalletProfile is the per-wallet aggregate maintained by the
// reinforcement memory. Created on first reinforcement event for the
// wallet; updated additively; never hard-deleted (influence decays
// asymptotically toward zero instead).
type WalletProfile struct {
	Address     string
	Outcomes    OutcomeHistogram
	ClusterTags []string
	Influence   float64
	LastSeen    int64 // Unix timestamp in milliseconds
}

// ImpactScore returns the outcome-history score for this wallet using
// the fixed wallet impact table.
func (p *WalletProfile) ImpactScore() float64 {
	return WalletImpact[OutcomeRug]*float64(p.Outcomes.Rug) +
		WalletImpact[OutcomeDead]*float64(p.Outcomes.Dead) +
		WalletImpact[OutcomeLoss]*float64(p.Outcomes.Loss) +
		WalletImpact[OutcomeProfit]*float64(p.Outcomes.Profit) +
		WalletImpact[OutcomeMoon]*float64(p.Outcomes.Moon)
}

// HasTag reports whether the profile carries the given cluster tag.
func (p *WalletProfile) HasTag(tag string) bool {
	for _, t := range p.ClusterTags {
		if t == tag {
			return true
		}
	}
	return false
}
