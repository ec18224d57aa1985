package domain

// TokenMetadata describes static facts about a token at decision time.
type TokenMetadata struct {
	Creator   string
	CreatedAt int64 // Unix timestamp in milliseconds
}

// LiquidityInsight is the LP view of a token.
type LiquidityInsight struct {
	LPStatus      string // "locked" | "unlocked" | "unknown"
	LPLockExpires int64  // seconds until lock expiry; 0 when unknown
	LiquiditySOL  float64
	BundleLaunch  bool
}

// WalletInsight aggregates wallet-cluster observations for a token.
type WalletInsight struct {
	Buyers       int
	SniperCount  int
	WhalePresent bool
	CabalPresent bool
}

// ChartInsight carries chart/volume indicator scores from the chart
// collaborator. Scores are bucket points, not percentages.
type ChartInsight struct {
	ChartScore     float64
	VolumeSpike    bool
	VolumeDistort  float64
	SniperPressure float64
}

// TokenContext is the aggregated view of one token at decision time.
// Built fresh per evaluation; never persisted as a single object.
type TokenContext struct {
	TokenName    string
	TokenAddress string
	Metadata     TokenMetadata
	Liquidity    LiquidityInsight
	Wallet       WalletInsight
	Chart        ChartInsight

	SocialMentions int
	Keywords       []string

	// Wallets are the addresses observed buying or deploying the
	// token, used for wallet-risk lookups and outcome reinforcement.
	Wallets []string

	// Signals is the trait snapshot recorded into signal pattern memory
	// on outcome, e.g. {"lp_status": "locked", "whales": "true"}.
	Signals map[string]string

	// Reasoning accumulates short tags describing why score components
	// fired. Appended to by the gate and scoring stages.
	Reasoning []string

	// ScorePenalty is a pre-scoring penalty carried from ingestion,
	// applied once to the base score before reinforcement adjustments.
	ScorePenalty float64

	// WalletRisk is the composite wallet outcome-history score computed
	// by the wallet risk weighter. Stored on the context so callers
	// decide the blend; it is not blindly added to the score.
	WalletRisk float64

	// Reputation is the historical reputation score for this token.
	Reputation float64
}

// AgeMinutes returns the token age in whole minutes at time nowMs.
// Unknown creation time yields zero, which routes to the snipe profile.
func (c *TokenContext) AgeMinutes(nowMs int64) int {
	if c.Metadata.CreatedAt <= 0 || nowMs <= c.Metadata.CreatedAt {
		return 0
	}
	return int((nowMs - c.Metadata.CreatedAt) / 60000)
}

// HasReason reports whether tag is present in the reasoning list.
func (c *TokenContext) HasReason(tag string) bool {
	for _, r := range c.Reasoning {
		if r == tag {
			return true
		}
	}
	return false
}
