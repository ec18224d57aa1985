package scoring

import (
	"token-snipe-engine/internal/domain"
)

// Router picks the scoring profile for a token. Young, thinly bought,
// socially quiet tokens go to the snipe profile; established tokens to
// the trade profile. Ties favor snipe, the faster path.
type Router struct {
	MinAgeForTrade    int // minutes
	MinBuyerCount     int
	MinSocialMentions int
}

// NewRouter creates a router with the default thresholds.
func NewRouter() *Router {
	return &Router{
		MinAgeForTrade:    6,
		MinBuyerCount:     10,
		MinSocialMentions: 5,
	}
}

// Route selects the scoring mode for a token at time nowMs.
func (r *Router) Route(tc *domain.TokenContext, nowMs int64) domain.Mode {
	if tc.AgeMinutes(nowMs) < r.MinAgeForTrade ||
		tc.Wallet.Buyers < r.MinBuyerCount ||
		tc.SocialMentions < r.MinSocialMentions {
		return domain.ModeSnipe
	}
	return domain.ModeTrade
}
