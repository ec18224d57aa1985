package scoring

import (
	"strings"

	"token-snipe-engine/internal/domain"
)

// Reasoning tags emitted by the base scorers.
const (
	TagLPLocked      = "lp_locked"
	TagLPUnlocked    = "lp_unlocked"
	TagBundleLaunch  = "bundle_launch"
	TagWhaleEntry    = "whale_entry"
	TagCabalCluster  = "cabal_cluster"
	TagVolumeSpike   = "volume_spike"
	TagVolumeDistort = "volume_distort"
	TagKeywordHype   = "keyword_hype"
	TagEarlyBuyers   = "early_buyers"
)

// hypeKeywords are token-name fragments that historically mark hyped
// launches. Matching only tags the context; the weight memory decides
// whether hype is good or bad.
var hypeKeywords = []string{"inu", "pepe", "elon", "moon", "ai", "trump", "doge"}

// baseWeights is the per-mode blend of feature buckets. Each bucket
// scores [0,10]; the weighted average is scaled to [0,100].
type baseWeights struct {
	flow      float64
	wallet    float64
	liquidity float64
	social    float64
	chart     float64
}

var snipeWeights = baseWeights{flow: 3, liquidity: 3, wallet: 2, social: 1, chart: 1}
var tradeWeights = baseWeights{flow: 1, liquidity: 1.5, wallet: 2, social: 2.5, chart: 3}

// BaseScore computes the mode's blended feature score and appends the
// reasoning tags for the components that fired.
func BaseScore(tc *domain.TokenContext, mode domain.Mode) float64 {
	w := snipeWeights
	if mode == domain.ModeTrade {
		w = tradeWeights
	}

	flow := flowBucket(tc)
	wallet := walletBucket(tc)
	liquidity := liquidityBucket(tc)
	social := socialBucket(tc)
	chart := chartBucket(tc)

	sum := w.flow + w.wallet + w.liquidity + w.social + w.chart
	if sum <= 0 {
		return 0
	}

	blended := (flow*w.flow + wallet*w.wallet + liquidity*w.liquidity +
		social*w.social + chart*w.chart) * (10 / sum)
	return clamp100(blended)
}

func flowBucket(tc *domain.TokenContext) float64 {
	pts := tc.Chart.SniperPressure * 0.6
	if pts > 4 {
		pts = 4
	}
	switch {
	case tc.Wallet.Buyers >= 50:
		pts += 2
		appendTag(tc, TagEarlyBuyers)
	case tc.Wallet.Buyers >= 20:
		pts += 1
		appendTag(tc, TagEarlyBuyers)
	}
	if tc.Liquidity.LiquiditySOL > 0 {
		pts += 2
	}
	if tc.Chart.VolumeSpike {
		pts += 2
		appendTag(tc, TagVolumeSpike)
	}
	return clampBucket(pts)
}

func walletBucket(tc *domain.TokenContext) float64 {
	var pts float64
	if tc.Wallet.WhalePresent {
		pts += 3
		appendTag(tc, TagWhaleEntry)
	}
	if tc.Wallet.CabalPresent {
		pts -= 3
		appendTag(tc, TagCabalCluster)
	}
	sniper := float64(tc.Wallet.SniperCount) * 0.5
	if sniper > 4 {
		sniper = 4
	}
	pts += sniper
	return clampBucket(pts)
}

func liquidityBucket(tc *domain.TokenContext) float64 {
	var pts float64
	switch tc.Liquidity.LPStatus {
	case "locked":
		pts += 3
		appendTag(tc, TagLPLocked)
	case "unlocked":
		appendTag(tc, TagLPUnlocked)
	}
	pts += scale(tc.Liquidity.LiquiditySOL, 5, 50) * 4
	if tc.Liquidity.BundleLaunch {
		pts -= 3
		appendTag(tc, TagBundleLaunch)
	}
	return clampBucket(pts)
}

func socialBucket(tc *domain.TokenContext) float64 {
	pts := float64(tc.SocialMentions) * 0.5
	if pts > 6 {
		pts = 6
	}
	if matchesHypeKeyword(tc) {
		pts += 2
		appendTag(tc, TagKeywordHype)
	}
	return clampBucket(pts)
}

func chartBucket(tc *domain.TokenContext) float64 {
	pts := tc.Chart.ChartScore / 2
	if tc.Chart.VolumeDistort > 0.5 {
		pts -= tc.Chart.VolumeDistort * 2
		appendTag(tc, TagVolumeDistort)
	}
	return clampBucket(pts)
}

func matchesHypeKeyword(tc *domain.TokenContext) bool {
	name := strings.ToLower(tc.TokenName)
	for _, kw := range tc.Keywords {
		name += " " + strings.ToLower(kw)
	}
	for _, hype := range hypeKeywords {
		if strings.Contains(name, hype) {
			return true
		}
	}
	return false
}

func appendTag(tc *domain.TokenContext, tag string) {
	if !tc.HasReason(tag) {
		tc.Reasoning = append(tc.Reasoning, tag)
	}
}

// BaseAction maps a blended score to the mode's base action. The
// overlay may later upgrade or veto it.
func BaseAction(score float64, mode domain.Mode) domain.Action {
	if score < 50 {
		return domain.ActionIgnore
	}
	if mode == domain.ModeTrade {
		return domain.ActionTrade
	}
	return domain.ActionSnipe
}
