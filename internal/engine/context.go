package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"token-snipe-engine/internal/domain"
)

// EventContextBuilder assembles a token context from the event alone.
// Collaborator insights (LP lock state, chart indicators, socials)
// arrive through the event payload when the upstream parser supplies
// them; missing fields stay at their neutral zero values and degrade
// the score rather than blocking the evaluation.
type EventContextBuilder struct{}

// NewEventContextBuilder creates a payload-driven context builder.
func NewEventContextBuilder() *EventContextBuilder {
	return &EventContextBuilder{}
}

var _ ContextBuilder = (*EventContextBuilder)(nil)

// Build creates the decision-time context for one event.
func (b *EventContextBuilder) Build(_ context.Context, event *domain.Event) (*domain.TokenContext, error) {
	if event == nil || event.TokenAddress == "" {
		return nil, fmt.Errorf("build context: missing token address")
	}

	tc := &domain.TokenContext{
		TokenAddress: event.TokenAddress,
		TokenName:    payloadString(event.Payload, "name"),
		Wallets:      append([]string(nil), event.Wallets...),
		Signals:      map[string]string{"event_kind": string(event.Kind)},
	}

	// A mint or pool-creation event marks the launch moment; swaps on
	// an unknown token leave the age unknown, which the router treats
	// as fresh.
	switch event.Kind {
	case domain.EventLPCreate, domain.EventMint:
		tc.Metadata.CreatedAt = event.Timestamp
	}

	tc.Liquidity.LPStatus = payloadStringDefault(event.Payload, "lp_status", "unknown")
	tc.Liquidity.LPLockExpires = payloadInt64(event.Payload, "lp_lock_expires")
	tc.Liquidity.LiquiditySOL = payloadFloat(event.Payload, "liquidity_sol")
	tc.Liquidity.BundleLaunch = payloadBool(event.Payload, "bundle_launch")

	tc.Wallet.Buyers = int(payloadInt64(event.Payload, "buyers"))
	tc.Wallet.SniperCount = int(payloadInt64(event.Payload, "snipers"))
	tc.Wallet.WhalePresent = payloadBool(event.Payload, "whale_present")
	tc.Wallet.CabalPresent = payloadBool(event.Payload, "cabal_present")

	tc.Chart.ChartScore = payloadFloat(event.Payload, "chart_score")
	tc.Chart.VolumeSpike = payloadBool(event.Payload, "volume_spike")
	tc.Chart.VolumeDistort = payloadFloat(event.Payload, "volume_distort")
	tc.Chart.SniperPressure = payloadFloat(event.Payload, "sniper_pressure")

	tc.SocialMentions = int(payloadInt64(event.Payload, "mentions"))
	if kw := payloadString(event.Payload, "keywords"); kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				tc.Keywords = append(tc.Keywords, k)
			}
		}
	}

	if tc.Liquidity.LPStatus != "" {
		tc.Signals["lp_status"] = tc.Liquidity.LPStatus
	}
	if tc.Wallet.WhalePresent {
		tc.Signals["whales"] = "true"
	}
	if tc.Liquidity.BundleLaunch {
		tc.Signals["bundle"] = "true"
	}

	return tc, nil
}

func payloadString(p map[string]any, key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

func payloadStringDefault(p map[string]any, key, fallback string) string {
	if s := payloadString(p, key); s != "" {
		return s
	}
	return fallback
}

// payloadInt64 reads a numeric payload field. JSON decoding yields
// float64 for all numbers, so both forms are accepted.
func payloadInt64(p map[string]any, key string) int64 {
	switch v := p[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return n
		}
	}
	return 0
}

func payloadFloat(p map[string]any, key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func payloadBool(p map[string]any, key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}
