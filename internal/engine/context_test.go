package engine

import (
	"context"
	"testing"

	"token-snipe-engine/internal/domain"
)

func TestBuildFromLPCreateEvent(t *testing.T) {
	b := NewEventContextBuilder()

	event := &domain.Event{
		Kind:         domain.EventLPCreate,
		TokenAddress: "TokenBuild11111111111111111111111111111111",
		Wallets:      []string{"WalletA", "WalletB"},
		Timestamp:    1_700_000_300_000,
		Payload: map[string]any{
			"name":            "PEPE2",
			"lp_status":       "locked",
			"lp_lock_expires": float64(3600),
			"liquidity_sol":   42.5,
			"buyers":          float64(60),
			"whale_present":   true,
			"mentions":        float64(8),
			"keywords":        "pepe, moon",
		},
	}

	tc, err := b.Build(context.Background(), event)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if tc.TokenAddress != event.TokenAddress {
		t.Errorf("TokenAddress = %q", tc.TokenAddress)
	}
	if tc.TokenName != "PEPE2" {
		t.Errorf("TokenName = %q, want PEPE2", tc.TokenName)
	}
	if tc.Metadata.CreatedAt != event.Timestamp {
		t.Errorf("CreatedAt = %d, want event timestamp", tc.Metadata.CreatedAt)
	}
	if tc.Liquidity.LPStatus != "locked" || tc.Liquidity.LPLockExpires != 3600 {
		t.Errorf("liquidity = %+v", tc.Liquidity)
	}
	if tc.Liquidity.LiquiditySOL != 42.5 {
		t.Errorf("LiquiditySOL = %v", tc.Liquidity.LiquiditySOL)
	}
	if tc.Wallet.Buyers != 60 || !tc.Wallet.WhalePresent {
		t.Errorf("wallet = %+v", tc.Wallet)
	}
	if tc.SocialMentions != 8 {
		t.Errorf("SocialMentions = %d", tc.SocialMentions)
	}
	if len(tc.Keywords) != 2 || tc.Keywords[0] != "pepe" || tc.Keywords[1] != "moon" {
		t.Errorf("Keywords = %v", tc.Keywords)
	}
	if tc.Signals["lp_status"] != "locked" || tc.Signals["whales"] != "true" {
		t.Errorf("Signals = %v", tc.Signals)
	}
	if tc.Signals["event_kind"] != "lp_create" {
		t.Errorf("event_kind signal = %q", tc.Signals["event_kind"])
	}
	if len(tc.Wallets) != 2 {
		t.Errorf("Wallets = %v", tc.Wallets)
	}
}

func TestBuildSwapLeavesAgeUnknown(t *testing.T) {
	b := NewEventContextBuilder()

	tc, err := b.Build(context.Background(), &domain.Event{
		Kind:         domain.EventSwap,
		TokenAddress: "TokenSwap111111111111111111111111111111111",
		Timestamp:    1_700_000_300_000,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if tc.Metadata.CreatedAt != 0 {
		t.Errorf("CreatedAt = %d, want 0 for swap events", tc.Metadata.CreatedAt)
	}
	if tc.Liquidity.LPStatus != "unknown" {
		t.Errorf("LPStatus = %q, want unknown default", tc.Liquidity.LPStatus)
	}
	if tc.AgeMinutes(1_700_000_900_000) != 0 {
		t.Errorf("AgeMinutes should be 0 for unknown creation time")
	}
}

func TestBuildRejectsEmptyEvent(t *testing.T) {
	b := NewEventContextBuilder()

	if _, err := b.Build(context.Background(), nil); err == nil {
		t.Error("nil event should fail")
	}
	if _, err := b.Build(context.Background(), &domain.Event{Kind: domain.EventSwap}); err == nil {
		t.Error("missing token address should fail")
	}
}
