package gate

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"token-snipe-engine/internal/domain"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestBasicGate_AllOK(t *testing.T) {
	g := NewBasicGate(BasicGateOptions{
		Blacklist: func(context.Context, string) (bool, error) { return false, nil },
		Honeypot:  func(context.Context, string) (bool, error) { return false, nil },
		LPStatus:  func(context.Context, string) (string, error) { return LPStatusLocked, nil },
		Logger:    quietLogger(),
	})

	ok, results := g.Evaluate(context.Background(), "mint1")
	if !ok {
		t.Error("Expected gate to pass")
	}
	for _, r := range results {
		if r.Status != domain.CheckOK {
			t.Errorf("Expected all checks ok, got %s=%s", r.Name, r.Status)
		}
	}
}

func TestBasicGate_FlaggedBlocks(t *testing.T) {
	g := NewBasicGate(BasicGateOptions{
		Blacklist: func(context.Context, string) (bool, error) { return true, nil },
		Honeypot:  func(context.Context, string) (bool, error) { return false, nil },
		LPStatus:  func(context.Context, string) (string, error) { return LPStatusLocked, nil },
		Logger:    quietLogger(),
	})

	ok, results := g.Evaluate(context.Background(), "mint1")
	if ok {
		t.Error("Expected gate to block on blacklist flag")
	}
	if results[0].Status != domain.CheckFlagged || results[0].Detail != "blacklisted" {
		t.Errorf("Expected blacklist flagged, got %+v", results[0])
	}
}

func TestBasicGate_ErrorIsUnknownNotBlocking(t *testing.T) {
	g := NewBasicGate(BasicGateOptions{
		Blacklist: func(context.Context, string) (bool, error) { return false, nil },
		Honeypot:  func(context.Context, string) (bool, error) { return false, errors.New("rpc timeout") },
		LPStatus:  func(context.Context, string) (string, error) { return LPStatusLocked, nil },
		Logger:    quietLogger(),
	})

	ok, results := g.Evaluate(context.Background(), "mint1")
	if !ok {
		t.Error("Unknown check must not block the gate")
	}
	if results[1].Status != domain.CheckUnknown {
		t.Errorf("Expected honeypot unknown, got %s", results[1].Status)
	}
}

func TestBasicGate_UnlockedLPFlags(t *testing.T) {
	g := NewBasicGate(BasicGateOptions{
		Blacklist: func(context.Context, string) (bool, error) { return false, nil },
		Honeypot:  func(context.Context, string) (bool, error) { return false, nil },
		LPStatus:  func(context.Context, string) (string, error) { return LPStatusUnlocked, nil },
		Logger:    quietLogger(),
	})

	ok, results := g.Evaluate(context.Background(), "mint1")
	if ok {
		t.Error("Expected gate to block on unlocked LP")
	}
	if results[2].Detail != "lp_unlocked" {
		t.Errorf("Expected lp_unlocked detail, got %q", results[2].Detail)
	}
}

func TestBasicGate_NilChecksAreUnknown(t *testing.T) {
	g := NewBasicGate(BasicGateOptions{Logger: quietLogger()})

	ok, results := g.Evaluate(context.Background(), "mint1")
	if !ok {
		t.Error("Unconfigured checks must not block")
	}
	for _, r := range results {
		if r.Status != domain.CheckUnknown {
			t.Errorf("Expected %s unknown, got %s", r.Name, r.Status)
		}
	}
}

func TestScanSource_MatchesPatterns(t *testing.T) {
	code := `
		function addToBlacklist(address a) external onlyOwner {}
		function setSellLockTime(uint t) external onlyOwner {}
	`
	scan := ScanSource(code)

	if len(scan.Flags) != 2 {
		t.Fatalf("Expected 2 flags, got %v", scan.Flags)
	}
	if scan.Score != -4 {
		t.Errorf("Expected score -4, got %f", scan.Score)
	}
}

func TestScanSource_EmptyIsNeutral(t *testing.T) {
	scan := ScanSource("")
	if scan.Score != 0 || len(scan.Flags) != 0 {
		t.Errorf("Expected neutral scan, got %+v", scan)
	}
}

func TestScanSource_CaseInsensitive(t *testing.T) {
	scan := ScanSource("function ANTIBOT() {}")
	if len(scan.Flags) != 1 || scan.Flags[0] != "anti_bot" {
		t.Errorf("Expected anti_bot flag, got %v", scan.Flags)
	}
}

func TestRedFlagScanner_FetchErrorNeutral(t *testing.T) {
	s := NewRedFlagScanner(RedFlagScannerOptions{
		Fetch:  func(context.Context, string) (string, error) { return "", errors.New("unreachable") },
		Logger: quietLogger(),
	})

	scan := s.Scan(context.Background(), "mint1")
	if scan.Score != 0 {
		t.Errorf("Fetch failure must be neutral, got %f", scan.Score)
	}
}

func TestReflexOverride_FakeLPLock(t *testing.T) {
	r := NewReflexOverride()

	cases := []struct {
		name    string
		status  string
		expires int64
		want    bool
	}{
		{"imminent expiry", LPStatusLocked, 120, true},
		{"expiry already past", LPStatusLocked, -600, true},
		{"claimed lock without expiry data", LPStatusLocked, 0, true},
		{"solid lock", LPStatusLocked, 3600, false},
		{"unlocked never fakes a lock", LPStatusUnlocked, 0, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tc := &domain.TokenContext{
				Liquidity: domain.LiquidityInsight{LPStatus: c.status, LPLockExpires: c.expires},
			}

			triggered, reasons := r.Check(tc)
			if triggered != c.want {
				t.Fatalf("triggered = %v, want %v (reasons=%v)", triggered, c.want, reasons)
			}
			if c.want && reasons[0] != ReasonFakeLPLock {
				t.Errorf("Expected fake_lp_lock, got %v", reasons)
			}
		})
	}
}

func TestReflexOverride_WalletSwarm(t *testing.T) {
	r := NewReflexOverride()
	tc := &domain.TokenContext{Wallet: domain.WalletInsight{Buyers: 150}}

	triggered, reasons := r.Check(tc)
	if !triggered || reasons[0] != ReasonWalletSwarm {
		t.Errorf("Expected wallet_swarm, got triggered=%v reasons=%v", triggered, reasons)
	}
}

func TestReflexOverride_FakeVolumeSpike(t *testing.T) {
	r := NewReflexOverride()
	tc := &domain.TokenContext{
		Chart: domain.ChartInsight{ChartScore: 18, SniperPressure: 1},
	}

	triggered, reasons := r.Check(tc)
	if !triggered || reasons[0] != ReasonFakeVolumeSpike {
		t.Errorf("Expected fake_volume_spike, got triggered=%v reasons=%v", triggered, reasons)
	}
}

func TestReflexOverride_CleanTokenPasses(t *testing.T) {
	r := NewReflexOverride()
	tc := &domain.TokenContext{
		Liquidity: domain.LiquidityInsight{LPStatus: LPStatusLocked, LPLockExpires: 3600},
		Wallet:    domain.WalletInsight{Buyers: 12},
		Chart:     domain.ChartInsight{ChartScore: 10, SniperPressure: 4},
	}

	if triggered, reasons := r.Check(tc); triggered {
		t.Errorf("Expected no trigger, got %v", reasons)
	}
}

func TestBlacklist_AddContainsRemove(t *testing.T) {
	b := NewBlacklist()

	b.Add("MintABC")
	if !b.Contains("mintabc") {
		t.Error("Lookup should be case-insensitive")
	}
	if !b.Contains("MINTABC") {
		t.Error("Lookup should be case-insensitive")
	}

	b.Remove("mintAbc")
	if b.Contains("MintABC") {
		t.Error("Removed address should not match")
	}
}

func TestBlacklist_SeededAndSnapshot(t *testing.T) {
	b := NewBlacklistFrom([]string{"a", "b", ""})

	if b.Size() != 2 {
		t.Errorf("Empty addresses must be ignored, size=%d", b.Size())
	}
	if len(b.Snapshot()) != 2 {
		t.Errorf("Snapshot size mismatch: %v", b.Snapshot())
	}
}
