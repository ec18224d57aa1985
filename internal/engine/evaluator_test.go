package engine

import (
	"context"
	"io"
	"log"
	"math/rand"
	"testing"
	"time"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/gate"
	"token-snipe-engine/internal/scoring"
	"token-snipe-engine/internal/storage"
	"token-snipe-engine/internal/storage/memory"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type testStores struct {
	weights  *memory.ReasoningWeightStore
	patterns *memory.SignalPatternStore
	wallets  *memory.WalletProfileStore
	streaks  *memory.StreakStore
	tokens   *memory.TokenRecordStore
	evalLog  *memory.EvaluationLogStore
}

func newTestStores() testStores {
	return testStores{
		weights:  memory.NewReasoningWeightStore(),
		patterns: memory.NewSignalPatternStore(),
		wallets:  memory.NewWalletProfileStore(),
		streaks:  memory.NewStreakStore(),
		tokens:   memory.NewTokenRecordStore(),
		evalLog:  memory.NewEvaluationLogStore(),
	}
}

func newTestEvaluator(s testStores, g *gate.BasicGate, seed int64) *Evaluator {
	return NewEvaluator(EvaluatorOptions{
		Gate:          g,
		Noise:         scoring.NewNoise(rand.New(rand.NewSource(seed))),
		Weights:       s.weights,
		Patterns:      s.patterns,
		Wallets:       s.wallets,
		Streaks:       s.streaks,
		Tokens:        s.tokens,
		EvaluationLog: s.evalLog,
		Logger:        quietLogger(),
		Now:           func() int64 { return 1_700_000_360_000 },
	})
}

// strongContext is a fresh launch with healthy liquidity and buyer
// signals, built to score comfortably above the ignore threshold.
func strongContext() *domain.TokenContext {
	return &domain.TokenContext{
		TokenName:    "PEPE2",
		TokenAddress: "TokenStrong1111111111111111111111111111111",
		Metadata:     domain.TokenMetadata{CreatedAt: 1_700_000_300_000},
		Liquidity: domain.LiquidityInsight{
			LPStatus:      gate.LPStatusLocked,
			LPLockExpires: 3600,
			LiquiditySOL:  50,
		},
		Wallet: domain.WalletInsight{
			Buyers:       60,
			SniperCount:  3,
			WhalePresent: true,
		},
		Chart: domain.ChartInsight{
			ChartScore:     16,
			VolumeSpike:    true,
			SniperPressure: 3,
		},
		SocialMentions: 8,
		Keywords:       []string{"pepe"},
		Signals:        map[string]string{"lp_status": "locked"},
	}
}

func TestEvaluateStrongTokenSnipes(t *testing.T) {
	s := newTestStores()
	e := newTestEvaluator(s, nil, 1)

	ev, err := e.Evaluate(context.Background(), strongContext())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Mode != domain.ModeSnipe {
		t.Errorf("mode = %s, want snipe", ev.Mode)
	}
	if ev.Action != domain.ActionSnipe {
		t.Errorf("action = %s, want snipe", ev.Action)
	}
	if ev.Score < 55 || ev.Score > 80 {
		t.Errorf("score = %.1f, want in [55,80]", ev.Score)
	}
	if ev.Status != domain.VerifyOK {
		t.Errorf("status = %s, want ok (issues %v)", ev.Status, ev.Issues)
	}
	if ev.Blocked() {
		t.Error("strong token should not be blocked")
	}

	logged, err := s.evalLog.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(logged) != 1 || logged[0].EvaluationID != ev.EvaluationID {
		t.Errorf("evaluation log = %v, want the single evaluation", logged)
	}
}

func TestEvaluateGateBlocks(t *testing.T) {
	s := newTestStores()
	bl := gate.NewBlacklist()
	tc := strongContext()
	bl.Add(tc.TokenAddress)
	g := gate.NewBasicGate(gate.BasicGateOptions{
		Blacklist: func(ctx context.Context, token string) (bool, error) {
			return bl.Contains(token), nil
		},
		Logger: quietLogger(),
	})
	e := newTestEvaluator(s, g, 1)

	ev, err := e.Evaluate(context.Background(), tc)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Action != domain.ActionAvoid {
		t.Errorf("action = %s, want avoid", ev.Action)
	}
	if !ev.Blocked() {
		t.Error("gate-blocked evaluation must block execution")
	}
	if ev.Score != 0 {
		t.Errorf("score = %.1f, want 0", ev.Score)
	}
	if len(ev.Issues) != 1 || ev.Issues[0] != "blacklisted" {
		t.Errorf("issues = %v, want [blacklisted]", ev.Issues)
	}

	logged, _ := s.evalLog.Recent(context.Background(), 10)
	if len(logged) != 1 {
		t.Errorf("blocked evaluation not logged, got %d entries", len(logged))
	}
}

func TestEvaluateReentryBlock(t *testing.T) {
	for _, outcome := range []domain.Outcome{domain.OutcomeRug, domain.OutcomeDead, domain.OutcomeLoss} {
		t.Run(string(outcome), func(t *testing.T) {
			s := newTestStores()
			tc := strongContext()
			if err := s.tokens.RecordOutcome(context.Background(), tc.TokenAddress, outcome); err != nil {
				t.Fatalf("RecordOutcome: %v", err)
			}
			e := newTestEvaluator(s, nil, 1)

			ev, err := e.Evaluate(context.Background(), tc)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if ev.Action != domain.ActionAvoid {
				t.Errorf("action = %s, want avoid", ev.Action)
			}
			want := "previously_" + string(outcome)
			if !tc.HasReason(want) {
				t.Errorf("reasoning %v missing %q", ev.Reasoning, want)
			}
		})
	}
}

func TestEvaluateReentryAllowsProfit(t *testing.T) {
	s := newTestStores()
	tc := strongContext()
	if err := s.tokens.RecordOutcome(context.Background(), tc.TokenAddress, domain.OutcomeProfit); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	e := newTestEvaluator(s, nil, 1)

	ev, err := e.Evaluate(context.Background(), tc)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Action == domain.ActionAvoid {
		t.Errorf("profitable history should not block re-entry, got %s", ev.Action)
	}
}

func TestEvaluateReflexVeto(t *testing.T) {
	s := newTestStores()
	e := newTestEvaluator(s, nil, 1)
	tc := strongContext()
	tc.Wallet.Buyers = 150

	ev, err := e.Evaluate(context.Background(), tc)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Action != domain.ActionAvoid {
		t.Errorf("action = %s, want avoid on wallet swarm", ev.Action)
	}
	if !tc.HasReason(gate.ReasonWalletSwarm) {
		t.Errorf("reasoning %v missing %s", ev.Reasoning, gate.ReasonWalletSwarm)
	}
}

func TestEvaluateLearnedWeightsLowerScore(t *testing.T) {
	ctx := context.Background()

	base := newTestStores()
	baseline, err := newTestEvaluator(base, nil, 7).Evaluate(ctx, strongContext())
	if err != nil {
		t.Fatalf("Evaluate baseline: %v", err)
	}

	learned := newTestStores()
	// Three rugs against the lp_locked tag drive its weight to -9.
	for i := 0; i < 3; i++ {
		if err := learned.weights.Update(ctx, []string{scoring.TagLPLocked}, domain.OutcomeRug); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	weighted, err := newTestEvaluator(learned, nil, 7).Evaluate(ctx, strongContext())
	if err != nil {
		t.Fatalf("Evaluate weighted: %v", err)
	}

	if weighted.Score >= baseline.Score {
		t.Errorf("weighted score %.1f should be below baseline %.1f", weighted.Score, baseline.Score)
	}
}

func TestEvaluateWalletRiskOnContext(t *testing.T) {
	ctx := context.Background()
	s := newTestStores()
	wallet := "RugWallet111111111111111111111111111111111"
	for i := 0; i < 2; i++ {
		if err := s.wallets.RecordOutcome(ctx, wallet, domain.OutcomeRug, domain.ClusterTagCabal); err != nil {
			t.Fatalf("RecordOutcome: %v", err)
		}
	}
	e := newTestEvaluator(s, nil, 1)
	tc := strongContext()
	tc.Wallets = []string{wallet, "UnknownWallet11111111111111111111111111111"}

	if _, err := e.Evaluate(ctx, tc); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if tc.WalletRisk != -8 {
		t.Errorf("wallet risk = %.1f, want -8 (two rugs at -4)", tc.WalletRisk)
	}
}

func TestEvaluateMissingAddress(t *testing.T) {
	e := newTestEvaluator(newTestStores(), nil, 1)
	if _, err := e.Evaluate(context.Background(), &domain.TokenContext{}); err == nil {
		t.Error("expected error for missing token address")
	}
	if _, err := e.Evaluate(context.Background(), nil); err == nil {
		t.Error("expected error for nil context")
	}
}

// Interface satisfaction for the store fields is implied by the memory
// constructors; this pins the collaborator contracts instead.
var (
	_ storage.EvaluationLogStore = (*memory.EvaluationLogStore)(nil)
	_ ContextBuilder             = (*stubBuilder)(nil)
	_ Executor                   = (*captureExecutor)(nil)
)

type stubBuilder struct {
	tc  *domain.TokenContext
	err error
}

func (b *stubBuilder) Build(ctx context.Context, event *domain.Event) (*domain.TokenContext, error) {
	if b.err != nil {
		return nil, b.err
	}
	tc := *b.tc
	return &tc, nil
}

type captureExecutor struct {
	executed chan *domain.Evaluation
}

func (x *captureExecutor) Execute(ctx context.Context, ev *domain.Evaluation, tc *domain.TokenContext) error {
	x.executed <- ev
	return nil
}

func waitExecuted(t *testing.T, ch chan *domain.Evaluation) *domain.Evaluation {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("executor was not called")
		return nil
	}
}
