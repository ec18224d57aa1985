package replay

import (
	"context"
	"io"
	"log"
	"math"
	"testing"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/scoring"
	"token-snipe-engine/internal/storage/memory"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type engineFixture struct {
	records  *memory.OutcomeRecordStore
	weights  *memory.ReasoningWeightStore
	patterns *memory.SignalPatternStore
	streaks  *memory.StreakStore
	tokens   *memory.TokenRecordStore
	engine   *Engine
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		records:  memory.NewOutcomeRecordStore(),
		weights:  memory.NewReasoningWeightStore(),
		patterns: memory.NewSignalPatternStore(),
		streaks:  memory.NewStreakStore(),
		tokens:   memory.NewTokenRecordStore(),
	}
	f.engine = New(Options{
		Records:  f.records,
		Weights:  f.weights,
		Patterns: f.patterns,
		Streaks:  f.streaks,
		Tokens:   f.tokens,
		Logger:   quietLogger(),
	})
	return f
}

func record(id, token string, score, pnl float64, outcome domain.Outcome, reasoning []string) *domain.OutcomeRecord {
	return &domain.OutcomeRecord{
		RecordID:     id,
		TokenAddress: token,
		TokenName:    "TEST",
		FinalScore:   score,
		Reasoning:    reasoning,
		Signals:      map[string]string{"lp_status": "locked"},
		PnL:          pnl,
		Outcome:      outcome,
		OpenedAt:     1_700_000_000_000,
		ClosedAt:     1_700_000_060_000,
	}
}

func TestRunEmptyStore(t *testing.T) {
	f := newEngineFixture()

	report, err := f.engine.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Records != 0 {
		t.Errorf("Records = %d, want 0", report.Records)
	}
	if report.AlignmentRate != 0 || report.MeanScoreDrift != 0 {
		t.Errorf("empty report has non-zero aggregates: %+v", report)
	}
}

func TestRunWithNeutralMemoryKeepsScore(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	rec := record("r1", "TokenNeutral111111111111111111111111111111", 72, 40, domain.OutcomeProfit,
		[]string{scoring.TagEarlyBuyers, scoring.TagLPLocked})
	if err := f.records.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	report, err := f.engine.Run(ctx, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Records != 1 {
		t.Fatalf("Records = %d, want 1", report.Records)
	}

	res := report.Results[0]
	// No weights, no streak, no reputation: every stage is a no-op.
	if res.ReplayScore != 72 {
		t.Errorf("ReplayScore = %v, want 72", res.ReplayScore)
	}
	if res.ReplayAction != domain.ActionSnipe {
		t.Errorf("ReplayAction = %q, want snipe", res.ReplayAction)
	}
	if !res.Aligned {
		t.Error("snipe on a profit outcome should count as aligned")
	}
	if report.AlignmentRate != 1 {
		t.Errorf("AlignmentRate = %v, want 1", report.AlignmentRate)
	}
	if report.MeanScoreDrift != 0 {
		t.Errorf("MeanScoreDrift = %v, want 0", report.MeanScoreDrift)
	}
}

func TestRunLearnedWeightsLowerReplayScore(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	token := "TokenRugged1111111111111111111111111111111"
	// Three rugs push the tag weight and the token reputation negative.
	for i := 0; i < 3; i++ {
		if err := f.weights.Update(ctx, []string{scoring.TagBundleLaunch}, domain.OutcomeRug); err != nil {
			t.Fatalf("Update: %v", err)
		}
		if err := f.tokens.RecordOutcome(ctx, token, domain.OutcomeRug); err != nil {
			t.Fatalf("RecordOutcome: %v", err)
		}
	}

	rec := record("r1", token, 70, -80, domain.OutcomeRug, []string{scoring.TagBundleLaunch})
	if err := f.records.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	report, err := f.engine.Run(ctx, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	res := report.Results[0]
	// Weight is -9: no reweight penalty (only positive weights
	// penalize), but confidence drops by 9*0.3.
	want := 70 - 9*0.3
	if math.Abs(res.ReplayScore-want) > 1e-9 {
		t.Errorf("ReplayScore = %v, want %v", res.ReplayScore, want)
	}
	if res.OriginalScore != 70 {
		t.Errorf("OriginalScore = %v, want 70", res.OriginalScore)
	}
	if math.Abs(report.MeanScoreDrift-9*0.3) > 1e-9 {
		t.Errorf("MeanScoreDrift = %v, want %v", report.MeanScoreDrift, 9*0.3)
	}
}

func TestRunPredictionAccuracy(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	// Pattern memory says locked LP tokens rug.
	for i := 0; i < 4; i++ {
		if err := f.patterns.Record(ctx, map[string]string{"lp_status": "locked"}, domain.OutcomeRug); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	rec := record("r1", "TokenPredict111111111111111111111111111111", 20, -90, domain.OutcomeRug,
		[]string{scoring.TagLPLocked})
	if err := f.records.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	report, err := f.engine.Run(ctx, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	res := report.Results[0]
	if res.PredictedOutcome != domain.OutcomeRug {
		t.Errorf("PredictedOutcome = %q, want rug", res.PredictedOutcome)
	}
	// Rug prediction above 0.5 with score under 25 downgrades to ignore.
	if res.ReplayAction != domain.ActionIgnore {
		t.Errorf("ReplayAction = %q, want ignore", res.ReplayAction)
	}
	if !res.Aligned {
		t.Error("staying out of a rug should count as aligned")
	}
	if report.PredictionAccuracy != 1 {
		t.Errorf("PredictionAccuracy = %v, want 1", report.PredictionAccuracy)
	}
}

func TestRunRespectsLimit(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := record(string(rune('a'+i)), "TokenLimit11111111111111111111111111111111", 60, 10,
			domain.OutcomeProfit, []string{scoring.TagEarlyBuyers})
		rec.ClosedAt += int64(i)
		if err := f.records.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	report, err := f.engine.Run(ctx, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Records != 2 {
		t.Errorf("Records = %d, want 2", report.Records)
	}
}

func TestAligned(t *testing.T) {
	cases := []struct {
		action  domain.Action
		outcome domain.Outcome
		want    bool
	}{
		{domain.ActionSnipe, domain.OutcomeProfit, true},
		{domain.ActionSnipe, domain.OutcomeMoon, true},
		{domain.ActionSnipe, domain.OutcomeRug, false},
		{domain.ActionTrade, domain.OutcomeLoss, false},
		{domain.ActionIgnore, domain.OutcomeRug, true},
		{domain.ActionAvoid, domain.OutcomeDead, true},
		{domain.ActionIgnore, domain.OutcomeMoon, false},
	}
	for _, c := range cases {
		if got := aligned(c.action, c.outcome); got != c.want {
			t.Errorf("aligned(%q, %q) = %v, want %v", c.action, c.outcome, got, c.want)
		}
	}
}
