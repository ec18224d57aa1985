// Package replay re-scores archived outcome records against the
// current reinforcement memory. The recorded final score is the
// anchor; the memory-driven stages (reasoning weights, self
// adjustments, confidence reweighting) are applied fresh so the
// report shows how today's memory would have decided yesterday's
// trades. Noise is skipped so runs are deterministic.
package replay

import (
	"context"
	"fmt"
	"log"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/scoring"
	"token-snipe-engine/internal/storage"
)

// DefaultLimit bounds how many records a run pulls when the caller
// does not specify one.
const DefaultLimit = 1000

// Result is the re-scored view of one archived outcome record.
type Result struct {
	RecordID         string         `json:"record_id"`
	TokenAddress     string         `json:"token_address"`
	Outcome          domain.Outcome `json:"outcome"`
	PnL              float64        `json:"pnl"`
	OriginalScore    float64        `json:"original_score"`
	ReplayScore      float64        `json:"replay_score"`
	ReplayAction     domain.Action  `json:"replay_action"`
	PredictedOutcome domain.Outcome `json:"predicted_outcome,omitempty"`
	Aligned          bool           `json:"aligned"`
}

// Report summarizes a replay run.
type Report struct {
	Records            int      `json:"records"`
	Aligned            int      `json:"aligned"`
	AlignmentRate      float64  `json:"alignment_rate"`
	Predicted          int      `json:"predicted"`
	PredictionHits     int      `json:"prediction_hits"`
	PredictionAccuracy float64  `json:"prediction_accuracy"`
	MeanScoreDrift     float64  `json:"mean_score_drift"`
	Results            []Result `json:"results,omitempty"`
}

// Engine replays outcome records through the memory-driven scoring
// stages. It only reads stores.
type Engine struct {
	records  storage.OutcomeRecordStore
	weights  storage.ReasoningWeightStore
	patterns storage.SignalPatternStore
	streaks  storage.StreakStore
	tokens   storage.TokenRecordStore

	logger *log.Logger
}

// Options configures an Engine.
type Options struct {
	Records  storage.OutcomeRecordStore
	Weights  storage.ReasoningWeightStore
	Patterns storage.SignalPatternStore
	Streaks  storage.StreakStore
	Tokens   storage.TokenRecordStore
	Logger   *log.Logger
}

// New creates a replay engine from opts.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Engine{
		records:  opts.Records,
		weights:  opts.Weights,
		patterns: opts.Patterns,
		streaks:  opts.Streaks,
		tokens:   opts.Tokens,
		logger:   opts.Logger,
	}
}

// Run replays up to limit records, newest first, and returns the
// aggregated report. Individual record failures are logged and
// skipped; the run fails only when the record store itself does.
func (e *Engine) Run(ctx context.Context, limit int) (*Report, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	records, err := e.records.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load outcome records: %w", err)
	}

	weights, err := e.weights.All(ctx)
	if err != nil {
		e.logger.Printf("reasoning weight load failed: %v", err)
		weights = nil
	}
	streak, err := e.streaks.Get(ctx, domain.StreakScopeGlobal)
	if err != nil {
		e.logger.Printf("streak load failed: %v", err)
		streak = domain.StreakState{}
	}
	counts, err := e.streaks.Counts(ctx, domain.StreakScopeGlobal)
	if err != nil {
		e.logger.Printf("streak counts load failed: %v", err)
		counts = domain.OutcomeHistogram{}
	}

	report := &Report{Results: make([]Result, 0, len(records))}
	var totalDrift float64

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := e.replayRecord(ctx, rec, weights, streak, counts)
		report.Records++
		if res.Aligned {
			report.Aligned++
		}
		if res.PredictedOutcome != "" {
			report.Predicted++
			if res.PredictedOutcome == rec.Outcome {
				report.PredictionHits++
			}
		}
		drift := res.ReplayScore - res.OriginalScore
		if drift < 0 {
			drift = -drift
		}
		totalDrift += drift
		report.Results = append(report.Results, res)
	}

	if report.Records > 0 {
		report.AlignmentRate = float64(report.Aligned) / float64(report.Records)
		report.MeanScoreDrift = totalDrift / float64(report.Records)
	}
	if report.Predicted > 0 {
		report.PredictionAccuracy = float64(report.PredictionHits) / float64(report.Predicted)
	}
	return report, nil
}

// replayRecord applies the memory stages to one record's recorded
// score and decides what the engine would do with today's memory.
func (e *Engine) replayRecord(ctx context.Context, rec *domain.OutcomeRecord, weights map[string]float64, streak domain.StreakState, counts domain.OutcomeHistogram) Result {
	reputation, err := e.tokens.Reputation(ctx, rec.TokenAddress)
	if err != nil {
		e.logger.Printf("reputation lookup failed token=%s: %v", rec.TokenAddress, err)
		reputation = 0
	}

	score := scoring.ApplyReasoningWeights(rec.FinalScore, rec.Reasoning, weights, reputation)
	score = scoring.ApplySelfAdjustments(score, streak, counts)
	score = scoring.ReweightConfidence(score, rec.Reasoning, weights, streak)

	hist := e.histogramFunc(ctx)
	prediction := scoring.PredictFromSignals(rec.Signals, hist)

	action := scoring.BaseAction(score, replayMode(rec.Reasoning))
	action = scoring.FinalizeAction(score, action, prediction, streak)

	return Result{
		RecordID:         rec.RecordID,
		TokenAddress:     rec.TokenAddress,
		Outcome:          rec.Outcome,
		PnL:              rec.PnL,
		OriginalScore:    rec.FinalScore,
		ReplayScore:      score,
		ReplayAction:     action,
		PredictedOutcome: scoring.MostLikely(prediction),
		Aligned:          aligned(action, rec.Outcome),
	}
}

// aligned reports whether the replayed decision agrees with how the
// trade actually ended: entering on winners, staying out of losers.
func aligned(action domain.Action, outcome domain.Outcome) bool {
	entered := action == domain.ActionSnipe || action == domain.ActionTrade
	won := outcome == domain.OutcomeProfit || outcome == domain.OutcomeMoon
	return entered == won
}

// replayMode picks the scoring mode for action mapping. Records carry
// no mode, so early-launch reasoning tags stand in for the router's
// freshness check.
func replayMode(reasoning []string) domain.Mode {
	for _, tag := range reasoning {
		if tag == scoring.TagEarlyBuyers || tag == scoring.TagBundleLaunch {
			return domain.ModeSnipe
		}
	}
	return domain.ModeTrade
}

func (e *Engine) histogramFunc(ctx context.Context) scoring.HistogramFunc {
	return func(key, value string) domain.OutcomeHistogram {
		h, err := e.patterns.Histogram(ctx, key, value)
		if err != nil {
			return domain.OutcomeHistogram{}
		}
		return h
	}
}
