// Package engine runs the full decision pass for one token and the
// consumer loop that feeds it from the ingestion queue.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/gate"
	"token-snipe-engine/internal/idhash"
	"token-snipe-engine/internal/observability"
	"token-snipe-engine/internal/scoring"
	"token-snipe-engine/internal/storage"
)

// Evaluator runs one token context through the gate, the scoring
// chain, and the self-check, producing a single Evaluation. All memory
// reads go through the injected stores; the evaluator never writes
// memory (that is the feedback router's job), only the evaluation log.
type Evaluator struct {
	gate    *gate.BasicGate
	scanner *gate.RedFlagScanner
	reflex  *gate.ReflexOverride
	router  *scoring.Router
	noise   *scoring.Noise

	weights  storage.ReasoningWeightStore
	patterns storage.SignalPatternStore
	wallets  storage.WalletProfileStore
	streaks  storage.StreakStore
	tokens   storage.TokenRecordStore
	evalLog  storage.EvaluationLogStore

	logger *log.Logger
	now    func() int64
}

// EvaluatorOptions configures an Evaluator.
type EvaluatorOptions struct {
	Gate    *gate.BasicGate
	Scanner *gate.RedFlagScanner // optional; nil skips the source scan
	Reflex  *gate.ReflexOverride
	Router  *scoring.Router
	Noise   *scoring.Noise

	Weights       storage.ReasoningWeightStore
	Patterns      storage.SignalPatternStore
	Wallets       storage.WalletProfileStore
	Streaks       storage.StreakStore
	Tokens        storage.TokenRecordStore
	EvaluationLog storage.EvaluationLogStore

	Logger *log.Logger
	Now    func() int64 // Unix milliseconds; defaults to wall clock
}

// NewEvaluator creates an evaluator from opts, filling defaults for
// the router, reflex override, noise source, logger, and clock.
func NewEvaluator(opts EvaluatorOptions) *Evaluator {
	if opts.Router == nil {
		opts.Router = scoring.NewRouter()
	}
	if opts.Reflex == nil {
		opts.Reflex = gate.NewReflexOverride()
	}
	if opts.Noise == nil {
		opts.Noise = scoring.NewNoise(nil)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = func() int64 { return time.Now().UnixMilli() }
	}
	return &Evaluator{
		gate:     opts.Gate,
		scanner:  opts.Scanner,
		reflex:   opts.Reflex,
		router:   opts.Router,
		noise:    opts.Noise,
		weights:  opts.Weights,
		patterns: opts.Patterns,
		wallets:  opts.Wallets,
		streaks:  opts.Streaks,
		tokens:   opts.Tokens,
		evalLog:  opts.EvaluationLog,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// Evaluate runs the full decision pass over tc. It mutates tc in
// place (reasoning tags, wallet risk, reputation) and returns the
// resulting evaluation. An error is returned only for unusable input;
// degraded memory reads fall back to neutral values and are logged.
func (e *Evaluator) Evaluate(ctx context.Context, tc *domain.TokenContext) (*domain.Evaluation, error) {
	if tc == nil || tc.TokenAddress == "" {
		return nil, fmt.Errorf("evaluate: missing token address")
	}
	started := time.Now()
	nowMs := e.now()

	if ev := e.runGate(ctx, tc, nowMs); ev != nil {
		e.appendLog(ctx, ev)
		return ev, nil
	}
	if ev := e.checkReentry(ctx, tc, nowMs); ev != nil {
		e.appendLog(ctx, ev)
		return ev, nil
	}

	var flagPenalty float64
	if e.scanner != nil {
		scan := e.scanner.Scan(ctx, tc.TokenAddress)
		flagPenalty = scan.Score
		for _, flag := range scan.Flags {
			if !tc.HasReason(flag) {
				tc.Reasoning = append(tc.Reasoning, flag)
			}
		}
	}

	mode := e.router.Route(tc, nowMs)
	score := scoring.BaseScore(tc, mode) + flagPenalty + tc.ScorePenalty

	weights := e.loadWeights(ctx)
	tc.Reputation = e.loadReputation(ctx, tc.TokenAddress)
	score = scoring.ApplyReasoningWeights(score, tc.Reasoning, weights, tc.Reputation)

	tc.WalletRisk = scoring.WalletRisk(e.loadProfiles(ctx, tc.Wallets))

	streak := e.loadStreak(ctx)
	counts := e.loadCounts(ctx)
	score = scoring.ApplySelfAdjustments(score, streak, counts)
	score = scoring.ReweightConfidence(score, tc.Reasoning, weights, streak)
	score = e.noise.Apply(score)

	action := scoring.BaseAction(score, mode)
	hist := e.histogramFunc(ctx)
	prediction := scoring.PredictFromSignals(tc.Signals, hist)
	action = scoring.FinalizeAction(score, action, prediction, streak)

	if vetoed, reasons := e.reflex.Check(tc); vetoed {
		action = domain.ActionAvoid
		for _, reason := range reasons {
			if !tc.HasReason(reason) {
				tc.Reasoning = append(tc.Reasoning, reason)
			}
			observability.RecordReflexOverride(reason)
		}
	}

	risk := scoring.ClassifyRisk(tc.Reasoning, tc.Signals, hist)
	status, issues := scoring.SelfCheck(score, action, tc.Reasoning)

	ev := &domain.Evaluation{
		EvaluationID: idhash.NewEvaluationID(tc.TokenAddress, nowMs),
		TokenAddress: tc.TokenAddress,
		Mode:         mode,
		Action:       action,
		Score:        score,
		Reasoning:    append([]string(nil), tc.Reasoning...),
		Risk:         risk,
		Status:       status,
		Issues:       issues,
		Timestamp:    nowMs,
	}
	e.appendLog(ctx, ev)

	observability.RecordEvaluation(string(action), string(mode), score, time.Since(started).Seconds())
	observability.RecordSelfCheck(string(status))
	return ev, nil
}

// runGate applies the hard pre-filters. A flagged token produces a
// failed avoid evaluation and never reaches the scoring chain.
func (e *Evaluator) runGate(ctx context.Context, tc *domain.TokenContext, nowMs int64) *domain.Evaluation {
	if e.gate == nil {
		return nil
	}
	ok, checks := e.gate.Evaluate(ctx, tc.TokenAddress)
	if ok {
		return nil
	}
	var issues []string
	for _, c := range checks {
		if c.Status != domain.CheckFlagged {
			continue
		}
		issues = append(issues, c.Detail)
		if !tc.HasReason(c.Detail) {
			tc.Reasoning = append(tc.Reasoning, c.Detail)
		}
		observability.RecordBlocked(c.Name)
	}
	e.logger.Printf("gate blocked token=%s issues=%v", tc.TokenAddress, issues)
	return &domain.Evaluation{
		EvaluationID: idhash.NewEvaluationID(tc.TokenAddress, nowMs),
		TokenAddress: tc.TokenAddress,
		Mode:         domain.ModeSnipe,
		Action:       domain.ActionAvoid,
		Score:        0,
		Reasoning:    append([]string(nil), tc.Reasoning...),
		Risk:         domain.RiskHigh,
		Status:       domain.VerifyFail,
		Issues:       issues,
		Timestamp:    nowMs,
	}
}

// checkReentry blocks tokens whose last recorded outcome was a loss,
// rug, or death. Burned-once tokens are not re-entered regardless of
// how the fresh context scores.
func (e *Evaluator) checkReentry(ctx context.Context, tc *domain.TokenContext, nowMs int64) *domain.Evaluation {
	if e.tokens == nil {
		return nil
	}
	last, err := e.tokens.LastOutcome(ctx, tc.TokenAddress)
	if err != nil {
		e.logger.Printf("last outcome lookup failed token=%s: %v", tc.TokenAddress, err)
		return nil
	}
	switch last {
	case domain.OutcomeRug, domain.OutcomeDead, domain.OutcomeLoss:
	default:
		return nil
	}
	reason := "previously_" + string(last)
	if !tc.HasReason(reason) {
		tc.Reasoning = append(tc.Reasoning, reason)
	}
	observability.RecordBlocked(reason)
	return &domain.Evaluation{
		EvaluationID: idhash.NewEvaluationID(tc.TokenAddress, nowMs),
		TokenAddress: tc.TokenAddress,
		Mode:         domain.ModeSnipe,
		Action:       domain.ActionAvoid,
		Score:        0,
		Reasoning:    append([]string(nil), tc.Reasoning...),
		Risk:         domain.RiskHigh,
		Status:       domain.VerifyOK,
		Issues:       nil,
		Timestamp:    nowMs,
	}
}

func (e *Evaluator) loadWeights(ctx context.Context) map[string]float64 {
	if e.weights == nil {
		return nil
	}
	weights, err := e.weights.All(ctx)
	if err != nil {
		e.logger.Printf("reasoning weight load failed: %v", err)
		return nil
	}
	return weights
}

func (e *Evaluator) loadReputation(ctx context.Context, token string) float64 {
	if e.tokens == nil {
		return 0
	}
	rep, err := e.tokens.Reputation(ctx, token)
	if err != nil {
		e.logger.Printf("reputation lookup failed token=%s: %v", token, err)
		return 0
	}
	return rep
}

func (e *Evaluator) loadProfiles(ctx context.Context, wallets []string) []*domain.WalletProfile {
	if e.wallets == nil || len(wallets) == 0 {
		return nil
	}
	profiles := make([]*domain.WalletProfile, 0, len(wallets))
	for _, w := range wallets {
		p, err := e.wallets.Profile(ctx, w)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				e.logger.Printf("wallet profile lookup failed wallet=%s: %v", w, err)
			}
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles
}

func (e *Evaluator) loadStreak(ctx context.Context) domain.StreakState {
	if e.streaks == nil {
		return domain.StreakState{}
	}
	streak, err := e.streaks.Get(ctx, domain.StreakScopeGlobal)
	if err != nil {
		e.logger.Printf("streak lookup failed: %v", err)
		return domain.StreakState{}
	}
	return streak
}

func (e *Evaluator) loadCounts(ctx context.Context) domain.OutcomeHistogram {
	if e.streaks == nil {
		return domain.OutcomeHistogram{}
	}
	counts, err := e.streaks.Counts(ctx, domain.StreakScopeGlobal)
	if err != nil {
		e.logger.Printf("streak counts lookup failed: %v", err)
		return domain.OutcomeHistogram{}
	}
	return counts
}

// histogramFunc adapts the signal pattern store into the pure lookup
// the prediction and risk stages consume. Lookup errors degrade to a
// zero histogram.
func (e *Evaluator) histogramFunc(ctx context.Context) scoring.HistogramFunc {
	return func(key, value string) domain.OutcomeHistogram {
		if e.patterns == nil {
			return domain.OutcomeHistogram{}
		}
		h, err := e.patterns.Histogram(ctx, key, value)
		if err != nil {
			e.logger.Printf("signal histogram lookup failed key=%s value=%s: %v", key, value, err)
			return domain.OutcomeHistogram{}
		}
		return h
	}
}

func (e *Evaluator) appendLog(ctx context.Context, ev *domain.Evaluation) {
	if e.evalLog == nil {
		return
	}
	if err := e.evalLog.Append(ctx, ev); err != nil {
		e.logger.Printf("evaluation log append failed id=%s: %v", ev.EvaluationID, err)
	}
}
