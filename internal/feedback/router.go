// Package feedback folds completed trade outcomes into the
// reinforcement memory. The router is the single write path: every
// store mutation driven by an outcome happens here and nowhere else.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/gate"
	"token-snipe-engine/internal/idhash"
	"token-snipe-engine/internal/observability"
	"token-snipe-engine/internal/replaybuf"
	"token-snipe-engine/internal/scoring"
	"token-snipe-engine/internal/storage"
)

// Rug threshold on PnL percent. A drawdown past this point is treated
// as a rug even without a honeypot marker.
const rugPnLThreshold = -50

// Router distributes one outcome record to every memory store.
type Router struct {
	weights  storage.ReasoningWeightStore
	patterns storage.SignalPatternStore
	wallets  storage.WalletProfileStore
	streaks  storage.StreakStore
	tokens   storage.TokenRecordStore
	records  storage.OutcomeRecordStore

	blacklist *gate.Blacklist   // optional
	buffer    *replaybuf.Buffer // optional

	logger *log.Logger
	now    func() int64
}

// RouterOptions configures a feedback Router.
type RouterOptions struct {
	Weights   storage.ReasoningWeightStore
	Patterns  storage.SignalPatternStore
	Wallets   storage.WalletProfileStore
	Streaks   storage.StreakStore
	Tokens    storage.TokenRecordStore
	Records   storage.OutcomeRecordStore
	Blacklist *gate.Blacklist
	Buffer    *replaybuf.Buffer
	Logger    *log.Logger
	Now       func() int64 // Unix milliseconds; defaults to wall clock
}

// NewRouter creates a feedback router from opts.
func NewRouter(opts RouterOptions) *Router {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = func() int64 { return time.Now().UnixMilli() }
	}
	return &Router{
		weights:   opts.Weights,
		patterns:  opts.Patterns,
		wallets:   opts.Wallets,
		streaks:   opts.Streaks,
		tokens:    opts.Tokens,
		records:   opts.Records,
		blacklist: opts.Blacklist,
		buffer:    opts.Buffer,
		logger:    opts.Logger,
		now:       opts.Now,
	}
}

// InferOutcome labels a closed trade from its PnL percent when no
// explicit outcome is present. A honeypot marker in the reasoning
// forces a rug regardless of PnL.
func InferOutcome(pnl float64, reasoning []string) domain.Outcome {
	for _, tag := range reasoning {
		if strings.Contains(strings.ToLower(tag), "honeypot") {
			return domain.OutcomeRug
		}
	}
	switch {
	case pnl < rugPnLThreshold:
		return domain.OutcomeRug
	case pnl < 0:
		return domain.OutcomeLoss
	case pnl > 100:
		return domain.OutcomeMoon
	case pnl > 0:
		return domain.OutcomeProfit
	default:
		return domain.OutcomeDead
	}
}

// RecordOutcome persists the record and applies its outcome to every
// memory store. The record insert acts as the idempotency barrier: a
// duplicate record ID returns ErrDuplicateKey before any reinforcement
// runs, so one trade can never be learned twice. Individual store
// failures after the insert are joined and returned but do not stop
// the remaining updates.
func (r *Router) RecordOutcome(ctx context.Context, rec *domain.OutcomeRecord) error {
	if rec == nil || rec.TokenAddress == "" {
		return fmt.Errorf("record outcome: missing token address")
	}
	if rec.ClosedAt <= 0 {
		rec.ClosedAt = r.now()
	}
	if rec.OpenedAt <= 0 {
		rec.OpenedAt = rec.ClosedAt
	}
	if !domain.ValidOutcome(rec.Outcome) {
		rec.Outcome = InferOutcome(rec.PnL, rec.Reasoning)
	}
	if rec.RecordID == "" {
		rec.RecordID = idhash.ComputeRecordID(rec.TokenAddress, string(rec.Outcome), rec.OpenedAt, rec.ClosedAt)
	}

	if err := r.records.Insert(ctx, rec); err != nil {
		return fmt.Errorf("record outcome %s: %w", rec.RecordID, err)
	}

	var errs []error
	fail := func(stage string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", stage, err))
		}
	}

	if len(rec.Reasoning) > 0 {
		fail("reasoning weights", r.weights.Update(ctx, rec.Reasoning, rec.Outcome))
		for _, tag := range rec.Reasoning {
			fail("reasoning histogram", r.patterns.Record(ctx,
				map[string]string{scoring.ReasoningHistKey: tag}, rec.Outcome))
		}
	}
	if len(rec.Signals) > 0 {
		fail("signal patterns", r.patterns.Record(ctx, rec.Signals, rec.Outcome))
	}

	clusterTag := domain.ClusterTagWhale
	if hasCabalMarker(rec.Reasoning) {
		clusterTag = domain.ClusterTagCabal
	}
	for _, wallet := range rec.Wallets {
		fail("wallet profile", r.wallets.RecordOutcome(ctx, wallet, rec.Outcome, clusterTag))
	}

	if _, err := r.streaks.Apply(ctx, domain.StreakScopeGlobal, rec.Outcome); err != nil {
		fail("global streak", err)
	}
	if _, err := r.streaks.Apply(ctx, domain.StreakScopeToken(rec.TokenAddress), rec.Outcome); err != nil {
		fail("token streak", err)
	}
	fail("token record", r.tokens.RecordOutcome(ctx, rec.TokenAddress, rec.Outcome))

	if rec.Outcome == domain.OutcomeRug && r.blacklist != nil {
		r.blacklist.Add(rec.TokenAddress)
		observability.RecordBlacklisted()
		r.logger.Printf("blacklisted rugged token=%s", rec.TokenAddress)
	}
	if r.buffer != nil {
		r.buffer.MarkSniped(rec.TokenAddress)
	}

	observability.RecordOutcome(string(rec.Outcome))
	r.logger.Printf("recorded outcome token=%s outcome=%s pnl=%.1f id=%s",
		rec.TokenAddress, rec.Outcome, rec.PnL, rec.RecordID)
	return errors.Join(errs...)
}

func hasCabalMarker(reasoning []string) bool {
	for _, tag := range reasoning {
		if strings.Contains(strings.ToLower(tag), "cabal") {
			return true
		}
	}
	return false
}
