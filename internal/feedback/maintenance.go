package feedback

import (
	"context"
	"errors"
	"fmt"
	"log"

	"token-snipe-engine/internal/observability"
	"token-snipe-engine/internal/storage"
)

// Default maintenance parameters. Decay is multiplicative so running
// it twice equals one pass with the combined factor.
const (
	DefaultDecayFactor = 0.95
	DefaultWeightFloor = 0.01

	DefaultMaxSignalKeys  = 5000
	DefaultMaxWallets     = 10000
	DefaultMaxTokens      = 10000
	DefaultMaxRecords     = 10000
	DefaultMaxEvaluations = 50000
)

// Maintainer runs the periodic decay and trim passes over the memory
// stores. Invoked on a schedule, never per event.
type Maintainer struct {
	weights  storage.ReasoningWeightStore
	patterns storage.SignalPatternStore
	wallets  storage.WalletProfileStore
	tokens   storage.TokenRecordStore
	records  storage.OutcomeRecordStore
	evalLog  storage.EvaluationLogStore

	decayFactor float64
	weightFloor float64

	maxSignalKeys  int
	maxWallets     int
	maxTokens      int
	maxRecords     int
	maxEvaluations int

	logger *log.Logger
}

// MaintainerOptions configures a Maintainer. Zero limits and factors
// take the package defaults.
type MaintainerOptions struct {
	Weights  storage.ReasoningWeightStore
	Patterns storage.SignalPatternStore
	Wallets  storage.WalletProfileStore
	Tokens   storage.TokenRecordStore
	Records  storage.OutcomeRecordStore
	EvalLog  storage.EvaluationLogStore

	DecayFactor float64
	WeightFloor float64

	MaxSignalKeys  int
	MaxWallets     int
	MaxTokens      int
	MaxRecords     int
	MaxEvaluations int

	Logger *log.Logger
}

// NewMaintainer creates a Maintainer with defaults applied.
func NewMaintainer(opts MaintainerOptions) *Maintainer {
	if opts.DecayFactor <= 0 || opts.DecayFactor >= 1 {
		opts.DecayFactor = DefaultDecayFactor
	}
	if opts.WeightFloor <= 0 {
		opts.WeightFloor = DefaultWeightFloor
	}
	if opts.MaxSignalKeys <= 0 {
		opts.MaxSignalKeys = DefaultMaxSignalKeys
	}
	if opts.MaxWallets <= 0 {
		opts.MaxWallets = DefaultMaxWallets
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.MaxRecords <= 0 {
		opts.MaxRecords = DefaultMaxRecords
	}
	if opts.MaxEvaluations <= 0 {
		opts.MaxEvaluations = DefaultMaxEvaluations
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Maintainer{
		weights:        opts.Weights,
		patterns:       opts.Patterns,
		wallets:        opts.Wallets,
		tokens:         opts.Tokens,
		records:        opts.Records,
		evalLog:        opts.EvalLog,
		decayFactor:    opts.DecayFactor,
		weightFloor:    opts.WeightFloor,
		maxSignalKeys:  opts.MaxSignalKeys,
		maxWallets:     opts.MaxWallets,
		maxTokens:      opts.MaxTokens,
		maxRecords:     opts.MaxRecords,
		maxEvaluations: opts.MaxEvaluations,
		logger:         opts.Logger,
	}
}

// Decay dampens all reasoning weights and wallet influence scores.
func (m *Maintainer) Decay(ctx context.Context) error {
	var errs []error

	if m.weights != nil {
		removed, err := m.weights.Decay(ctx, m.decayFactor, m.weightFloor)
		if err != nil {
			errs = append(errs, fmt.Errorf("reasoning weights decay: %w", err))
		} else if removed > 0 {
			m.logger.Printf("decay dropped %d faded reasoning weights", removed)
		}
	}
	if m.wallets != nil {
		if err := m.wallets.Decay(ctx, m.decayFactor); err != nil {
			errs = append(errs, fmt.Errorf("wallet influence decay: %w", err))
		}
	}

	observability.RecordDecayRun()
	return errors.Join(errs...)
}

// Trim caps every bounded store, oldest entries first.
func (m *Maintainer) Trim(ctx context.Context) error {
	var errs []error
	trim := func(name string, fn func(context.Context) (int, error)) {
		if fn == nil {
			return
		}
		removed, err := fn(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s trim: %w", name, err))
			return
		}
		observability.RecordTrimRun(name, removed)
		if removed > 0 {
			m.logger.Printf("trimmed %d entries from %s", removed, name)
		}
	}

	if m.patterns != nil {
		trim("signal_patterns", func(ctx context.Context) (int, error) {
			return m.patterns.Trim(ctx, m.maxSignalKeys)
		})
	}
	if m.wallets != nil {
		trim("wallet_profiles", func(ctx context.Context) (int, error) {
			return m.wallets.Trim(ctx, m.maxWallets)
		})
	}
	if m.tokens != nil {
		trim("token_records", func(ctx context.Context) (int, error) {
			return m.tokens.Trim(ctx, m.maxTokens)
		})
	}
	if m.records != nil {
		trim("outcome_records", func(ctx context.Context) (int, error) {
			return m.records.Trim(ctx, m.maxRecords)
		})
	}
	if m.evalLog != nil {
		trim("evaluation_log", func(ctx context.Context) (int, error) {
			return m.evalLog.Trim(ctx, m.maxEvaluations)
		})
	}
	return errors.Join(errs...)
}
