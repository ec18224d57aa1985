package storage

import (
	"context"

	"token-snipe-engine/internal/domain"
)

// ReasoningWeightStore maps reasoning tags to outcome-weighted scores.
// Weights are nudged only by the fixed per-outcome impact table; decay
// is the sole other mutation.
type ReasoningWeightStore interface {
	// Update applies the outcome's impact to every tag's weight.
	// Unseen tags initialize to zero before the impact is applied.
	Update(ctx context.Context, tags []string, outcome domain.Outcome) error

	// Bias returns the current weight for a tag, zero when unseen.
	Bias(ctx context.Context, tag string) (float64, error)

	// All returns a copy of every tag weight.
	All(ctx context.Context) (map[string]float64, error)

	// Decay scales every weight by factor and removes entries whose
	// magnitude falls below floor. Returns the number removed.
	Decay(ctx context.Context, factor, floor float64) (int, error)
}

// SignalPatternStore maps signal key/value pairs to outcome histograms.
type SignalPatternStore interface {
	// Record increments the outcome bucket for every signal trait.
	Record(ctx context.Context, signals map[string]string, outcome domain.Outcome) error

	// Histogram returns the outcome counts for one key/value pair.
	// Unseen pairs return a zero histogram, not an error.
	Histogram(ctx context.Context, key, value string) (domain.OutcomeHistogram, error)

	// Snapshot returns a copy of the full pattern memory.
	Snapshot(ctx context.Context) (map[string]map[string]domain.OutcomeHistogram, error)

	// Trim removes signal keys beyond maxKeys, oldest first.
	Trim(ctx context.Context, maxKeys int) (int, error)
}

// WalletProfileStore maintains per-wallet outcome aggregates.
type WalletProfileStore interface {
	// RecordOutcome folds an outcome into the wallet's histogram and
	// attaches the cluster tag when not already present.
	RecordOutcome(ctx context.Context, wallet string, outcome domain.Outcome, clusterTag string) error

	// RecordActivity adds influence impact for observed activity.
	RecordActivity(ctx context.Context, wallet string, impact float64) error

	// Profile returns the wallet's profile. Returns ErrNotFound when
	// the wallet has never been reinforced.
	Profile(ctx context.Context, wallet string) (*domain.WalletProfile, error)

	// Decay scales every influence score by factor.
	Decay(ctx context.Context, factor float64) error

	// Trim removes profiles beyond maxWallets, least recently seen first.
	Trim(ctx context.Context, maxWallets int) (int, error)
}

// StreakStore tracks consecutive outcome runs per scope (global or
// per-token) alongside lifetime outcome counts for the scope.
type StreakStore interface {
	// Apply folds the outcome into the scope's streak and counts,
	// returning the new streak state.
	Apply(ctx context.Context, scope string, outcome domain.Outcome) (domain.StreakState, error)

	// Get returns the current streak for a scope; a zero StreakState
	// when the scope has no history.
	Get(ctx context.Context, scope string) (domain.StreakState, error)

	// Counts returns lifetime outcome counts for a scope.
	Counts(ctx context.Context, scope string) (domain.OutcomeHistogram, error)
}

// TokenRecordStore tracks per-token outcome history and the derived
// reputation score used by the reasoning reweighter and re-entry check.
type TokenRecordStore interface {
	// RecordOutcome folds an outcome into the token's history.
	RecordOutcome(ctx context.Context, token string, outcome domain.Outcome) error

	// Reputation returns the token's reputation score, zero when unseen.
	Reputation(ctx context.Context, token string) (float64, error)

	// LastOutcome returns the most recent outcome for the token, empty
	// when the token has no history.
	LastOutcome(ctx context.Context, token string) (domain.Outcome, error)

	// Trim removes token records beyond maxTokens, oldest first.
	Trim(ctx context.Context, maxTokens int) (int, error)
}

// OutcomeRecordStore persists immutable trade outcome records.
type OutcomeRecordStore interface {
	// Insert adds a record. Returns ErrDuplicateKey if record_id exists.
	Insert(ctx context.Context, r *domain.OutcomeRecord) error

	// GetByID retrieves a record by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, recordID string) (*domain.OutcomeRecord, error)

	// GetByToken retrieves all records for a token, ordered by
	// closed_at ASC.
	GetByToken(ctx context.Context, token string) ([]*domain.OutcomeRecord, error)

	// Recent returns up to n records, newest first.
	Recent(ctx context.Context, n int) ([]*domain.OutcomeRecord, error)

	// Trim removes records beyond maxRecords, oldest first.
	Trim(ctx context.Context, maxRecords int) (int, error)
}

// EvaluationLogStore is the append-only evaluation trace log.
type EvaluationLogStore interface {
	// Append adds an evaluation to the log.
	Append(ctx context.Context, e *domain.Evaluation) error

	// Recent returns up to n evaluations, newest first.
	Recent(ctx context.Context, n int) ([]*domain.Evaluation, error)

	// ScoreDistribution returns evaluation counts bucketed by score
	// decade (0, 10, ... 100) and action.
	ScoreDistribution(ctx context.Context) (map[int]map[domain.Action]int64, error)

	// Trim removes evaluations beyond maxEntries, oldest first.
	Trim(ctx context.Context, maxEntries int) (int, error)
}
