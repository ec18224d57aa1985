package postgres

import (
	"context"
	"fmt"
	"time"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/storage"
)

// TokenRecordStore implements storage.TokenRecordStore using PostgreSQL.
type TokenRecordStore struct {
	pool *Pool
}

// NewTokenRecordStore creates a new TokenRecordStore.
func NewTokenRecordStore(pool *Pool) *TokenRecordStore {
	return &TokenRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenRecordStore = (*TokenRecordStore)(nil)

// RecordOutcome folds an outcome into the token's history.
func (s *TokenRecordStore) RecordOutcome(ctx context.Context, token string, outcome domain.Outcome) error {
	if token == "" {
		return storage.ErrInvalidInput
	}
	if !domain.ValidOutcome(outcome) {
		return storage.ErrInvalidInput
	}

	var h domain.OutcomeHistogram
	h.Add(outcome)

	query := `
		INSERT INTO token_records (address, profit, loss, rug, moon, dead, last_outcome, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (address) DO UPDATE SET
			profit = token_records.profit + EXCLUDED.profit,
			loss   = token_records.loss + EXCLUDED.loss,
			rug    = token_records.rug + EXCLUDED.rug,
			moon   = token_records.moon + EXCLUDED.moon,
			dead   = token_records.dead + EXCLUDED.dead,
			last_outcome = EXCLUDED.last_outcome,
			last_seen    = EXCLUDED.last_seen
	`
	_, err := s.pool.Exec(ctx, query,
		token, h.Profit, h.Loss, h.Rug, h.Moon, h.Dead, string(outcome), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record token outcome: %w", err)
	}
	return nil
}

// Reputation returns the token's reputation score, zero when unseen.
// The score is derived from the outcome counts and the fixed
// reputation impact table.
func (s *TokenRecordStore) Reputation(ctx context.Context, token string) (float64, error) {
	var h domain.OutcomeHistogram
	err := s.pool.QueryRow(ctx,
		`SELECT profit, loss, rug, moon, dead FROM token_records WHERE address = $1`,
		token,
	).Scan(&h.Profit, &h.Loss, &h.Rug, &h.Moon, &h.Dead)
	if err != nil {
		if isNotFoundError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get token reputation: %w", err)
	}

	return domain.ReputationImpact[domain.OutcomeProfit]*float64(h.Profit) +
		domain.ReputationImpact[domain.OutcomeMoon]*float64(h.Moon) +
		domain.ReputationImpact[domain.OutcomeLoss]*float64(h.Loss) +
		domain.ReputationImpact[domain.OutcomeRug]*float64(h.Rug) +
		domain.ReputationImpact[domain.OutcomeDead]*float64(h.Dead), nil
}

// LastOutcome returns the most recent outcome for the token, empty when
// the token has no history.
func (s *TokenRecordStore) LastOutcome(ctx context.Context, token string) (domain.Outcome, error) {
	var last string
	err := s.pool.QueryRow(ctx,
		`SELECT last_outcome FROM token_records WHERE address = $1`,
		token,
	).Scan(&last)
	if err != nil {
		if isNotFoundError(err) {
			return "", nil
		}
		return "", fmt.Errorf("get token last outcome: %w", err)
	}
	return domain.Outcome(last), nil
}

// Trim removes token records beyond maxTokens, oldest first.
func (s *TokenRecordStore) Trim(ctx context.Context, maxTokens int) (int, error) {
	if maxTokens < 0 {
		return 0, storage.ErrInvalidInput
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM token_records`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count token records: %w", err)
	}

	excess := total - maxTokens
	if excess <= 0 {
		return 0, nil
	}

	query := `
		DELETE FROM token_records
		WHERE address IN (
			SELECT address FROM token_records ORDER BY last_seen ASC LIMIT $1
		)
	`
	if _, err := s.pool.Exec(ctx, query, excess); err != nil {
		return 0, fmt.Errorf("trim token records: %w", err)
	}
	return excess, nil
}
