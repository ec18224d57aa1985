package postgres

import (
	"context"
	"fmt"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/storage"
)

// SignalPatternStore implements storage.SignalPatternStore using PostgreSQL.
type SignalPatternStore struct {
	pool *Pool
}

// NewSignalPatternStore creates a new SignalPatternStore.
func NewSignalPatternStore(pool *Pool) *SignalPatternStore {
	return &SignalPatternStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SignalPatternStore = (*SignalPatternStore)(nil)

// Record increments the outcome bucket for every signal trait.
func (s *SignalPatternStore) Record(ctx context.Context, signals map[string]string, outcome domain.Outcome) error {
	if !domain.ValidOutcome(outcome) {
		return storage.ErrInvalidInput
	}

	var h domain.OutcomeHistogram
	h.Add(outcome)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO signal_patterns (signal_key, signal_value, profit, loss, rug, moon, dead)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (signal_key, signal_value) DO UPDATE SET
			profit = signal_patterns.profit + EXCLUDED.profit,
			loss   = signal_patterns.loss + EXCLUDED.loss,
			rug    = signal_patterns.rug + EXCLUDED.rug,
			moon   = signal_patterns.moon + EXCLUDED.moon,
			dead   = signal_patterns.dead + EXCLUDED.dead
	`

	for key, value := range signals {
		if key == "" {
			continue
		}
		if _, err := tx.Exec(ctx, query, key, value, h.Profit, h.Loss, h.Rug, h.Moon, h.Dead); err != nil {
			return fmt.Errorf("record signal pattern: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Histogram returns the outcome counts for one key/value pair. Unseen
// pairs return a zero histogram, not an error.
func (s *SignalPatternStore) Histogram(ctx context.Context, key, value string) (domain.OutcomeHistogram, error) {
	query := `
		SELECT profit, loss, rug, moon, dead
		FROM signal_patterns
		WHERE signal_key = $1 AND signal_value = $2
	`

	var h domain.OutcomeHistogram
	err := s.pool.QueryRow(ctx, query, key, value).Scan(&h.Profit, &h.Loss, &h.Rug, &h.Moon, &h.Dead)
	if err != nil {
		if isNotFoundError(err) {
			return domain.OutcomeHistogram{}, nil
		}
		return domain.OutcomeHistogram{}, fmt.Errorf("get signal pattern histogram: %w", err)
	}
	return h, nil
}

// Snapshot returns the full pattern memory.
func (s *SignalPatternStore) Snapshot(ctx context.Context) (map[string]map[string]domain.OutcomeHistogram, error) {
	query := `SELECT signal_key, signal_value, profit, loss, rug, moon, dead FROM signal_patterns`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("snapshot signal patterns: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]domain.OutcomeHistogram)
	for rows.Next() {
		var key, value string
		var h domain.OutcomeHistogram
		if err := rows.Scan(&key, &value, &h.Profit, &h.Loss, &h.Rug, &h.Moon, &h.Dead); err != nil {
			return nil, fmt.Errorf("scan signal pattern row: %w", err)
		}
		values, exists := out[key]
		if !exists {
			values = make(map[string]domain.OutcomeHistogram)
			out[key] = values
		}
		values[value] = h
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signal pattern rows: %w", err)
	}
	return out, nil
}

// Trim removes signal keys beyond maxKeys, oldest first.
func (s *SignalPatternStore) Trim(ctx context.Context, maxKeys int) (int, error) {
	if maxKeys < 0 {
		return 0, storage.ErrInvalidInput
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(DISTINCT signal_key) FROM signal_patterns`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count signal keys: %w", err)
	}

	excess := total - maxKeys
	if excess <= 0 {
		return 0, nil
	}

	query := `
		DELETE FROM signal_patterns
		WHERE signal_key IN (
			SELECT signal_key
			FROM signal_patterns
			GROUP BY signal_key
			ORDER BY min(created_at) ASC
			LIMIT $1
		)
	`
	if _, err := s.pool.Exec(ctx, query, excess); err != nil {
		return 0, fmt.Errorf("trim signal patterns: %w", err)
	}
	return excess, nil
}
