package postgres

import (
	"context"
	"fmt"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/storage"
)

// StreakStore implements storage.StreakStore using PostgreSQL.
type StreakStore struct {
	pool *Pool
}

// NewStreakStore creates a new StreakStore.
func NewStreakStore(pool *Pool) *StreakStore {
	return &StreakStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StreakStore = (*StreakStore)(nil)

// Apply folds the outcome into the scope's streak and counts, returning
// the new streak state. The row is locked for the read-modify-write so
// concurrent feedback writers cannot lose an increment.
func (s *StreakStore) Apply(ctx context.Context, scope string, outcome domain.Outcome) (domain.StreakState, error) {
	if scope == "" {
		return domain.StreakState{}, storage.ErrInvalidInput
	}
	if !domain.ValidOutcome(outcome) {
		return domain.StreakState{}, storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.StreakState{}, fmt.Errorf("begin streak apply: %w", err)
	}
	defer tx.Rollback(ctx)

	var current domain.StreakState
	err = tx.QueryRow(ctx,
		`SELECT streak_type, streak_count FROM streaks WHERE scope = $1 FOR UPDATE`,
		scope,
	).Scan(&current.Type, &current.Count)
	if err != nil && !isNotFoundError(err) {
		return domain.StreakState{}, fmt.Errorf("read streak: %w", err)
	}

	next := current.Apply(outcome)

	var h domain.OutcomeHistogram
	h.Add(outcome)

	query := `
		INSERT INTO streaks (scope, streak_type, streak_count, profit, loss, rug, moon, dead)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (scope) DO UPDATE SET
			streak_type  = EXCLUDED.streak_type,
			streak_count = EXCLUDED.streak_count,
			profit = streaks.profit + EXCLUDED.profit,
			loss   = streaks.loss + EXCLUDED.loss,
			rug    = streaks.rug + EXCLUDED.rug,
			moon   = streaks.moon + EXCLUDED.moon,
			dead   = streaks.dead + EXCLUDED.dead
	`
	if _, err := tx.Exec(ctx, query,
		scope, string(next.Type), next.Count, h.Profit, h.Loss, h.Rug, h.Moon, h.Dead,
	); err != nil {
		return domain.StreakState{}, fmt.Errorf("apply streak: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.StreakState{}, fmt.Errorf("commit streak apply: %w", err)
	}
	return next, nil
}

// Get returns the current streak for a scope; a zero StreakState when
// the scope has no history.
func (s *StreakStore) Get(ctx context.Context, scope string) (domain.StreakState, error) {
	var st domain.StreakState
	err := s.pool.QueryRow(ctx,
		`SELECT streak_type, streak_count FROM streaks WHERE scope = $1`,
		scope,
	).Scan(&st.Type, &st.Count)
	if err != nil {
		if isNotFoundError(err) {
			return domain.StreakState{}, nil
		}
		return domain.StreakState{}, fmt.Errorf("get streak: %w", err)
	}
	return st, nil
}

// Counts returns lifetime outcome counts for a scope.
func (s *StreakStore) Counts(ctx context.Context, scope string) (domain.OutcomeHistogram, error) {
	var h domain.OutcomeHistogram
	err := s.pool.QueryRow(ctx,
		`SELECT profit, loss, rug, moon, dead FROM streaks WHERE scope = $1`,
		scope,
	).Scan(&h.Profit, &h.Loss, &h.Rug, &h.Moon, &h.Dead)
	if err != nil {
		if isNotFoundError(err) {
			return domain.OutcomeHistogram{}, nil
		}
		return domain.OutcomeHistogram{}, fmt.Errorf("get streak counts: %w", err)
	}
	return h, nil
}
