package postgres

import (
	"context"
	"fmt"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/storage"
)

// ReasoningWeightStore implements storage.ReasoningWeightStore using PostgreSQL.
type ReasoningWeightStore struct {
	pool *Pool
}

// NewReasoningWeightStore creates a new ReasoningWeightStore.
func NewReasoningWeightStore(pool *Pool) *ReasoningWeightStore {
	return &ReasoningWeightStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ReasoningWeightStore = (*ReasoningWeightStore)(nil)

// Update applies the outcome's impact to every tag's weight.
func (s *ReasoningWeightStore) Update(ctx context.Context, tags []string, outcome domain.Outcome) error {
	if !domain.ValidOutcome(outcome) {
		return storage.ErrInvalidInput
	}
	impact := domain.ReasoningImpact[outcome]

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO reasoning_weights (tag, weight)
		VALUES ($1, $2)
		ON CONFLICT (tag) DO UPDATE
		SET weight = reasoning_weights.weight + EXCLUDED.weight
	`

	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, err := tx.Exec(ctx, query, tag, impact); err != nil {
			return fmt.Errorf("update reasoning weight: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Bias returns the current weight for a tag, zero when unseen.
func (s *ReasoningWeightStore) Bias(ctx context.Context, tag string) (float64, error) {
	query := `SELECT weight FROM reasoning_weights WHERE tag = $1`

	var weight float64
	err := s.pool.QueryRow(ctx, query, tag).Scan(&weight)
	if err != nil {
		if isNotFoundError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get reasoning weight: %w", err)
	}
	return weight, nil
}

// All returns every tag weight.
func (s *ReasoningWeightStore) All(ctx context.Context) (map[string]float64, error) {
	query := `SELECT tag, weight FROM reasoning_weights`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all reasoning weights: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var tag string
		var weight float64
		if err := rows.Scan(&tag, &weight); err != nil {
			return nil, fmt.Errorf("scan reasoning weight row: %w", err)
		}
		out[tag] = weight
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reasoning weight rows: %w", err)
	}
	return out, nil
}

// Decay scales every weight by factor and removes entries whose
// magnitude falls below floor. Returns the number removed.
func (s *ReasoningWeightStore) Decay(ctx context.Context, factor, floor float64) (int, error) {
	if factor < 0 || factor > 1 {
		return 0, storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE reasoning_weights SET weight = weight * $1`, factor); err != nil {
		return 0, fmt.Errorf("decay reasoning weights: %w", err)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM reasoning_weights WHERE abs(weight) < $1`, floor)
	if err != nil {
		return 0, fmt.Errorf("prune decayed reasoning weights: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return int(ct.RowsAffected()), nil
}
