package postgres

import (
	"context"
	"fmt"
	"time"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/storage"
)

// WalletProfileStore implements storage.WalletProfileStore using PostgreSQL.
type WalletProfileStore struct {
	pool *Pool
}

// NewWalletProfileStore creates a new WalletProfileStore.
func NewWalletProfileStore(pool *Pool) *WalletProfileStore {
	return &WalletProfileStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WalletProfileStore = (*WalletProfileStore)(nil)

// RecordOutcome folds an outcome into the wallet's histogram and
// attaches the cluster tag when not already present.
func (s *WalletProfileStore) RecordOutcome(ctx context.Context, wallet string, outcome domain.Outcome, clusterTag string) error {
	if wallet == "" {
		return storage.ErrInvalidInput
	}
	if !domain.ValidOutcome(outcome) {
		return storage.ErrInvalidInput
	}

	var h domain.OutcomeHistogram
	h.Add(outcome)

	var tags []string
	if clusterTag != "" {
		tags = []string{clusterTag}
	}

	query := `
		INSERT INTO wallet_profiles (address, profit, loss, rug, moon, dead, cluster_tags, influence, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)
		ON CONFLICT (address) DO UPDATE SET
			profit = wallet_profiles.profit + EXCLUDED.profit,
			loss   = wallet_profiles.loss + EXCLUDED.loss,
			rug    = wallet_profiles.rug + EXCLUDED.rug,
			moon   = wallet_profiles.moon + EXCLUDED.moon,
			dead   = wallet_profiles.dead + EXCLUDED.dead,
			cluster_tags = CASE
				WHEN $9 = '' OR $9 = ANY(wallet_profiles.cluster_tags) THEN wallet_profiles.cluster_tags
				ELSE array_append(wallet_profiles.cluster_tags, $9)
			END,
			last_seen = EXCLUDED.last_seen
	`

	_, err := s.pool.Exec(ctx, query,
		wallet, h.Profit, h.Loss, h.Rug, h.Moon, h.Dead, tags, time.Now().UnixMilli(), clusterTag,
	)
	if err != nil {
		return fmt.Errorf("record wallet outcome: %w", err)
	}
	return nil
}

// RecordActivity adds influence impact for observed activity.
func (s *WalletProfileStore) RecordActivity(ctx context.Context, wallet string, impact float64) error {
	if wallet == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO wallet_profiles (address, profit, loss, rug, moon, dead, cluster_tags, influence, last_seen)
		VALUES ($1, 0, 0, 0, 0, 0, '{}', $2, $3)
		ON CONFLICT (address) DO UPDATE SET
			influence = wallet_profiles.influence + EXCLUDED.influence,
			last_seen = EXCLUDED.last_seen
	`

	if _, err := s.pool.Exec(ctx, query, wallet, impact, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("record wallet activity: %w", err)
	}
	return nil
}

// Profile returns the wallet's profile. Returns ErrNotFound when the
// wallet has never been reinforced.
func (s *WalletProfileStore) Profile(ctx context.Context, wallet string) (*domain.WalletProfile, error) {
	query := `
		SELECT address, profit, loss, rug, moon, dead, cluster_tags, influence, last_seen
		FROM wallet_profiles
		WHERE address = $1
	`

	var p domain.WalletProfile
	err := s.pool.QueryRow(ctx, query, wallet).Scan(
		&p.Address, &p.Outcomes.Profit, &p.Outcomes.Loss, &p.Outcomes.Rug,
		&p.Outcomes.Moon, &p.Outcomes.Dead, &p.ClusterTags, &p.Influence, &p.LastSeen,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get wallet profile: %w", err)
	}
	return &p, nil
}

// Decay scales every influence score by factor.
func (s *WalletProfileStore) Decay(ctx context.Context, factor float64) error {
	if factor < 0 || factor > 1 {
		return storage.ErrInvalidInput
	}

	if _, err := s.pool.Exec(ctx, `UPDATE wallet_profiles SET influence = influence * $1`, factor); err != nil {
		return fmt.Errorf("decay wallet influence: %w", err)
	}
	return nil
}

// Trim removes profiles beyond maxWallets, least recently seen first.
func (s *WalletProfileStore) Trim(ctx context.Context, maxWallets int) (int, error) {
	if maxWallets < 0 {
		return 0, storage.ErrInvalidInput
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM wallet_profiles`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count wallet profiles: %w", err)
	}

	excess := total - maxWallets
	if excess <= 0 {
		return 0, nil
	}

	query := `
		DELETE FROM wallet_profiles
		WHERE address IN (
			SELECT address FROM wallet_profiles ORDER BY last_seen ASC LIMIT $1
		)
	`
	if _, err := s.pool.Exec(ctx, query, excess); err != nil {
		return 0, fmt.Errorf("trim wallet profiles: %w", err)
	}
	return excess, nil
}
