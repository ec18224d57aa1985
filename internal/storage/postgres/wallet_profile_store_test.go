package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/storage"
	"token-snipe-engine/internal/storage/postgres"
)

func TestWalletProfileStore_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewWalletProfileStore(pool)
	ctx := context.Background()

	t.Run("record outcome and profile", func(t *testing.T) {
		require.NoError(t, store.RecordOutcome(ctx, "wallet1", domain.OutcomeRug, domain.ClusterTagCabal))
		require.NoError(t, store.RecordOutcome(ctx, "wallet1", domain.OutcomeRug, domain.ClusterTagCabal))
		require.NoError(t, store.RecordOutcome(ctx, "wallet1", domain.OutcomeProfit, ""))

		p, err := store.Profile(ctx, "wallet1")
		require.NoError(t, err)
		require.Equal(t, int64(2), p.Outcomes.Rug)
		require.Equal(t, int64(1), p.Outcomes.Profit)
		require.Equal(t, []string{domain.ClusterTagCabal}, p.ClusterTags)
		require.Equal(t, -6.0, p.ImpactScore())
	})

	t.Run("unknown wallet not found", func(t *testing.T) {
		_, err := store.Profile(ctx, "ghost")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("influence decay", func(t *testing.T) {
		require.NoError(t, store.RecordActivity(ctx, "wallet2", 10))
		require.NoError(t, store.Decay(ctx, 0.95))

		p, err := store.Profile(ctx, "wallet2")
		require.NoError(t, err)
		require.InDelta(t, 9.5, p.Influence, 1e-9)
	})

	t.Run("trim removes least recently seen", func(t *testing.T) {
		require.NoError(t, store.RecordOutcome(ctx, "wallet3", domain.OutcomeDead, ""))
		// wallet1 was touched first, then wallet2, then wallet3; touch
		// wallet1 again so wallet2 becomes the stalest.
		require.NoError(t, store.RecordActivity(ctx, "wallet1", 1))

		removed, err := store.Trim(ctx, 2)
		require.NoError(t, err)
		require.Equal(t, 1, removed)

		_, err = store.Profile(ctx, "wallet2")
		require.ErrorIs(t, err, storage.ErrNotFound)

		_, err = store.Profile(ctx, "wallet1")
		require.NoError(t, err)
	})
}
