package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/storage"
	"token-snipe-engine/internal/storage/postgres"
)

func TestTokenRecordStore_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewTokenRecordStore(pool)
	ctx := context.Background()

	t.Run("reputation follows impact table", func(t *testing.T) {
		require.NoError(t, store.RecordOutcome(ctx, "TokenA", domain.OutcomeProfit))
		require.NoError(t, store.RecordOutcome(ctx, "TokenA", domain.OutcomeProfit))
		require.NoError(t, store.RecordOutcome(ctx, "TokenA", domain.OutcomeRug))

		rep, err := store.Reputation(ctx, "TokenA")
		require.NoError(t, err)
		require.Equal(t, -1.0, rep) // 2*2 - 5
	})

	t.Run("last outcome tracks most recent", func(t *testing.T) {
		last, err := store.LastOutcome(ctx, "TokenA")
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeRug, last)
	})

	t.Run("unseen token is neutral", func(t *testing.T) {
		rep, err := store.Reputation(ctx, "TokenGhost")
		require.NoError(t, err)
		require.Zero(t, rep)

		last, err := store.LastOutcome(ctx, "TokenGhost")
		require.NoError(t, err)
		require.Empty(t, last)
	})

	t.Run("trim removes oldest", func(t *testing.T) {
		require.NoError(t, store.RecordOutcome(ctx, "TokenB", domain.OutcomeDead))
		require.NoError(t, store.RecordOutcome(ctx, "TokenC", domain.OutcomeMoon))
		// TokenA is oldest until touched again.
		require.NoError(t, store.RecordOutcome(ctx, "TokenA", domain.OutcomeLoss))

		removed, err := store.Trim(ctx, 2)
		require.NoError(t, err)
		require.Equal(t, 1, removed)

		last, err := store.LastOutcome(ctx, "TokenB")
		require.NoError(t, err)
		require.Empty(t, last)

		last, err = store.LastOutcome(ctx, "TokenA")
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeLoss, last)
	})

	t.Run("invalid input rejected", func(t *testing.T) {
		require.ErrorIs(t, store.RecordOutcome(ctx, "", domain.OutcomeProfit), storage.ErrInvalidInput)
		require.ErrorIs(t, store.RecordOutcome(ctx, "TokenA", domain.Outcome("flat")), storage.ErrInvalidInput)
	})
}
