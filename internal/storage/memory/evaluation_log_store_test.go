package memory

import (
	"context"
	"fmt"
	"testing"

	"token-snipe-engine/internal/domain"
)

func TestEvaluationLogStore_AppendAndRecent(t *testing.T) {
	store := NewEvaluationLogStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.Append(ctx, &domain.Evaluation{
			EvaluationID: fmt.Sprintf("e%d", i),
			TokenAddress: "mint1",
			Action:       domain.ActionSnipe,
			Score:        float64(i * 10),
			Timestamp:    int64(i * 1000),
		})
	}

	result, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(result))
	}
	if result[0].EvaluationID != "e4" || result[1].EvaluationID != "e3" {
		t.Errorf("Expected newest first, got %s %s", result[0].EvaluationID, result[1].EvaluationID)
	}
}

func TestEvaluationLogStore_ScoreDistribution(t *testing.T) {
	store := NewEvaluationLogStore()
	ctx := context.Background()

	store.Append(ctx, &domain.Evaluation{EvaluationID: "e1", Score: 5, Action: domain.ActionIgnore})
	store.Append(ctx, &domain.Evaluation{EvaluationID: "e2", Score: 15, Action: domain.ActionSnipe})
	store.Append(ctx, &domain.Evaluation{EvaluationID: "e3", Score: 17, Action: domain.ActionSnipe})
	store.Append(ctx, &domain.Evaluation{EvaluationID: "e4", Score: 100, Action: domain.ActionTrade})

	dist, err := store.ScoreDistribution(ctx)
	if err != nil {
		t.Fatalf("ScoreDistribution failed: %v", err)
	}

	if dist[0][domain.ActionIgnore] != 1 {
		t.Errorf("Expected 1 ignore in bucket 0, got %d", dist[0][domain.ActionIgnore])
	}
	if dist[10][domain.ActionSnipe] != 2 {
		t.Errorf("Expected 2 snipes in bucket 10, got %d", dist[10][domain.ActionSnipe])
	}
	if dist[100][domain.ActionTrade] != 1 {
		t.Errorf("Expected 1 trade in bucket 100, got %d", dist[100][domain.ActionTrade])
	}
}

func TestEvaluationLogStore_TrimOldestFirst(t *testing.T) {
	store := NewEvaluationLogStore()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		store.Append(ctx, &domain.Evaluation{EvaluationID: fmt.Sprintf("e%d", i)})
	}

	removed, err := store.Trim(ctx, 4)
	if err != nil {
		t.Fatalf("Trim failed: %v", err)
	}
	if removed != 6 {
		t.Errorf("Expected 6 removed, got %d", removed)
	}

	result, _ := store.Recent(ctx, 100)
	if len(result) != 4 {
		t.Fatalf("Expected 4 surviving entries, got %d", len(result))
	}
	if result[len(result)-1].EvaluationID != "e6" {
		t.Errorf("Expected oldest survivor e6, got %s", result[len(result)-1].EvaluationID)
	}
}
