package memory

import (
	"context"
	"sync"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/storage"
)

// EvaluationLogStore is an in-memory implementation of storage.EvaluationLogStore.
// Entries are held in append order.
type EvaluationLogStore struct {
	mu      sync.RWMutex
	entries []*domain.Evaluation
}

// NewEvaluationLogStore creates a new in-memory evaluation log store.
func NewEvaluationLogStore() *EvaluationLogStore {
	return &EvaluationLogStore{}
}

// Append adds an evaluation to the log.
func (s *EvaluationLogStore) Append(_ context.Context, e *domain.Evaluation) error {
	if e == nil || e.EvaluationID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, copyEvaluation(e))
	return nil
}

// Recent returns up to n evaluations, newest first.
func (s *EvaluationLogStore) Recent(_ context.Context, n int) ([]*domain.Evaluation, error) {
	if n <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.entries) {
		n = len(s.entries)
	}
	result := make([]*domain.Evaluation, 0, n)
	for i := len(s.entries) - 1; i >= len(s.entries)-n; i-- {
		result = append(result, copyEvaluation(s.entries[i]))
	}
	return result, nil
}

// ScoreDistribution returns evaluation counts bucketed by score decade
// (0, 10, ... 100) and action.
func (s *EvaluationLogStore) ScoreDistribution(_ context.Context) (map[int]map[domain.Action]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dist := make(map[int]map[domain.Action]int64)
	for _, e := range s.entries {
		bucket := scoreBucket(e.Score)
		actions, exists := dist[bucket]
		if !exists {
			actions = make(map[domain.Action]int64)
			dist[bucket] = actions
		}
		actions[e.Action]++
	}
	return dist, nil
}

// Trim removes evaluations beyond maxEntries, oldest first.
func (s *EvaluationLogStore) Trim(_ context.Context, maxEntries int) (int, error) {
	if maxEntries < 0 {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	excess := len(s.entries) - maxEntries
	if excess <= 0 {
		return 0, nil
	}

	s.entries = append([]*domain.Evaluation(nil), s.entries[excess:]...)
	return excess, nil
}

func scoreBucket(score float64) int {
	bucket := int(score/10) * 10
	if bucket < 0 {
		bucket = 0
	}
	if bucket > 100 {
		bucket = 100
	}
	return bucket
}

func copyEvaluation(e *domain.Evaluation) *domain.Evaluation {
	copy := *e
	copy.Reasoning = append([]string(nil), e.Reasoning...)
	copy.Issues = append([]string(nil), e.Issues...)
	return &copy
}

var _ storage.EvaluationLogStore = (*EvaluationLogStore)(nil)
