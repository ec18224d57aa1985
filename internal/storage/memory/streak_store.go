package memory

import (
	"context"
	"sync"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/storage"
)

// StreakStore is an in-memory implementation of storage.StreakStore.
type StreakStore struct {
	mu      sync.RWMutex
	streaks map[string]domain.StreakState       // keyed by scope
	counts  map[string]*domain.OutcomeHistogram // keyed by scope
}

// NewStreakStore creates a new in-memory streak store.
func NewStreakStore() *StreakStore {
	return &StreakStore{
		streaks: make(map[string]domain.StreakState),
		counts:  make(map[string]*domain.OutcomeHistogram),
	}
}

// Apply folds the outcome into the scope's streak and counts, returning
// the new streak state.
func (s *StreakStore) Apply(_ context.Context, scope string, outcome domain.Outcome) (domain.StreakState, error) {
	if scope == "" {
		return domain.StreakState{}, storage.ErrInvalidInput
	}
	if !domain.ValidOutcome(outcome) {
		return domain.StreakState{}, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.streaks[scope].Apply(outcome)
	s.streaks[scope] = next

	h, exists := s.counts[scope]
	if !exists {
		h = &domain.OutcomeHistogram{}
		s.counts[scope] = h
	}
	h.Add(outcome)

	return next, nil
}

// Get returns the current streak for a scope; a zero StreakState when
// the scope has no history.
func (s *StreakStore) Get(_ context.Context, scope string) (domain.StreakState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.streaks[scope], nil
}

// Counts returns lifetime outcome counts for a scope.
func (s *StreakStore) Counts(_ context.Context, scope string) (domain.OutcomeHistogram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, exists := s.counts[scope]
	if !exists {
		return domain.OutcomeHistogram{}, nil
	}
	return *h, nil
}

var _ storage.StreakStore = (*StreakStore)(nil)
