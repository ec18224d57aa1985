package memory

import (
	"context"
	"math"
	"sync"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/storage"
)

// ReasoningWeightStore is an in-memory implementation of storage.ReasoningWeightStore.
type ReasoningWeightStore struct {
	mu      sync.RWMutex
	weights map[string]float64 // keyed by reasoning tag
}

// NewReasoningWeightStore creates a new in-memory reasoning weight store.
func NewReasoningWeightStore() *ReasoningWeightStore {
	return &ReasoningWeightStore{
		weights: make(map[string]float64),
	}
}

// Update applies the outcome's impact to every tag's weight. Unseen tags
// initialize to zero before the impact is applied.
func (s *ReasoningWeightStore) Update(_ context.Context, tags []string, outcome domain.Outcome) error {
	if !domain.ValidOutcome(outcome) {
		return storage.ErrInvalidInput
	}
	impact := domain.ReasoningImpact[outcome]

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tag := range tags {
		if tag == "" {
			continue
		}
		s.weights[tag] += impact
	}
	return nil
}

// Bias returns the current weight for a tag, zero when unseen.
func (s *ReasoningWeightStore) Bias(_ context.Context, tag string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.weights[tag], nil
}

// All returns a copy of every tag weight.
func (s *ReasoningWeightStore) All(_ context.Context) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]float64, len(s.weights))
	for tag, w := range s.weights {
		out[tag] = w
	}
	return out, nil
}

// Decay scales every weight by factor and removes entries whose
// magnitude falls below floor. Returns the number removed.
func (s *ReasoningWeightStore) Decay(_ context.Context, factor, floor float64) (int, error) {
	if factor < 0 || factor > 1 {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for tag, w := range s.weights {
		w *= factor
		if math.Abs(w) < floor {
			delete(s.weights, tag)
			removed++
			continue
		}
		s.weights[tag] = w
	}
	return removed, nil
}

var _ storage.ReasoningWeightStore = (*ReasoningWeightStore)(nil)
