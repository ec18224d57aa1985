package memory

import (
	"context"
	"sort"
	"sync"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/storage"
)

// SignalPatternStore is an in-memory implementation of storage.SignalPatternStore.
type SignalPatternStore struct {
	mu       sync.RWMutex
	patterns map[string]map[string]*domain.OutcomeHistogram // key -> value -> histogram
	seq      map[string]int64                               // key -> insertion sequence, for Trim ordering
	nextSeq  int64
}

// NewSignalPatternStore creates a new in-memory signal pattern store.
func NewSignalPatternStore() *SignalPatternStore {
	return &SignalPatternStore{
		patterns: make(map[string]map[string]*domain.OutcomeHistogram),
		seq:      make(map[string]int64),
	}
}

// Record increments the outcome bucket for every signal trait.
func (s *SignalPatternStore) Record(_ context.Context, signals map[string]string, outcome domain.Outcome) error {
	if !domain.ValidOutcome(outcome) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range signals {
		if key == "" {
			continue
		}
		values, exists := s.patterns[key]
		if !exists {
			values = make(map[string]*domain.OutcomeHistogram)
			s.patterns[key] = values
			s.seq[key] = s.nextSeq
			s.nextSeq++
		}
		h, exists := values[value]
		if !exists {
			h = &domain.OutcomeHistogram{}
			values[value] = h
		}
		h.Add(outcome)
	}
	return nil
}

// Histogram returns the outcome counts for one key/value pair. Unseen
// pairs return a zero histogram, not an error.
func (s *SignalPatternStore) Histogram(_ context.Context, key, value string) (domain.OutcomeHistogram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, exists := s.patterns[key]
	if !exists {
		return domain.OutcomeHistogram{}, nil
	}
	h, exists := values[value]
	if !exists {
		return domain.OutcomeHistogram{}, nil
	}
	return *h, nil
}

// Snapshot returns a copy of the full pattern memory.
func (s *SignalPatternStore) Snapshot(_ context.Context) (map[string]map[string]domain.OutcomeHistogram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]domain.OutcomeHistogram, len(s.patterns))
	for key, values := range s.patterns {
		vc := make(map[string]domain.OutcomeHistogram, len(values))
		for value, h := range values {
			vc[value] = *h
		}
		out[key] = vc
	}
	return out, nil
}

// Trim removes signal keys beyond maxKeys, oldest first.
func (s *SignalPatternStore) Trim(_ context.Context, maxKeys int) (int, error) {
	if maxKeys < 0 {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	excess := len(s.patterns) - maxKeys
	if excess <= 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(s.patterns))
	for key := range s.patterns {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.seq[keys[i]] < s.seq[keys[j]]
	})

	for _, key := range keys[:excess] {
		delete(s.patterns, key)
		delete(s.seq, key)
	}
	return excess, nil
}

var _ storage.SignalPatternStore = (*SignalPatternStore)(nil)
