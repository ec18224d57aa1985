package memory

import (
	"context"
	"sort"
	"sync"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/storage"
)

type tokenRecord struct {
	outcomes domain.OutcomeHistogram
	last     domain.Outcome
	seq      int64
}

// TokenRecordStore is an in-memory implementation of storage.TokenRecordStore.
type TokenRecordStore struct {
	mu      sync.RWMutex
	data    map[string]*tokenRecord // keyed by token address
	nextSeq int64
}

// NewTokenRecordStore creates a new in-memory token record store.
func NewTokenRecordStore() *TokenRecordStore {
	return &TokenRecordStore{
		data: make(map[string]*tokenRecord),
	}
}

// RecordOutcome folds an outcome into the token's history.
func (s *TokenRecordStore) RecordOutcome(_ context.Context, token string, outcome domain.Outcome) error {
	if token == "" {
		return storage.ErrInvalidInput
	}
	if !domain.ValidOutcome(outcome) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.data[token]
	if !exists {
		r = &tokenRecord{}
		s.data[token] = r
	}
	r.outcomes.Add(outcome)
	r.last = outcome
	r.seq = s.nextSeq
	s.nextSeq++
	return nil
}

// Reputation returns the token's reputation score, zero when unseen.
func (s *TokenRecordStore) Reputation(_ context.Context, token string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[token]
	if !exists {
		return 0, nil
	}
	return domain.ReputationImpact[domain.OutcomeProfit]*float64(r.outcomes.Profit) +
		domain.ReputationImpact[domain.OutcomeMoon]*float64(r.outcomes.Moon) +
		domain.ReputationImpact[domain.OutcomeLoss]*float64(r.outcomes.Loss) +
		domain.ReputationImpact[domain.OutcomeRug]*float64(r.outcomes.Rug) +
		domain.ReputationImpact[domain.OutcomeDead]*float64(r.outcomes.Dead), nil
}

// LastOutcome returns the most recent outcome for the token, empty when
// the token has no history.
func (s *TokenRecordStore) LastOutcome(_ context.Context, token string) (domain.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[token]
	if !exists {
		return "", nil
	}
	return r.last, nil
}

// Trim removes token records beyond maxTokens, oldest first.
func (s *TokenRecordStore) Trim(_ context.Context, maxTokens int) (int, error) {
	if maxTokens < 0 {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	excess := len(s.data) - maxTokens
	if excess <= 0 {
		return 0, nil
	}

	tokens := make([]string, 0, len(s.data))
	for t := range s.data {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool {
		return s.data[tokens[i]].seq < s.data[tokens[j]].seq
	})

	for _, t := range tokens[:excess] {
		delete(s.data, t)
	}
	return excess, nil
}

var _ storage.TokenRecordStore = (*TokenRecordStore)(nil)
