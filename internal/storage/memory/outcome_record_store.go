package memory

import (
	"context"
	"sort"
	"sync"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/storage"
)

// OutcomeRecordStore is an in-memory implementation of storage.OutcomeRecordStore.
type OutcomeRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.OutcomeRecord // keyed by record_id
}

// NewOutcomeRecordStore creates a new in-memory outcome record store.
func NewOutcomeRecordStore() *OutcomeRecordStore {
	return &OutcomeRecordStore{
		data: make(map[string]*domain.OutcomeRecord),
	}
}

// Insert adds a record. Returns ErrDuplicateKey if record_id exists.
func (s *OutcomeRecordStore) Insert(_ context.Context, r *domain.OutcomeRecord) error {
	if r == nil || r.RecordID == "" || r.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RecordID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RecordID] = copyRecord(r)
	return nil
}

// GetByID retrieves a record by ID. Returns ErrNotFound if absent.
func (s *OutcomeRecordStore) GetByID(_ context.Context, recordID string) (*domain.OutcomeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[recordID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRecord(r), nil
}

// GetByToken retrieves all records for a token, ordered by closed_at ASC.
func (s *OutcomeRecordStore) GetByToken(_ context.Context, token string) ([]*domain.OutcomeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OutcomeRecord
	for _, r := range s.data {
		if r.TokenAddress == token {
			result = append(result, copyRecord(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ClosedAt < result[j].ClosedAt
	})

	return result, nil
}

// Recent returns up to n records, newest first.
func (s *OutcomeRecordStore) Recent(_ context.Context, n int) ([]*domain.OutcomeRecord, error) {
	if n <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.OutcomeRecord, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, copyRecord(r))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ClosedAt > result[j].ClosedAt
	})

	if len(result) > n {
		result = result[:n]
	}
	return result, nil
}

// Trim removes records beyond maxRecords, oldest first.
func (s *OutcomeRecordStore) Trim(_ context.Context, maxRecords int) (int, error) {
	if maxRecords < 0 {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	excess := len(s.data) - maxRecords
	if excess <= 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.data[ids[i]].ClosedAt < s.data[ids[j]].ClosedAt
	})

	for _, id := range ids[:excess] {
		delete(s.data, id)
	}
	return excess, nil
}

func copyRecord(r *domain.OutcomeRecord) *domain.OutcomeRecord {
	copy := *r
	copy.Reasoning = append([]string(nil), r.Reasoning...)
	copy.Wallets = append([]string(nil), r.Wallets...)
	if r.Signals != nil {
		copy.Signals = make(map[string]string, len(r.Signals))
		for k, v := range r.Signals {
			copy.Signals[k] = v
		}
	}
	return &copy
}

var _ storage.OutcomeRecordStore = (*OutcomeRecordStore)(nil)
