package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/storage"
)

// WalletProfileStore is an in-memory implementation of storage.WalletProfileStore.
type WalletProfileStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WalletProfile // keyed by wallet address
	seen map[string]int64                 // wallet -> last touch sequence, for Trim ordering
	seq  int64

	now func() int64 // Unix millis, overridable in tests
}

// NewWalletProfileStore creates a new in-memory wallet profile store.
func NewWalletProfileStore() *WalletProfileStore {
	return &WalletProfileStore{
		data: make(map[string]*domain.WalletProfile),
		seen: make(map[string]int64),
		now:  func() int64 { return time.Now().UnixMilli() },
	}
}

// RecordOutcome folds an outcome into the wallet's histogram and
// attaches the cluster tag when not already present.
func (s *WalletProfileStore) RecordOutcome(_ context.Context, wallet string, outcome domain.Outcome, clusterTag string) error {
	if wallet == "" {
		return storage.ErrInvalidInput
	}
	if !domain.ValidOutcome(outcome) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.touch(wallet)
	p.Outcomes.Add(outcome)
	if clusterTag != "" && !p.HasTag(clusterTag) {
		p.ClusterTags = append(p.ClusterTags, clusterTag)
	}
	return nil
}

// RecordActivity adds influence impact for observed activity.
func (s *WalletProfileStore) RecordActivity(_ context.Context, wallet string, impact float64) error {
	if wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.touch(wallet)
	p.Influence += impact
	return nil
}

// touch returns the wallet's profile, creating it on first contact.
// Caller must hold mu.
func (s *WalletProfileStore) touch(wallet string) *domain.WalletProfile {
	p, exists := s.data[wallet]
	if !exists {
		p = &domain.WalletProfile{Address: wallet}
		s.data[wallet] = p
	}
	p.LastSeen = s.now()
	s.seen[wallet] = s.seq
	s.seq++
	return p
}

// Profile returns the wallet's profile. Returns ErrNotFound when the
// wallet has never been reinforced.
func (s *WalletProfileStore) Profile(_ context.Context, wallet string) (*domain.WalletProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[wallet]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *p
	copy.ClusterTags = append([]string(nil), p.ClusterTags...)
	return &copy, nil
}

// Decay scales every influence score by factor.
func (s *WalletProfileStore) Decay(_ context.Context, factor float64) error {
	if factor < 0 || factor > 1 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.data {
		p.Influence *= factor
	}
	return nil
}

// Trim removes profiles beyond maxWallets, least recently seen first.
func (s *WalletProfileStore) Trim(_ context.Context, maxWallets int) (int, error) {
	if maxWallets < 0 {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	excess := len(s.data) - maxWallets
	if excess <= 0 {
		return 0, nil
	}

	wallets := make([]string, 0, len(s.data))
	for w := range s.data {
		wallets = append(wallets, w)
	}
	sort.Slice(wallets, func(i, j int) bool {
		return s.seen[wallets[i]] < s.seen[wallets[j]]
	})

	for _, w := range wallets[:excess] {
		delete(s.data, w)
		delete(s.seen, w)
	}
	return excess, nil
}

var _ storage.WalletProfileStore = (*WalletProfileStore)(nil)
