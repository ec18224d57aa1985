package gate

import (
	"strings"
	"sync"
)

// Blacklist is a mutex-guarded set of token addresses the engine must
// never act on. Rugged tokens are added automatically by the feedback
// loop; manual seeds can be loaded at startup.
type Blacklist struct {
	mu     sync.RWMutex
	tokens map[string]struct{}
}

// NewBlacklist creates an empty blacklist.
func NewBlacklist() *Blacklist {
	return &Blacklist{tokens: make(map[string]struct{})}
}

// NewBlacklistFrom creates a blacklist seeded with the given addresses.
func NewBlacklistFrom(addresses []string) *Blacklist {
	b := NewBlacklist()
	for _, addr := range addresses {
		b.Add(addr)
	}
	return b
}

// Add inserts a token address. Addresses are compared case-insensitively.
func (b *Blacklist) Add(address string) {
	key := strings.ToLower(address)
	if key == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[key] = struct{}{}
}

// Remove deletes a token address.
func (b *Blacklist) Remove(address string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, strings.ToLower(address))
}

// Contains reports whether a token address is blacklisted.
func (b *Blacklist) Contains(address string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, exists := b.tokens[strings.ToLower(address)]
	return exists
}

// Size returns the number of blacklisted addresses.
func (b *Blacklist) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tokens)
}

// Snapshot returns a copy of every blacklisted address.
func (b *Blacklist) Snapshot() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, 0, len(b.tokens))
	for addr := range b.tokens {
		out = append(out, addr)
	}
	return out
}
