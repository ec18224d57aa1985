// Package replaybuf holds a bounded, time-windowed store of recent raw
// events for missed-opportunity analysis and backlog lag measurement.
package replaybuf

import (
	"sync"
	"time"

	"token-snipe-engine/internal/domain"
)

const (
	// DefaultWindow is the retention window for GetRecent.
	DefaultWindow = 10 * time.Minute

	// DefaultCapacity is the entry cap. Oldest entries are evicted
	// first on overflow (ring-buffer discipline, not LRU).
	DefaultCapacity = 1000
)

// Entry is a timestamped copy of an event, with a flag recording
// whether the token was eventually sniped.
type Entry struct {
	Event    domain.Event
	StoredAt time.Time
	Sniped   bool
}

// Buffer is a fixed-capacity FIFO of recent events. It observes the
// event stream independently of the ingestion queue: dropped queue
// events still land here for lag accounting.
type Buffer struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	window   time.Duration
	now      func() time.Time
}

// New creates a Buffer. Zero capacity or window use the defaults.
func New(capacity int, window time.Duration) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Buffer{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		window:   window,
		now:      time.Now,
	}
}

// Store appends event with a wall-clock timestamp, evicting the oldest
// entries beyond capacity before returning.
func (b *Buffer) Store(event *domain.Event) {
	if event == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, Entry{Event: *event, StoredAt: b.now()})
	if over := len(b.entries) - b.capacity; over > 0 {
		b.entries = b.entries[over:]
	}
}

// GetRecent returns entries newer than the retention window, optionally
// filtered. It never mutates the buffer.
func (b *Buffer) GetRecent(filter func(Entry) bool) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cutoff := b.now().Add(-b.window)
	var recent []Entry
	for _, e := range b.entries {
		if e.StoredAt.Before(cutoff) {
			continue
		}
		if filter != nil && !filter(e) {
			continue
		}
		recent = append(recent, e)
	}
	return recent
}

// MarkSniped flags all buffered entries for token as sniped. Used by
// the feedback router so missed-opportunity analysis can separate
// entries the engine acted on from those it passed over.
func (b *Buffer) MarkSniped(tokenAddress string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.entries {
		if b.entries[i].Event.TokenAddress == tokenAddress {
			b.entries[i].Sniped = true
		}
	}
}

// LastEventTimestamp returns the event timestamp of the newest stored
// entry in Unix milliseconds, zero when the buffer is empty. Feeds the
// backlog monitor's lag computation.
func (b *Buffer) LastEventTimestamp() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.entries) == 0 {
		return 0
	}
	return b.entries[len(b.entries)-1].Event.Timestamp
}

// Size returns the current number of buffered entries.
func (b *Buffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
