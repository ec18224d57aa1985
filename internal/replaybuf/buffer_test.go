package replaybuf

import (
	"fmt"
	"testing"
	"time"

	"token-snipe-engine/internal/domain"
)

func makeEvent(token string) *domain.Event {
	return &domain.Event{
		Kind:         domain.EventSwap,
		TokenAddress: token,
		Timestamp:    time.Now().UnixMilli(),
	}
}

func TestBuffer_StoreAndGetRecent(t *testing.T) {
	b := New(10, time.Minute)

	b.Store(makeEvent("tokenA"))
	b.Store(makeEvent("tokenB"))

	recent := b.GetRecent(nil)
	if len(recent) != 2 {
		t.Fatalf("GetRecent returned %d entries, want 2", len(recent))
	}
	if recent[0].Event.TokenAddress != "tokenA" {
		t.Errorf("First entry = %s, want tokenA", recent[0].Event.TokenAddress)
	}
}

func TestBuffer_CapacityEvictsOldestFirst(t *testing.T) {
	b := New(1000, time.Hour)

	for i := 0; i < 1001; i++ {
		b.Store(makeEvent(fmt.Sprintf("token-%d", i)))
	}

	if b.Size() != 1000 {
		t.Fatalf("Size = %d, want 1000", b.Size())
	}

	recent := b.GetRecent(nil)
	if recent[0].Event.TokenAddress != "token-1" {
		t.Errorf("Oldest surviving entry = %s, want token-1 (token-0 evicted)",
			recent[0].Event.TokenAddress)
	}
	if last := recent[len(recent)-1].Event.TokenAddress; last != "token-1000" {
		t.Errorf("Newest entry = %s, want token-1000", last)
	}
}

func TestBuffer_WindowFiltersStaleEntries(t *testing.T) {
	b := New(10, 10*time.Minute)

	base := time.Now()
	b.now = func() time.Time { return base.Add(-11 * time.Minute) }
	b.Store(makeEvent("stale"))

	b.now = func() time.Time { return base }
	b.Store(makeEvent("fresh"))

	recent := b.GetRecent(nil)
	if len(recent) != 1 {
		t.Fatalf("GetRecent returned %d entries, want 1", len(recent))
	}
	if recent[0].Event.TokenAddress != "fresh" {
		t.Errorf("Entry = %s, want fresh", recent[0].Event.TokenAddress)
	}

	// The stale entry is filtered, not removed.
	if b.Size() != 2 {
		t.Errorf("Size = %d, want 2 (GetRecent must not mutate)", b.Size())
	}
}

func TestBuffer_GetRecentFilter(t *testing.T) {
	b := New(10, time.Minute)

	swap := makeEvent("tokenA")
	lp := makeEvent("tokenB")
	lp.Kind = domain.EventLPCreate
	b.Store(swap)
	b.Store(lp)

	lpOnly := b.GetRecent(func(e Entry) bool {
		return e.Event.Kind == domain.EventLPCreate
	})
	if len(lpOnly) != 1 || lpOnly[0].Event.TokenAddress != "tokenB" {
		t.Errorf("Filtered GetRecent = %+v, want single lp_create for tokenB", lpOnly)
	}
}

func TestBuffer_MarkSniped(t *testing.T) {
	b := New(10, time.Minute)

	b.Store(makeEvent("tokenA"))
	b.Store(makeEvent("tokenB"))
	b.Store(makeEvent("tokenA"))

	b.MarkSniped("tokenA")

	for _, e := range b.GetRecent(nil) {
		want := e.Event.TokenAddress == "tokenA"
		if e.Sniped != want {
			t.Errorf("Sniped flag for %s = %v, want %v", e.Event.TokenAddress, e.Sniped, want)
		}
	}
}

func TestBuffer_LastEventTimestamp(t *testing.T) {
	b := New(10, time.Minute)

	if ts := b.LastEventTimestamp(); ts != 0 {
		t.Fatalf("empty buffer LastEventTimestamp = %d, want 0", ts)
	}

	first := makeEvent("tokenA")
	first.Timestamp = 1_700_000_000_000
	second := makeEvent("tokenB")
	second.Timestamp = 1_700_000_005_000
	b.Store(first)
	b.Store(second)

	if ts := b.LastEventTimestamp(); ts != second.Timestamp {
		t.Errorf("LastEventTimestamp = %d, want %d", ts, second.Timestamp)
	}
}
