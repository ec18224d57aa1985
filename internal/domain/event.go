package domain

import "fmt"

// EventKind identifies the type of an observed on-chain or social event.
type EventKind string

const (
	EventLPCreate      EventKind = "lp_create"
	EventSwap          EventKind = "swap"
	EventMint          EventKind = "mint"
	EventSocialMention EventKind = "social_mention"
)

// ValidKind reports whether k is one of the known event kinds.
func ValidKind(k EventKind) bool {
	switch k {
	case EventLPCreate, EventSwap, EventMint, EventSocialMention:
		return true
	}
	return false
}

// Event is one observed occurrence produced by a stream listener.
// Events are ephemeral: created by listeners, consumed once by the
// pipeline, optionally archived into the replay buffer.
type Event struct {
	Kind         EventKind
	TokenAddress string
	Wallets      []string
	Payload      map[string]any
	Timestamp    int64 // Unix timestamp in milliseconds

	// Derived flags set during ingestion
	MemoryBlacklisted bool
	ScorePenalty      float64
}

// Validate checks structural validity at the ingestion boundary.
// Deep payload inspection is deliberately left to the scoring stages;
// malformed payload fields degrade to neutral contributions there.
func (e *Event) Validate() error {
	if e == nil {
		return fmt.Errorf("nil event")
	}
	if !ValidKind(e.Kind) {
		return fmt.Errorf("unknown event kind: %q", e.Kind)
	}
	if e.TokenAddress == "" {
		return fmt.Errorf("missing token address")
	}
	if e.Timestamp <= 0 {
		return fmt.Errorf("missing timestamp")
	}
	return nil
}
