// Package solana is the thin collaborator surface toward the chain:
// a WebSocket log subscription client and address helpers. No trading
// or signing logic lives here.
package solana

import "context"

// WSClient is the log subscription interface consumed by ingestion.
type WSClient interface {
	// SubscribeLogs subscribes to program logs matching the filter.
	SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error)

	// Close closes the connection and all subscription channels.
	Close() error
}

// LogsFilter selects which transactions' logs to receive.
type LogsFilter struct {
	// Mentions filters logs that mention any of these program IDs.
	// Empty subscribes to all logs.
	Mentions []string
}

// LogNotification is one logs subscription message.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       any // non-nil when the transaction failed
}
