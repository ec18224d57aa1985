// Package ingestion turns raw chain log notifications into validated
// events on the bounded evaluation queue.
package ingestion

import (
	"context"
	"fmt"
	"log"
	"time"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/gate"
	"token-snipe-engine/internal/observability"
	"token-snipe-engine/internal/queue"
	"token-snipe-engine/internal/replaybuf"
	"token-snipe-engine/internal/solana"
	"token-snipe-engine/internal/storage"
)

// maxMemoryPenalty caps how much a token's bad reputation can
// pre-penalize its next evaluation.
const maxMemoryPenalty = 10

// Listener subscribes to program logs and feeds validated events into
// the queue and the replay buffer. One listener per subscription.
type Listener struct {
	client    solana.WSClient
	programs  []string
	parse     ParseFunc
	queue     *queue.EventQueue
	buffer    *replaybuf.Buffer
	cooldown  *Cooldown
	blacklist *gate.Blacklist          // optional memory hint source
	tokens    storage.TokenRecordStore // optional memory hint source

	logger *log.Logger
	now    func() int64
}

// ListenerOptions configures a Listener.
type ListenerOptions struct {
	Client   solana.WSClient
	Programs []string // program IDs to watch; empty watches all logs
	Parse    ParseFunc
	Queue    *queue.EventQueue
	Buffer   *replaybuf.Buffer
	Cooldown time.Duration

	Blacklist *gate.Blacklist
	Tokens    storage.TokenRecordStore

	Logger *log.Logger
	Now    func() int64 // Unix milliseconds; defaults to wall clock
}

// NewListener creates a listener from opts.
func NewListener(opts ListenerOptions) *Listener {
	if opts.Parse == nil {
		opts.Parse = ParseLaunchLogs
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = func() int64 { return time.Now().UnixMilli() }
	}
	return &Listener{
		client:    opts.Client,
		programs:  opts.Programs,
		parse:     opts.Parse,
		queue:     opts.Queue,
		buffer:    opts.Buffer,
		cooldown:  NewCooldown(opts.Cooldown),
		blacklist: opts.Blacklist,
		tokens:    opts.Tokens,
		logger:    opts.Logger,
		now:       opts.Now,
	}
}

// Run subscribes and processes notifications until ctx is canceled or
// the subscription channel closes.
func (l *Listener) Run(ctx context.Context) error {
	ch, err := l.client.SubscribeLogs(ctx, solana.LogsFilter{Mentions: l.programs})
	if err != nil {
		return fmt.Errorf("subscribe logs: %w", err)
	}
	l.logger.Printf("listening for logs, programs=%v", l.programs)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notif, ok := <-ch:
			if !ok {
				return nil
			}
			l.handle(ctx, notif)
		}
	}
}

func (l *Listener) handle(ctx context.Context, notif solana.LogNotification) {
	observability.RecordEventReceived()

	if notif.Err != nil {
		observability.RecordEventDropped("tx_failed")
		return
	}

	event, err := l.parse(notif)
	if err != nil {
		observability.RecordEventDropped("parse")
		l.logger.Printf("parse failed sig=%s: %v", notif.Signature, err)
		return
	}
	if event == nil {
		return
	}
	if event.Timestamp <= 0 {
		event.Timestamp = l.now()
	}
	if err := event.Validate(); err != nil {
		observability.RecordEventDropped("invalid")
		l.logger.Printf("invalid event sig=%s: %v", notif.Signature, err)
		return
	}
	if !solana.ValidAddress(event.TokenAddress) {
		observability.RecordEventDropped("bad_address")
		return
	}

	// Archive before dedup so the replay buffer sees the full stream.
	if l.buffer != nil {
		l.buffer.Store(event)
		observability.UpdateReplayBufferSize(l.buffer.Size())
	}

	if !l.cooldown.Allow(event.TokenAddress) {
		observability.RecordEventDuplicated()
		return
	}

	l.annotate(ctx, event)

	if l.queue.Enqueue(event) {
		observability.RecordEventAccepted()
	} else {
		observability.RecordEventDropped("queue_full")
	}
	observability.UpdateQueueDepth(l.queue.Depth())
}

// annotate attaches memory hints so the consumer can short-circuit
// known-bad tokens without a store round trip.
func (l *Listener) annotate(ctx context.Context, event *domain.Event) {
	if l.blacklist != nil && l.blacklist.Contains(event.TokenAddress) {
		event.MemoryBlacklisted = true
	}
	if l.tokens == nil {
		return
	}
	rep, err := l.tokens.Reputation(ctx, event.TokenAddress)
	if err != nil {
		l.logger.Printf("reputation hint failed token=%s: %v", event.TokenAddress, err)
		return
	}
	if rep < 0 {
		if rep < -maxMemoryPenalty {
			rep = -maxMemoryPenalty
		}
		event.ScorePenalty = rep
	}
}
