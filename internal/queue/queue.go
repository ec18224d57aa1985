// Package queue provides the bounded ingestion channel between stream
// listeners and the scoring pipeline.
package queue

import (
	"context"
	"log"
	"sync/atomic"

	"token-snipe-engine/internal/domain"
)

// DefaultCapacity is the queue bound. Stale trading signals are
// worthless, so the queue favors dropping over blocking.
const DefaultCapacity = 5000

// EventQueue is a bounded producer/consumer channel with drop-on-full
// backpressure. Enqueue never blocks; Dequeue suspends until an event
// is available or the context is cancelled.
type EventQueue struct {
	ch       chan *domain.Event
	enqueued atomic.Int64
	dropped  atomic.Int64
	logger   *log.Logger
}

// New creates an EventQueue. A capacity of zero uses DefaultCapacity.
func New(capacity int, logger *log.Logger) *EventQueue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = log.Default()
	}
	return &EventQueue{
		ch:     make(chan *domain.Event, capacity),
		logger: logger,
	}
}

// Enqueue attempts to append event. If the queue is full the event is
// dropped, a warning is recorded, and false is returned. No blocking,
// no retry; dropped events are excluded from all downstream processing
// and surface only through the replay buffer's lag metrics.
func (q *EventQueue) Enqueue(event *domain.Event) bool {
	select {
	case q.ch <- event:
		q.enqueued.Add(1)
		return true
	default:
		q.dropped.Add(1)
		q.logger.Printf("Queue full, dropping %s event for %s (dropped=%d)",
			event.Kind, event.TokenAddress, q.dropped.Load())
		return false
	}
}

// Dequeue suspends the caller until an event is available. It returns
// (nil, ctx.Err()) when the context is cancelled; there is no error
// condition for an empty queue.
func (q *EventQueue) Dequeue(ctx context.Context) (*domain.Event, error) {
	select {
	case event := <-q.ch:
		return event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Depth returns the number of events currently buffered.
func (q *EventQueue) Depth() int {
	return len(q.ch)
}

// Dropped returns the total number of events dropped on a full queue.
func (q *EventQueue) Dropped() int64 {
	return q.dropped.Load()
}

// Enqueued returns the total number of events admitted.
func (q *EventQueue) Enqueued() int64 {
	return q.enqueued.Load()
}
