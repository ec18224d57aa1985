package engine

import (
	"context"
	"log"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/observability"
	"token-snipe-engine/internal/queue"
	"token-snipe-engine/internal/replaybuf"
)

// ContextBuilder assembles a TokenContext from a raw launch event.
// Implementations call out to market data collaborators; the builder
// is the only place external lookups happen during consumption.
type ContextBuilder interface {
	Build(ctx context.Context, event *domain.Event) (*domain.TokenContext, error)
}

// Executor carries out snipe and trade decisions. Implementations own
// transaction construction and submission; the engine never touches
// wallets or signing.
type Executor interface {
	Execute(ctx context.Context, ev *domain.Evaluation, tc *domain.TokenContext) error
}

// Consumer drains the ingestion queue, evaluates each event, and hands
// actionable decisions to the executor.
type Consumer struct {
	queue     *queue.EventQueue
	evaluator *Evaluator
	builder   ContextBuilder
	executor  Executor // optional; nil means decisions are log-only
	monitor   *replaybuf.Monitor
	logger    *log.Logger
}

// ConsumerOptions configures a Consumer.
type ConsumerOptions struct {
	Queue     *queue.EventQueue
	Evaluator *Evaluator
	Builder   ContextBuilder
	Executor  Executor
	Monitor   *replaybuf.Monitor
	Logger    *log.Logger
}

// NewConsumer creates a consumer from opts.
func NewConsumer(opts ConsumerOptions) *Consumer {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Consumer{
		queue:     opts.Queue,
		evaluator: opts.Evaluator,
		builder:   opts.Builder,
		executor:  opts.Executor,
		monitor:   opts.Monitor,
		logger:    opts.Logger,
	}
}

// Run consumes events until ctx is canceled. Per-event failures are
// logged and skipped; only context cancellation stops the loop.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		event, err := c.queue.Dequeue(ctx)
		if err != nil {
			return err
		}
		c.process(ctx, event)
	}
}

func (c *Consumer) process(ctx context.Context, event *domain.Event) {
	observability.UpdateQueueDepth(c.queue.Depth())

	if event.MemoryBlacklisted {
		observability.RecordBlocked("memory_blacklist")
		c.logger.Printf("skipping blacklisted token=%s", event.TokenAddress)
		return
	}

	tc, err := c.builder.Build(ctx, event)
	if err != nil {
		observability.RecordEventDropped("context_build")
		c.logger.Printf("context build failed token=%s: %v", event.TokenAddress, err)
		return
	}
	tc.ScorePenalty += event.ScorePenalty
	if len(tc.Wallets) == 0 {
		tc.Wallets = event.Wallets
	}

	ev, err := c.evaluator.Evaluate(ctx, tc)
	if err != nil {
		c.logger.Printf("evaluation failed token=%s: %v", event.TokenAddress, err)
		return
	}
	c.logger.Printf("evaluated token=%s action=%s score=%.1f risk=%s status=%s",
		ev.TokenAddress, ev.Action, ev.Score, ev.Risk, ev.Status)

	if ev.Blocked() {
		return
	}
	switch ev.Action {
	case domain.ActionSnipe, domain.ActionTrade:
	default:
		return
	}
	if c.executor == nil {
		return
	}
	if err := c.executor.Execute(ctx, ev, tc); err != nil {
		c.logger.Printf("execution failed token=%s action=%s: %v", ev.TokenAddress, ev.Action, err)
	}
}

// Health reports pipeline liveness from the replay buffer monitor. A
// nil monitor is reported as healthy with zero lag.
func (c *Consumer) Health() replaybuf.Health {
	if c.monitor == nil {
		return replaybuf.Health{Healthy: true}
	}
	return c.monitor.Health()
}
