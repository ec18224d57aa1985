package replaybuf

import (
	"context"
	"log"
	"sync"
	"time"
)

// Health is a point-in-time snapshot of the ingestion path.
type Health struct {
	QueueDepth       int     `json:"queue_depth"`
	BufferSize       int     `json:"buffer_size"`
	StalenessSeconds float64 `json:"staleness_seconds"`
	Healthy          bool    `json:"healthy"`
}

// MonitorOptions configures a backlog lag Monitor.
type MonitorOptions struct {
	// LastObserved returns the last observed on-chain timestamp in
	// Unix milliseconds, or zero when no event has been seen yet.
	LastObserved func() int64

	// QueueDepth reports the current ingestion queue depth.
	QueueDepth func() int

	Buffer       *Buffer
	PollInterval time.Duration // default 2s
	WarnLag      time.Duration // default 3s
	Logger       *log.Logger
}

// Monitor polls the last observed on-chain timestamp, computes
// lag = now - last_ts, and reports it. Lag beyond the warn threshold
// emits a warning; this is a liveness signal, not a correctness gate.
type Monitor struct {
	opts MonitorOptions
	now  func() time.Time

	mu      sync.Mutex
	lastLag time.Duration
}

// NewMonitor creates a Monitor with defaults applied.
func NewMonitor(opts MonitorOptions) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.WarnLag <= 0 {
		opts.WarnLag = 3 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Monitor{opts: opts, now: time.Now}
}

// Run polls until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.poll()
		}
	}
}

// poll computes and records the current stream lag.
func (m *Monitor) poll() {
	if m.opts.LastObserved == nil {
		return
	}
	lastTs := m.opts.LastObserved()
	if lastTs <= 0 {
		return
	}

	lag := m.now().Sub(time.UnixMilli(lastTs))
	if lag < 0 {
		lag = 0
	}

	m.mu.Lock()
	m.lastLag = lag
	m.mu.Unlock()

	if lag > m.opts.WarnLag {
		m.opts.Logger.Printf("Stream lagging behind chain by %.2fs", lag.Seconds())
	}
}

// Lag returns the most recently computed stream lag.
func (m *Monitor) Lag() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastLag
}

// Health assembles the health snapshot exposed to collaborators.
func (m *Monitor) Health() Health {
	h := Health{StalenessSeconds: m.Lag().Seconds()}
	if m.opts.QueueDepth != nil {
		h.QueueDepth = m.opts.QueueDepth()
	}
	if m.opts.Buffer != nil {
		h.BufferSize = m.opts.Buffer.Size()
	}
	h.Healthy = m.Lag() <= m.opts.WarnLag
	return h
}
