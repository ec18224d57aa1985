package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig tunes connection keepalive and reconnect behavior.
type WSConfig struct {
	ReconnectDelay    time.Duration // initial backoff after a read failure
	MaxReconnectDelay time.Duration
	PingInterval      time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	SubscribeTimeout  time.Duration
	Logger            *log.Logger
}

// DefaultWSConfig returns the default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  30 * time.Second,
	}
}

type wsSub struct {
	filter LogsFilter
	ch     chan LogNotification
}

// WS is a gorilla/websocket implementation of WSClient with automatic
// reconnect and resubscribe. Notification channels are buffered; the
// dispatcher blocks rather than drops, so slow consumers apply
// backpressure up to the socket.
type WS struct {
	endpoint string
	config   WSConfig
	logger   *log.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	reqID  atomic.Uint64
	closed atomic.Bool

	subMu   sync.Mutex
	subs    map[int64]*wsSub     // subscription ID -> subscriber
	pending map[uint64]chan int64 // request ID -> confirmation wait

	reconnecting atomic.Bool
	done         chan struct{}
	wg           sync.WaitGroup
}

// DialWS connects to a Solana WebSocket endpoint and starts the read
// and keepalive loops.
func DialWS(ctx context.Context, endpoint string, config *WSConfig) (*WS, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	c := &WS{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		subs:     make(map[int64]*wsSub),
		pending:  make(map[uint64]chan int64),
		done:     make(chan struct{}),
	}
	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()
	return c, nil
}

func (c *WS) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", c.endpoint, err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// SubscribeLogs issues a logsSubscribe and returns the notification
// channel once the server confirms the subscription.
func (c *WS) SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error) {
	subID, err := c.sendSubscribe(ctx, filter)
	if err != nil {
		return nil, err
	}

	sub := &wsSub{filter: filter, ch: make(chan LogNotification, 4096)}
	c.subMu.Lock()
	c.subs[subID] = sub
	c.subMu.Unlock()
	return sub.ch, nil
}

func (c *WS) sendSubscribe(ctx context.Context, filter LogsFilter) (int64, error) {
	if c.closed.Load() {
		return 0, fmt.Errorf("client closed")
	}
	reqID := c.reqID.Add(1)

	selector := map[string]any{"all": nil}
	if len(filter.Mentions) > 0 {
		selector = map[string]any{"mentions": filter.Mentions}
	}
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "logsSubscribe",
		Params:  []any{selector, map[string]string{"commitment": "confirmed"}},
	}

	confirm := make(chan int64, 1)
	c.subMu.Lock()
	c.pending[reqID] = confirm
	c.subMu.Unlock()
	dropPending := func() {
		c.subMu.Lock()
		delete(c.pending, reqID)
		c.subMu.Unlock()
	}

	if err := c.writeJSON(req); err != nil {
		dropPending()
		return 0, fmt.Errorf("write subscribe: %w", err)
	}

	select {
	case subID := <-confirm:
		return subID, nil
	case <-time.After(c.config.SubscribeTimeout):
		dropPending()
		return 0, fmt.Errorf("subscribe timeout after %s", c.config.SubscribeTimeout)
	case <-c.done:
		return 0, fmt.Errorf("client closed")
	case <-ctx.Done():
		dropPending()
		return 0, ctx.Err()
	}
}

func (c *WS) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteJSON(v)
}

// Close shuts the connection down and closes every subscription
// channel. Safe to call more than once.
func (c *WS) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)

	c.mu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.mu.Unlock()

	c.subMu.Lock()
	for id, sub := range c.subs {
		close(sub.ch)
		delete(c.subs, id)
	}
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.subMu.Unlock()

	c.wg.Wait()
	return nil
}

func (c *WS) readLoop() {
	defer c.wg.Done()

	for !c.closed.Load() {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			if !c.reconnecting.Swap(true) {
				go c.reconnect()
			}
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		c.handleMessage(message)
	}
}

// reconnect tears down the dead connection and redials with
// exponential backoff until a dial succeeds or the client is closed.
// A failed attempt schedules the next one; it must not end the
// stream.
func (c *WS) reconnect() {
	defer c.reconnecting.Store(false)

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	delay := c.config.ReconnectDelay
	for {
		select {
		case <-c.done:
			return
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := c.connect(ctx)
		cancel()
		if err == nil {
			break
		}
		c.logger.Printf("reconnect failed, next attempt in %s: %v", delay, err)
		delay *= 2
		if delay > c.config.MaxReconnectDelay {
			delay = c.config.MaxReconnectDelay
		}
	}

	c.logger.Printf("reconnected to %s, resubscribing", c.endpoint)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c.resubscribeAll(ctx)
}

// resubscribeAll re-issues every active subscription on the fresh
// connection, moving the existing channel under the new subscription
// ID so consumers never see an interruption.
func (c *WS) resubscribeAll(ctx context.Context) {
	c.subMu.Lock()
	active := make(map[int64]*wsSub, len(c.subs))
	for id, sub := range c.subs {
		active[id] = sub
	}
	c.subMu.Unlock()

	for oldID, sub := range active {
		newID, err := c.sendSubscribe(ctx, sub.filter)
		if err != nil {
			c.logger.Printf("resubscribe failed: %v", err)
			continue
		}
		c.subMu.Lock()
		delete(c.subs, oldID)
		c.subs[newID] = sub
		c.subMu.Unlock()
	}
}

func (c *WS) handleMessage(message []byte) {
	var resp wsSubscribeResponse
	if err := json.Unmarshal(message, &resp); err == nil && resp.Result > 0 {
		c.subMu.Lock()
		confirm, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.subMu.Unlock()
		if ok {
			select {
			case confirm <- resp.Result:
			default:
			}
		}
		return
	}

	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err == nil && notif.Method == "logsNotification" && notif.Params != nil {
		c.dispatch(&notif)
		return
	}

	var errResp struct {
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(message, &errResp); err == nil && errResp.Error != nil {
		c.logger.Printf("ws error response: code=%d msg=%s", errResp.Error.Code, errResp.Error.Message)
	}
}

func (c *WS) dispatch(notif *wsNotification) {
	value := notif.Params.Result.Value
	out := LogNotification{
		Signature: value.Signature,
		Logs:      value.Logs,
		Err:       value.Err,
	}
	if notif.Params.Result.Context != nil {
		out.Slot = notif.Params.Result.Context.Slot
	}

	c.subMu.Lock()
	sub, ok := c.subs[notif.Params.Subscription]
	c.subMu.Unlock()
	if !ok {
		return
	}
	select {
	case sub.ch <- out:
	case <-c.done:
	}
}

func (c *WS) pingLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// Failed pings surface as read errors, which drive
				// the reconnect path.
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.mu.Unlock()
		}
	}
}

type wsRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result"` // subscription ID
}

type wsNotification struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  *wsParams `json:"params"`
}

type wsParams struct {
	Subscription int64    `json:"subscription"`
	Result       wsResult `json:"result"`
}

type wsResult struct {
	Context *wsContext  `json:"context"`
	Value   wsLogsValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsLogsValue struct {
	Signature string   `json:"signature"`
	Logs      []string `json:"logs"`
	Err       any      `json:"err"`
}

var _ WSClient = (*WS)(nil)
