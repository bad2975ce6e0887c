package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stratalake/eventstream/internal/dispatch"
	"github.com/stratalake/eventstream/internal/event"
	"github.com/stratalake/eventstream/internal/metrics"
	"github.com/stratalake/eventstream/internal/transport"
)

// Client is an explicit stream-client handle. Lifecycle is owned by the
// caller: create with New, start with Connect, stop with Disconnect.
// Multiple independent clients may coexist.
type Client struct {
	cfg     Config
	logger  *slog.Logger
	factory transport.Factory
	hooks   Hooks

	dispatcher *dispatch.Dispatcher
	queue      *outboundQueue
	rec        *metrics.Recorder
	latency    *metrics.LatencyRing
	agg        *metrics.Aggregator

	mu             sync.Mutex
	state          State
	tr             transport.Transport
	gen            int // Connection generation; stale goroutines check it
	attempts       int
	reconnectTimer *time.Timer
	connStop       chan struct{}
	manualClose    bool
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTransport overrides the transport factory. Tests use this to run the
// state machine against a fake transport.
func WithTransport(factory transport.Factory) Option {
	return func(c *Client) { c.factory = factory }
}

// WithHooks registers observer callbacks.
func WithHooks(hooks Hooks) Option {
	return func(c *Client) { c.hooks = hooks }
}

// New creates a Client. The client does not touch the network until Connect.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:   cfg.applyDefaults(),
		state: StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.factory == nil {
		c.factory = transport.WebSocketFactory(c.logger)
	}

	c.queue = newOutboundQueue(c.cfg.MessageQueueSize)
	c.rec = metrics.NewRecorder()
	c.latency = metrics.NewLatencyRing(metrics.DefaultLatencySamples)
	c.agg = metrics.NewAggregator(c.rec, c.latency)
	c.dispatcher = dispatch.New(c.cfg.ReplayLimit, c.logger)
	c.dispatcher.Intercept(event.KindHeartbeatResponse, c.onHeartbeatResponse)

	return c
}

// Connect opens the connection. It is a no-op when already connected or
// connecting; calling it from the Error state resets the attempt counter and
// starts over.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.manualClose = false
	c.attempts = 0
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.mu.Unlock()

	return c.dial(ctx, false)
}

// Disconnect closes the connection deliberately. Pending reconnection and
// heartbeat timers are cancelled before the transport is torn down, so no
// retry fires after shutdown. Idempotent.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	c.manualClose = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	if c.connStop != nil {
		close(c.connStop)
		c.connStop = nil
	}
	tr := c.tr
	c.tr = nil
	c.gen++
	wasConnected := c.state == StateConnected
	c.mu.Unlock()

	if tr != nil {
		tr.Close()
	}
	if wasConnected {
		c.rec.ConnectionLost(time.Now())
	}
	c.setState(StateDisconnected)
	return nil
}

// Send transmits an envelope immediately when connected. While disconnected
// the envelope is queued for the next flush; beyond the queue capacity Send
// fails with ErrQueueFull and earlier entries are untouched.
func (c *Client) Send(env event.Envelope) error {
	c.mu.Lock()
	connected := c.state == StateConnected
	tr := c.tr
	c.mu.Unlock()

	if connected && tr != nil {
		data, err := env.Encode()
		if err != nil {
			c.rec.Error()
			return err
		}
		if err := tr.Send(data); err != nil {
			c.rec.Error()
			return fmt.Errorf("send %s: %w", env.ID, err)
		}
		c.rec.MessageSent(len(data))
		return nil
	}

	if !c.queue.push(env) {
		c.rec.Error()
		return ErrQueueFull
	}
	c.logger.Debug("queued envelope while disconnected",
		"id", env.ID,
		"kind", env.Type,
		"queued", c.queue.len(),
	)
	return nil
}

// Subscribe registers a handler for an event kind and returns the
// subscription id. See dispatch.Options for filtering, priority, one-shot,
// and replay semantics.
func (c *Client) Subscribe(kind event.Kind, handler dispatch.Handler, opts dispatch.Options) string {
	return c.dispatcher.Subscribe(kind, handler, opts)
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (c *Client) Unsubscribe(id string) {
	c.dispatcher.Unsubscribe(id)
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns a copy of the client's counters.
func (c *Client) Stats() metrics.Stats {
	return c.rec.Snapshot()
}

// Metrics recomputes the derived performance view from current counters.
func (c *Client) Metrics() metrics.PerformanceMetrics {
	return c.agg.Snapshot()
}

// DispatchStats returns dispatcher statistics.
func (c *Client) DispatchStats() dispatch.Stats {
	return c.dispatcher.Stats()
}

// Collector returns a prometheus collector over the client's counters.
func (c *Client) Collector() *metrics.Collector {
	return metrics.NewCollector(c.rec, c.latency)
}

// QueueLen returns the number of envelopes waiting to flush.
func (c *Client) QueueLen() int {
	return c.queue.len()
}

// dial runs a single connection attempt. Failed retries reschedule
// themselves; a failed manual attempt lands in the Error state.
func (c *Client) dial(ctx context.Context, retry bool) error {
	c.setState(StateConnecting)

	tr := c.factory(c.cfg.transportConfig())

	openCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	if err := tr.Open(openCtx); err != nil {
		tr.Close()
		c.rec.Error()
		if openCtx.Err() != nil {
			err = fmt.Errorf("%w: %v", ErrConnectTimeout, err)
		}
		c.logger.Warn("connection attempt failed", "url", c.cfg.URL, "error", err)
		if retry {
			c.scheduleReconnect()
		} else {
			c.setState(StateError)
		}
		return err
	}

	c.onConnected(tr)
	return nil
}

// onConnected installs the fresh transport and runs the Connected side
// effects: heartbeat monitor, queue flush, authentication handshake.
func (c *Client) onConnected(tr transport.Transport) {
	c.mu.Lock()
	c.tr = tr
	c.gen++
	gen := c.gen
	c.attempts = 0
	stop := make(chan struct{})
	c.connStop = stop
	c.mu.Unlock()

	c.rec.ConnectionEstablished(time.Now())
	c.setState(StateConnected)
	if c.hooks.OnConnected != nil {
		c.hooks.OnConnected()
	}

	go c.readLoop(tr, gen, stop)
	go c.heartbeatLoop(tr, gen, stop)

	c.flushQueue(tr)
	c.authenticate(context.Background(), tr)
}

// readLoop consumes the transport until it dies or the connection is
// replaced. All inbound dispatch happens on this goroutine, which keeps
// per-kind delivery ordering.
func (c *Client) readLoop(tr transport.Transport, gen int, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case err := <-tr.Errors():
			c.handleConnectionLoss(gen, err)
			return
		case msg, ok := <-tr.Messages():
			if !ok {
				return
			}
			c.handleInbound(msg)
		}
	}
}

// handleInbound parses and dispatches one inbound frame. Malformed frames
// are logged and discarded; dispatch continues.
func (c *Client) handleInbound(msg transport.Message) {
	c.rec.MessageReceived(len(msg.Data))

	env, err := event.Parse(msg.Data)
	if err != nil {
		c.rec.Error()
		c.logger.Warn("discarding malformed envelope", "error", err)
		return
	}

	c.dispatcher.Dispatch(env)
}

// handleConnectionLoss is the single entry point for abnormal loss, fed by
// both transport errors and heartbeat send failures. Losses from a replaced
// connection generation are ignored.
func (c *Client) handleConnectionLoss(gen int, err error) {
	c.mu.Lock()
	if gen != c.gen || c.manualClose {
		c.mu.Unlock()
		return
	}
	c.gen++
	tr := c.tr
	c.tr = nil
	if c.connStop != nil {
		close(c.connStop)
		c.connStop = nil
	}
	c.mu.Unlock()

	if tr != nil {
		tr.Close()
	}
	c.rec.ConnectionLost(time.Now())
	c.rec.Error()

	info := transport.CloseDetails(err)
	c.logger.Warn("connection lost", "code", info.Code, "reason", info.Reason)
	if c.hooks.OnConnectionLost != nil {
		c.hooks.OnConnectionLost(info.Code, info.Reason)
	}

	if info.Normal {
		c.setState(StateDisconnected)
		return
	}
	c.scheduleReconnect()
}

// scheduleReconnect arms the single backoff timer for the next attempt, or
// enters the Error state once attempts are exhausted.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.manualClose || c.reconnectTimer != nil {
		c.mu.Unlock()
		return
	}
	c.attempts++
	attempt := c.attempts
	c.mu.Unlock()

	if attempt > c.cfg.MaxReconnectAttempts {
		c.logger.Error("reconnect attempts exhausted",
			"attempts", c.cfg.MaxReconnectAttempts,
			"error", ErrMaxRetriesExceeded,
		)
		c.setState(StateError)
		if c.hooks.OnMaxAttemptsReached != nil {
			c.hooks.OnMaxAttemptsReached()
		}
		return
	}

	delay := c.cfg.ReconnectInterval * (1 << (attempt - 1))
	c.setState(StateReconnecting)
	c.rec.ReconnectAttempt()
	c.logger.Info("scheduling reconnect", "attempt", attempt, "delay", delay)
	if c.hooks.OnReconnectAttempt != nil {
		c.hooks.OnReconnectAttempt(attempt)
	}

	c.mu.Lock()
	if c.manualClose {
		c.mu.Unlock()
		return
	}
	c.reconnectTimer = time.AfterFunc(delay, c.retry)
	c.mu.Unlock()
}

// retry is the backoff timer callback.
func (c *Client) retry() {
	c.mu.Lock()
	c.reconnectTimer = nil
	manual := c.manualClose
	c.mu.Unlock()
	if manual {
		return
	}

	if err := c.dial(context.Background(), true); err != nil {
		c.logger.Warn("reconnect attempt failed", "error", err)
	}
}

// flushQueue drains the outbound queue in submission order. Individual send
// failures are logged and skipped; losing the connection mid-flush leaves
// the remaining entries queued.
func (c *Client) flushQueue(tr transport.Transport) {
	flushed := 0
	for {
		c.mu.Lock()
		connected := c.state == StateConnected && c.tr == tr
		c.mu.Unlock()
		if !connected {
			break
		}

		env, ok := c.queue.popFront()
		if !ok {
			break
		}

		data, err := env.Encode()
		if err != nil {
			c.rec.Error()
			c.logger.Warn("dropping unencodable queued envelope", "id", env.ID, "error", err)
			continue
		}
		if err := tr.Send(data); err != nil {
			c.rec.Error()
			c.logger.Warn("failed to flush queued envelope", "id", env.ID, "error", err)
			continue
		}
		c.rec.MessageSent(len(data))
		flushed++
	}

	if flushed > 0 {
		c.logger.Info("flushed outbound queue", "count", flushed, "remaining", c.queue.len())
	}
}

// setState swaps the lifecycle state and notifies observers.
func (c *Client) setState(next State) {
	c.mu.Lock()
	old := c.state
	if old == next {
		c.mu.Unlock()
		return
	}
	c.state = next
	c.mu.Unlock()

	c.logger.Info("connection state changed", "from", old.String(), "to", next.String())
	if c.hooks.OnStateChange != nil {
		c.hooks.OnStateChange(old, next)
	}
}
