package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/queuepulse/queuepulse/internal/event"
	"github.com/queuepulse/queuepulse/internal/metrics"
)

// MessageHandler receives every successfully parsed event message, after
// cache invalidation has been applied for it.
type MessageHandler func(msg event.Message)

// StateHandler observes connection state transitions. It is invoked
// synchronously while the manager lock is held; it must not call back
// into the manager.
type StateHandler func(state ConnectionState)

// Router applies cache invalidation for an event message and reports which
// prefixes it touched.
type Router interface {
	Route(msg event.Message) []string
}

// Manager owns the connection to the event feed: it dials, watches for
// failures, reconnects with exponential backoff, and routes inbound
// messages through cache invalidation before handing them to the caller.
type Manager struct {
	logger *slog.Logger

	baseURL string
	token   string
	cfg     ClientConfig

	// Reconnection policy
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration

	autoConnect bool

	onMessage MessageHandler
	onState   StateHandler
	router    Router

	// Injected for tests
	dial  Dialer
	sched Scheduler
	randf func() float64

	mu         sync.Mutex
	state      ConnectionState
	room       string
	conn       Transport
	gen        uint64
	attempts   int
	suppress   bool
	dialing    bool
	pendingURL string
	timer      Timer

	// Counters, guarded by mu
	received     uint64
	parseErrors  uint64
	reconnects   uint64
	droppedSends uint64
	connectedAt  time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithToken sets the bearer token sent on the WebSocket handshake.
func WithToken(token string) Option {
	return func(m *Manager) {
		m.token = token
	}
}

// WithMaxReconnectAttempts caps consecutive reconnection attempts.
func WithMaxReconnectAttempts(n int) Option {
	return func(m *Manager) {
		m.maxAttempts = n
	}
}

// WithReconnectDelay sets the base delay for exponential backoff.
func WithReconnectDelay(d time.Duration) Option {
	return func(m *Manager) {
		m.baseDelay = d
	}
}

// WithReconnectMaxDelay sets the backoff ceiling.
func WithReconnectMaxDelay(d time.Duration) Option {
	return func(m *Manager) {
		m.maxDelay = d
	}
}

// WithAutoConnect controls whether NewManager dials immediately. It
// defaults to true; pass false when the caller wants to wire handlers
// or defer the first connection to an explicit Connect call.
func WithAutoConnect(auto bool) Option {
	return func(m *Manager) {
		m.autoConnect = auto
	}
}

// WithClientConfig overrides the per-connection transport settings.
// The URL field is derived from the manager's base URL and room and is
// ignored here.
func WithClientConfig(cfg ClientConfig) Option {
	return func(m *Manager) {
		m.cfg = cfg
	}
}

// WithMessageHandler registers the consumer of parsed event messages.
func WithMessageHandler(h MessageHandler) Option {
	return func(m *Manager) {
		m.onMessage = h
	}
}

// WithStateHandler registers an observer for state transitions.
func WithStateHandler(h StateHandler) Option {
	return func(m *Manager) {
		m.onState = h
	}
}

// WithRouter sets the cache invalidation router.
func WithRouter(r Router) Option {
	return func(m *Manager) {
		m.router = r
	}
}

// WithDialer replaces the transport factory. Used by tests.
func WithDialer(d Dialer) Option {
	return func(m *Manager) {
		m.dial = d
	}
}

// WithScheduler replaces the timer source. Used by tests.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) {
		m.sched = s
	}
}

// WithRand replaces the jitter source. Used by tests.
func WithRand(f func() float64) Option {
	return func(m *Manager) {
		m.randf = f
	}
}

// NewManager creates a manager for the feed at baseURL, scoped to the
// given room. Unless WithAutoConnect(false) is given it starts dialing
// right away.
func NewManager(baseURL, room string, opts ...Option) *Manager {
	m := &Manager{
		logger:      slog.Default(),
		baseURL:     baseURL,
		room:        room,
		cfg:         DefaultClientConfig(),
		maxAttempts: DefaultMaxReconnectAttempts,
		baseDelay:   DefaultReconnectDelay,
		maxDelay:    DefaultReconnectMaxDelay,
		autoConnect: true,
		sched:       realScheduler{},
		randf:       rand.Float64,
		state:       StateDisconnected,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.dial == nil {
		m.dial = func(wsURL string) Transport {
			cfg := m.cfg
			cfg.URL = wsURL
			cfg.Token = m.token
			return NewClient(cfg, m.logger)
		}
	}

	if m.autoConnect {
		m.Connect()
	}

	return m
}

// Connect starts the connection. Any previous intentional disconnect is
// forgotten and the attempt counter starts fresh. While a connection is
// already open this is a no-op.
func (m *Manager) Connect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.suppress = false

	// Already open: leave the live connection alone.
	if m.state == StateConnected && m.conn != nil {
		return
	}

	m.attempts = 0
	m.connectLocked()
}

// Disconnect closes the connection and suppresses reconnection until the
// next Connect call. Safe to call in any state.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.suppress = true
	m.gen++
	m.stopTimerLocked()
	m.dialing = false

	if m.conn != nil {
		m.conn.Close(closeNormal, "client disconnect")
		m.conn = nil
	}

	m.setStateLocked(StateDisconnected)
}

// Send marshals payload as JSON and writes it to the connection. While
// disconnected the payload is dropped; callers need not track connection
// state before sending.
func (m *Manager) Send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	m.mu.Lock()
	conn := m.conn
	connected := m.state == StateConnected
	if !connected || conn == nil {
		m.droppedSends++
	}
	m.mu.Unlock()

	if !connected || conn == nil {
		metrics.StreamDroppedSends.Inc()
		m.logger.Warn("send while disconnected, dropping payload")
		return nil
	}

	if err := conn.Send(data); err != nil {
		m.logger.Warn("failed to send payload", "error", err)
	}
	return nil
}

// SetRoom switches the subscription to a different room. If a connection
// is active or pending, it is replaced by a fresh one to the new room;
// otherwise only the stored room changes.
func (m *Manager) SetRoom(room string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if room == m.room {
		return
	}

	wasActive := m.state != StateDisconnected || m.dialing || m.timer != nil

	m.room = room
	m.attempts = 0

	if wasActive {
		m.connectLocked()
	}
}

// State returns the current connection state.
func (m *Manager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsConnected reports whether the connection is currently open.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// Room returns the current room subscription.
func (m *Manager) Room() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.room
}

// Stats returns a snapshot of the manager's counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{
		State:             m.state,
		Room:              m.room,
		ReconnectAttempts: m.attempts,
		MessagesReceived:  m.received,
		ParseErrors:       m.parseErrors,
		Reconnects:        m.reconnects,
		DroppedSends:      m.droppedSends,
		ConnectedAt:       m.connectedAt,
	}
}

// connectLocked tears down the current connection, if any, and starts a
// dial for the current room. Callers hold mu. A dial already in flight
// for the same URL is left alone; one for a different URL (the room
// changed under it) is superseded.
func (m *Manager) connectLocked() {
	wsURL, err := buildFeedURL(m.baseURL, m.room)
	if err != nil {
		m.logger.Error("invalid feed URL", "url", m.baseURL, "error", err)
		m.setStateLocked(StateDisconnected)
		return
	}

	if m.dialing && m.pendingURL == wsURL {
		return
	}

	m.stopTimerLocked()

	if m.conn != nil {
		m.conn.Close(closeNormal, "replacing connection")
		m.conn = nil
	}

	if m.attempts > 0 {
		m.setStateLocked(StateReconnecting)
	} else {
		m.setStateLocked(StateConnecting)
	}

	m.gen++
	m.dialing = true
	m.pendingURL = wsURL

	go m.runDial(m.gen, wsURL)
}

// runDial performs one connection attempt for generation gen.
func (m *Manager) runDial(gen uint64, wsURL string) {
	t := m.dial(wsURL)

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DialTimeout)
	err := t.Connect(ctx)
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		// A newer connect or disconnect superseded this dial.
		if err == nil {
			t.Close(closeNormal, "superseded")
		}
		return
	}

	m.dialing = false

	if err != nil {
		m.logger.Warn("failed to connect",
			"url", wsURL,
			"attempt", m.attempts,
			"error", err,
		)
		m.setStateLocked(StateDisconnected)
		m.scheduleReconnectLocked()
		return
	}

	m.conn = t
	m.attempts = 0
	m.connectedAt = time.Now()
	m.setStateLocked(StateConnected)
	m.logger.Info("connected to event feed", "url", wsURL, "room", m.room)

	go m.readLoop(t, gen)
}

// readLoop consumes messages and closure from a single transport until it
// dies or is superseded.
func (m *Manager) readLoop(t Transport, gen uint64) {
	for {
		select {
		case msg, ok := <-t.Messages():
			if !ok {
				// Transport shut down; any close event is already buffered.
				select {
				case ev := <-t.Closes():
					m.handleClose(gen, ev)
				default:
				}
				return
			}
			m.handleMessage(gen, msg)
		case ev := <-t.Closes():
			m.handleClose(gen, ev)
			return
		}
	}
}

// handleMessage parses a raw frame, applies cache invalidation, and
// forwards the message. Malformed frames are dropped.
func (m *Manager) handleMessage(gen uint64, raw TimestampedMessage) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.received++
	m.mu.Unlock()

	msg, err := event.Parse(raw.Data)
	if err != nil {
		m.mu.Lock()
		m.parseErrors++
		m.mu.Unlock()
		metrics.StreamParseErrors.Inc()
		m.logger.Warn("dropping malformed frame", "error", err)
		return
	}

	metrics.StreamMessagesReceived.WithLabelValues(string(msg.Type)).Inc()

	// Invalidate before forwarding so handlers re-reading the cache see
	// fresh data.
	if m.router != nil {
		m.router.Route(msg)
	}

	if m.onMessage != nil {
		m.onMessage(msg)
	}
}

// handleClose reacts to a transport-initiated closure.
func (m *Manager) handleClose(gen uint64, ev CloseEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return
	}

	m.logger.Warn("connection closed",
		"code", ev.Code,
		"reason", ev.Reason,
		"error", ev.Err,
	)

	m.conn = nil
	m.setStateLocked(StateDisconnected)

	if m.suppress {
		return
	}

	m.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the reconnect timer for the next attempt,
// or gives up when the attempt cap is reached. Callers hold mu.
func (m *Manager) scheduleReconnectLocked() {
	if m.suppress {
		return
	}

	if m.attempts >= m.maxAttempts {
		m.logger.Error("max reconnection attempts reached, giving up",
			"attempts", m.attempts,
			"max", m.maxAttempts,
		)
		return
	}

	m.stopTimerLocked()

	delay := jitter(backoff(m.baseDelay, m.maxDelay, m.attempts), m.randf())
	gen := m.gen

	m.logger.Info("scheduling reconnect",
		"attempt", m.attempts+1,
		"max", m.maxAttempts,
		"delay", delay,
	)

	m.timer = m.sched.AfterFunc(delay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		m.timer = nil

		if m.suppress || gen != m.gen {
			return
		}

		m.attempts++
		m.reconnects++
		metrics.StreamReconnectAttempts.Inc()
		m.connectLocked()
	})
}

// stopTimerLocked cancels any pending reconnect. Callers hold mu.
func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// setStateLocked records a state transition and notifies the observer.
// Callers hold mu.
func (m *Manager) setStateLocked(s ConnectionState) {
	if s == m.state {
		return
	}
	m.state = s
	metrics.SetConnectionState(string(s))
	if m.onState != nil {
		m.onState(s)
	}
}

// backoff returns the undithered delay for the given attempt number:
// base doubled attempt times, capped at max.
func backoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = DefaultReconnectDelay
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// jitter spreads a delay over [0.8d, 1.2d] so that a fleet of clients
// does not reconnect in lockstep. r must be in [0, 1).
func jitter(d time.Duration, r float64) time.Duration {
	return time.Duration(float64(d) * (0.8 + 0.4*r))
}

// buildFeedURL derives the WebSocket endpoint for a room from the API
// base URL. http(s) schemes map to ws(s).
func buildFeedURL(base, room string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		u.Scheme = "ws"
	}

	u.Path = "/ws"

	q := url.Values{}
	if room != "" {
		q.Set("room", room)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
