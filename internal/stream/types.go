package stream

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no pong)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// ConnectionState is the manager's lifecycle state. Exactly one state is
// active at a time; transitions happen only inside the Manager.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)

// WebSocket close codes used by the manager (RFC 6455).
const (
	closeNormal   = 1000
	closeAbnormal = 1006
)

// TimestampedMessage wraps raw frame data with a receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw frame bytes from the socket
	ReceivedAt time.Time // Local timestamp when the read returned
}

// CloseEvent describes a connection closure. Err is nil for a clean
// server-initiated close and non-nil for transport failures.
type CloseEvent struct {
	Code   int
	Reason string
	Err    error
}

// Transport is the capability set the Manager needs from a socket. A fake
// Transport makes the state machine testable without a real connection.
type Transport interface {
	// Connect establishes the connection. Blocking; the Manager calls it
	// from a dial goroutine.
	Connect(ctx context.Context) error

	// Close shuts the connection down with the given close code. No
	// CloseEvent is emitted for a caller-initiated close.
	Close(code int, reason string) error

	// Send writes a single text frame. Valid only while open.
	Send(data []byte) error

	// Messages returns the inbound frame channel.
	Messages() <-chan TimestampedMessage

	// Closes returns a channel that delivers at most one CloseEvent, when
	// the connection dies for any reason other than Close.
	Closes() <-chan CloseEvent
}

// Dialer builds a Transport for a fully-formed feed URL.
type Dialer func(wsURL string) Transport

// Timer is a cancellable single-shot timer handle.
type Timer interface {
	// Stop cancels the timer. Returns false if it already fired.
	Stop() bool
}

// Scheduler schedules single-shot timers. Tests substitute a virtual
// clock so backoff behavior is deterministic.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// realScheduler delegates to the runtime timer.
type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Reconnection defaults.
const (
	DefaultMaxReconnectAttempts = 10
	DefaultReconnectDelay       = 1 * time.Second
	DefaultReconnectMaxDelay    = 30 * time.Second
)

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // Feed URL (e.g., wss://queue.internal/ws?room=global)
	Token        string        // Bearer token, empty for no auth
	DialTimeout  time.Duration // Handshake timeout
	PingInterval time.Duration // Keepalive ping cadence
	PongTimeout  time.Duration // Max silence before the connection is stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		DialTimeout:  10 * time.Second,
		PingInterval: 15 * time.Second,
		PongTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   256,
	}
}

// Stats is a snapshot of manager counters for the ops endpoint.
type Stats struct {
	State             ConnectionState `json:"state"`
	Room              string          `json:"room"`
	ReconnectAttempts int             `json:"reconnect_attempts"`
	MessagesReceived  uint64          `json:"messages_received"`
	ParseErrors       uint64          `json:"parse_errors"`
	DroppedSends      uint64          `json:"dropped_sends"`
	Reconnects        uint64          `json:"reconnects"`
	ConnectedAt       time.Time       `json:"connected_at,omitzero"`
}
