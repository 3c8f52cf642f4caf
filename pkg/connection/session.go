package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/secclk/clkcore/pkg/scmi"
	"github.com/secclk/clkcore/pkg/transport"
)

// Session errors.
var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrSessionClosed    = errors.New("session closed")
)

// RedialTimeout bounds each reconnect attempt.
const RedialTimeout = 5 * time.Second

// State is the lifecycle state of a Session.
type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// DialFunc opens a connection to the daemon.
type DialFunc func(ctx context.Context) (*transport.ClientConn, error)

// TCPDialer returns a DialFunc for address.
func TCPDialer(address string, cfg transport.ClientConfig) DialFunc {
	return func(ctx context.Context) (*transport.ClientConn, error) {
		return transport.Dial(ctx, address, cfg)
	}
}

// SessionConfig configures a Session.
type SessionConfig struct {
	// Channel is the agent channel requests are sent on.
	Channel uint32

	// Timeout is the per-request timeout. Zero keeps the client default.
	Timeout time.Duration

	Backoff BackoffConfig

	// OnStateChange is called outside the session lock on every
	// transition.
	OnStateChange func(from, to State)
}

// Session is an agent attachment to a clock daemon that survives
// connection loss.
type Session struct {
	dial    DialFunc
	config  SessionConfig
	backoff *Backoff

	mu     sync.RWMutex
	state  State
	conn   *transport.ClientConn
	client *scmi.Client
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession creates a disconnected session.
func NewSession(dial DialFunc, config SessionConfig) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		dial:    dial,
		config:  config,
		backoff: NewBackoff(config.Backoff),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetLogger sets the logger for reconnect diagnostics.
func (s *Session) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

func (s *Session) debugLog(msg string, args ...any) {
	s.mu.RLock()
	logger := s.logger
	s.mu.RUnlock()
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Attempts returns the reconnect attempts since the last successful dial.
func (s *Session) Attempts() int {
	return s.backoff.Attempts()
}

// Connect dials the daemon once and starts watching the connection. A
// failed first dial is returned to the caller without retrying.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrSessionClosed
	case StateDisconnected:
	default:
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.state = StateConnecting
	s.mu.Unlock()
	s.notify(StateDisconnected, StateConnecting)

	conn, err := s.dial(ctx)
	if err != nil {
		if s.transition(StateDisconnected) {
			return err
		}
		return ErrSessionClosed
	}

	client := s.attach(conn)
	if client == nil {
		return ErrSessionClosed
	}
	s.wg.Add(1)
	go s.watch(conn, client)
	return nil
}

// Client returns the protocol client of the live connection.
func (s *Session) Client() (*scmi.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == StateClosed {
		return nil, ErrSessionClosed
	}
	if s.client == nil {
		return nil, ErrNotConnected
	}
	return s.client, nil
}

// Close drops the connection and stops reconnecting.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	old := s.state
	s.state = StateClosed
	conn, client := s.conn, s.client
	s.conn, s.client = nil, nil
	s.mu.Unlock()

	s.cancel()
	if client != nil {
		client.Close()
	}
	var err error
	if conn != nil {
		err = conn.Close()
	}
	s.wg.Wait()
	s.notify(old, StateClosed)
	return err
}

// attach installs conn as the live connection. It returns nil when the
// session was closed meanwhile.
func (s *Session) attach(conn *transport.ClientConn) *scmi.Client {
	client := scmi.NewClient(conn, s.config.Channel)
	if s.config.Timeout > 0 {
		client.SetTimeout(s.config.Timeout)
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		client.Close()
		conn.Close()
		return nil
	}
	old := s.state
	s.state = StateConnected
	s.conn, s.client = conn, client
	s.mu.Unlock()

	s.backoff.Reset()
	s.notify(old, StateConnected)
	return client
}

// transition moves to state unless the session is closed.
func (s *Session) transition(state State) bool {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return false
	}
	old := s.state
	s.state = state
	if state != StateConnected {
		s.conn, s.client = nil, nil
	}
	s.mu.Unlock()
	s.notify(old, state)
	return true
}

func (s *Session) notify(from, to State) {
	if from != to && s.config.OnStateChange != nil {
		s.config.OnStateChange(from, to)
	}
}

// watch serves responses for the live connection and redials when it
// drops.
func (s *Session) watch(conn *transport.ClientConn, client *scmi.Client) {
	defer s.wg.Done()

	for {
		err := conn.ReadLoop(func(data []byte) {
			if err := client.HandleMessage(data); err != nil {
				s.debugLog("dropping response", "error", err)
			}
		})
		client.Close()
		conn.Close()

		if s.ctx.Err() != nil || !s.transition(StateReconnecting) {
			return
		}
		s.debugLog("connection lost", "remote", conn.RemoteAddr(), "error", err)

		conn, client = s.redial()
		if conn == nil {
			return
		}
	}
}

func (s *Session) redial() (*transport.ClientConn, *scmi.Client) {
	for {
		delay := s.backoff.Next()
		timer := time.NewTimer(delay)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return nil, nil
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(s.ctx, RedialTimeout)
		conn, err := s.dial(ctx)
		cancel()
		if err != nil {
			s.debugLog("redial failed", "attempt", s.backoff.Attempts(), "error", err)
			continue
		}

		client := s.attach(conn)
		if client == nil {
			return nil, nil
		}
		return conn, client
	}
}
