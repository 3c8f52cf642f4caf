package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/secclk/clkcore/pkg/log"
)

// ErrConnectionClosed is returned by operations on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// ClientConfig configures Dial.
type ClientConfig struct {
	// MaxMessageSize is the maximum message size (default: 4KB).
	MaxMessageSize uint32

	// ConnectTimeout bounds the dial when ctx has no deadline (default: 10s).
	ConnectTimeout time.Duration

	// Logger records frames (optional).
	Logger log.Logger
}

// Dial connects to a clock protocol server.
func Dial(ctx context.Context, address string, config ClientConfig) (*ClientConn, error) {
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	c := &ClientConn{
		conn:    conn,
		framer:  NewFramer(conn, config.MaxMessageSize),
		closeCh: make(chan struct{}),
		connID:  uuid.New().String(),
	}
	if config.Logger != nil {
		c.framer.SetLogger(config.Logger, c.connID, log.RoleAgent)
	}
	return c, nil
}

// ClientConn is an agent-side connection.
type ClientConn struct {
	conn    net.Conn
	framer  *Framer
	closeCh chan struct{}
	connID  string

	closeOnce sync.Once
	readMu    sync.Mutex
}

// ID returns the connection identifier.
func (c *ClientConn) ID() string { return c.connID }

// LocalAddr returns the local network address.
func (c *ClientConn) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// RemoteAddr returns the server address.
func (c *ClientConn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Send writes one message to the server.
func (c *ClientConn) Send(data []byte) error {
	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}
	return c.framer.WriteFrame(data)
}

// Receive reads one message, waiting at most timeout when it is positive.
func (c *ClientConn) Receive(timeout time.Duration) ([]byte, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	select {
	case <-c.closeCh:
		return nil, ErrConnectionClosed
	default:
	}

	if timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
		defer c.conn.SetReadDeadline(time.Time{})
	}
	return c.framer.ReadFrame()
}

// ReadLoop hands every received message to handler until the connection
// fails or closes. It returns nil on a clean close.
func (c *ClientConn) ReadLoop(handler func([]byte)) error {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	for {
		data, err := c.framer.ReadFrame()
		if err != nil {
			select {
			case <-c.closeCh:
				return nil
			default:
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		handler(data)
	}
}

// Close closes the connection.
func (c *ClientConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}
