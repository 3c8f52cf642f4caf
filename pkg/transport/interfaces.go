package transport

import (
	"context"
	"net"
)

// Conn is an established framed connection.
// Implemented by ServerConn and ClientConn.
type Conn interface {
	// ID returns the connection identifier used in log events.
	ID() string

	// RemoteAddr returns the peer address.
	RemoteAddr() net.Addr

	// Send writes one message.
	Send(data []byte) error

	// Close closes the connection.
	Close() error
}

// Listener accepts agent connections.
// Implemented by Server.
type Listener interface {
	Start(ctx context.Context) error
	Stop() error
	Addr() net.Addr
	ConnectionCount() int
}

// FrameReadWriter provides length-prefixed frame I/O.
// Implemented by Framer.
type FrameReadWriter interface {
	ReadFrame() ([]byte, error)
	WriteFrame(data []byte) error
}

// Compile-time interface satisfaction checks.
var (
	_ Conn            = (*ServerConn)(nil)
	_ Conn            = (*ClientConn)(nil)
	_ Listener        = (*Server)(nil)
	_ FrameReadWriter = (*Framer)(nil)
)
