package log

import (
	"time"

	"github.com/secclk/clkcore/pkg/wire"
)

// Event represents a captured event at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the transport connection (UUID).
	// Empty for clock-layer events raised outside a request.
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether this side is the platform or an agent.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// Channel is the management channel the event belongs to, if any.
	Channel *uint32 `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Connection state
	Clock       *ClockEvent       `cbor:"13,keyasint,omitempty"` // Clock tree operation
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the message encoding layer (decoded CBOR).
	LayerWire Layer = 1
	// LayerClock is the clock tree engine.
	LayerClock Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerClock:
		return "CLOCK"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol message (request/response).
	CategoryMessage Category = 0
	// CategoryState indicates a connection or clock state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role indicates which end of the management channel logged the event.
type Role uint8

const (
	// RolePlatform is the side owning the clock tree.
	RolePlatform Role = 0
	// RoleAgent is the side issuing clock requests.
	RoleAgent Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RolePlatform:
		return "PLATFORM"
	case RoleAgent:
		return "AGENT"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded clock-protocol message at the wire layer.
type MessageEvent struct {
	// Type distinguishes request and response.
	Type MessageType `cbor:"1,keyasint"`

	// MessageID correlates request/response pairs.
	MessageID uint32 `cbor:"2,keyasint"`

	// Protocol is the protocol identifier (requests only).
	Protocol *wire.Protocol `cbor:"3,keyasint,omitempty"`

	// Command is the message identifier within the protocol (requests only).
	Command *uint8 `cbor:"4,keyasint,omitempty"`

	// Status is the response status code (responses only).
	Status *wire.Status `cbor:"6,keyasint,omitempty"`

	// Payload is the decoded payload (CBOR-compatible representation).
	Payload any `cbor:"8,keyasint,omitempty"`

	// ProcessingTime is the duration from request receipt to response send
	// (responses only). Stored as nanoseconds.
	ProcessingTime *time.Duration `cbor:"9,keyasint,omitempty"`
}

// MessageType distinguishes request and response.
type MessageType uint8

const (
	// MessageTypeRequest indicates a request message.
	MessageTypeRequest MessageType = 0
	// MessageTypeResponse indicates a response message.
	MessageTypeResponse MessageType = 1
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures connection lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntityServer indicates a server lifecycle change.
	StateEntityServer StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityServer:
		return "SERVER"
	default:
		return "UNKNOWN"
	}
}

// ClockEvent captures an operation on a clock node.
type ClockEvent struct {
	// Op is the tree operation performed.
	Op ClockOp `cbor:"1,keyasint"`

	// Node is the node name.
	Node string `cbor:"2,keyasint"`

	// Rate is the cached rate after the operation, in Hz.
	Rate uint64 `cbor:"3,keyasint,omitempty"`

	// Parent is the active parent after the operation.
	Parent string `cbor:"4,keyasint,omitempty"`

	// Count is the enable count after the operation.
	Count int `cbor:"5,keyasint,omitempty"`

	// Requested is the requested rate (SetRate) or parent index (SetParent).
	Requested uint64 `cbor:"6,keyasint,omitempty"`

	// Err is the failure text, empty on success.
	Err string `cbor:"7,keyasint,omitempty"`
}

// ClockOp identifies a clock tree operation.
type ClockOp uint8

const (
	// ClockOpRegister indicates a node registration.
	ClockOpRegister ClockOp = 0
	// ClockOpEnable indicates a 0->1 enable transition.
	ClockOpEnable ClockOp = 1
	// ClockOpDisable indicates a 1->0 disable transition.
	ClockOpDisable ClockOp = 2
	// ClockOpSetRate indicates a rate change.
	ClockOpSetRate ClockOp = 3
	// ClockOpSetParent indicates a parent switch.
	ClockOpSetParent ClockOp = 4
)

// String returns the operation name.
func (o ClockOp) String() string {
	switch o {
	case ClockOpRegister:
		return "REGISTER"
	case ClockOpEnable:
		return "ENABLE"
	case ClockOpDisable:
		return "DISABLE"
	case ClockOpSetRate:
		return "SET_RATE"
	case ClockOpSetParent:
		return "SET_PARENT"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
