package wire

import (
	"errors"
	"fmt"
)

// Errors returned by message validation and payload decoding.
var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrInvalidPayload = errors.New("invalid payload")
)

// CBOR map keys for envelope encoding.
const (
	KeyMessageID = 1
	KeyChannel   = 2 // Request only; responses carry the status here
	KeyProtocol  = 3
	KeyCommand   = 4
	KeyPayload   = 5
)

// Request is a command from an agent to the platform.
//
// CBOR encoding:
//
//	{
//	  1: messageId,    // uint32, non-zero
//	  2: channel,      // uint32: agent channel
//	  3: protocol,     // uint8: 0x10 base, 0x14 clock
//	  4: command,      // uint8
//	  5: payload       // command-specific data
//	}
type Request struct {
	MessageID uint32   `cbor:"1,keyasint"`
	Channel   uint32   `cbor:"2,keyasint"`
	Protocol  Protocol `cbor:"3,keyasint"`
	Command   uint8    `cbor:"4,keyasint"`
	Payload   any      `cbor:"5,keyasint,omitempty"`
}

// Validate checks if the request is valid.
func (r *Request) Validate() error {
	if r.MessageID == 0 {
		return fmt.Errorf("%w: messageId 0 is reserved", ErrInvalidMessage)
	}
	if r.Protocol != ProtocolBase && r.Protocol != ProtocolClock {
		return fmt.Errorf("%w: unknown protocol %#x", ErrInvalidMessage, uint8(r.Protocol))
	}
	return nil
}

// Response is the platform's answer to a request.
//
// CBOR encoding:
//
//	{
//	  1: messageId,    // uint32: matches request
//	  2: status,       // int32: SCMI status
//	  3: payload       // command-specific data
//	}
type Response struct {
	MessageID uint32 `cbor:"1,keyasint"`
	Status    Status `cbor:"2,keyasint"`
	Payload   any    `cbor:"3,keyasint,omitempty"`
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// ClockIDPayload addresses a single clock. Used by CLOCK_ATTRIBUTES and
// CLOCK_RATE_GET.
type ClockIDPayload struct {
	ClockID uint32 `cbor:"1,keyasint"`
}

// MessageAttributesRequest asks whether a command is implemented.
type MessageAttributesRequest struct {
	Command uint8 `cbor:"1,keyasint"`
}

// VersionResponse answers PROTOCOL_VERSION.
type VersionResponse struct {
	Version uint32 `cbor:"1,keyasint"`
}

// ProtocolAttributes answers PROTOCOL_ATTRIBUTES.
// For the base protocol NumProtocols and NumAgents are set; for the clock
// protocol NumClocks is set.
type ProtocolAttributes struct {
	NumProtocols uint8  `cbor:"1,keyasint,omitempty"`
	NumAgents    uint8  `cbor:"2,keyasint,omitempty"`
	NumClocks    uint16 `cbor:"3,keyasint,omitempty"`
	MaxPending   uint8  `cbor:"4,keyasint,omitempty"`
}

// MessageAttributes answers PROTOCOL_MESSAGE_ATTRIBUTES.
type MessageAttributes struct {
	Attributes uint32 `cbor:"1,keyasint"`
}

// VendorResponse answers the vendor and sub-vendor discovery commands.
type VendorResponse struct {
	Name string `cbor:"1,keyasint"`
}

// ImplVersionResponse answers BASE_DISCOVER_IMPLEMENTATION_VERSION.
type ImplVersionResponse struct {
	Version uint32 `cbor:"1,keyasint"`
}

// ListProtocolsRequest asks for the implemented protocols after Skip entries.
type ListProtocolsRequest struct {
	Skip uint32 `cbor:"1,keyasint"`
}

// ListProtocolsResponse lists implemented protocols, base excluded.
type ListProtocolsResponse struct {
	Protocols []Protocol `cbor:"1,keyasint"`
}

// ClockAttributes answers CLOCK_ATTRIBUTES.
type ClockAttributes struct {
	Enabled bool   `cbor:"1,keyasint"`
	Name    string `cbor:"2,keyasint"`
}

// DescribeRatesRequest asks for the discrete rates of a clock starting at
// RateIndex.
type DescribeRatesRequest struct {
	ClockID   uint32 `cbor:"1,keyasint"`
	RateIndex uint32 `cbor:"2,keyasint"`
}

// DescribeRatesResponse carries one page of rates.
type DescribeRatesResponse struct {
	Rates []uint64 `cbor:"1,keyasint"`
	More  bool     `cbor:"2,keyasint,omitempty"`
}

// RateSetRequest changes a clock rate.
type RateSetRequest struct {
	ClockID uint32 `cbor:"1,keyasint"`
	Rate    uint64 `cbor:"2,keyasint"`
}

// RateGetResponse answers CLOCK_RATE_GET.
type RateGetResponse struct {
	Rate uint64 `cbor:"1,keyasint"`
}

// ConfigSetRequest enables or disables a clock.
type ConfigSetRequest struct {
	ClockID uint32 `cbor:"1,keyasint"`
	Enable  bool   `cbor:"2,keyasint"`
}

// ErrorPayload carries additional error information in a failed response.
type ErrorPayload struct {
	Message string `cbor:"1,keyasint,omitempty"`
}
