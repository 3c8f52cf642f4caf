// Package wire defines the CBOR wire format of the clock management channel.
//
// The channel carries SCMI-style messages: every request names a channel,
// a protocol (base 0x10 or clock 0x14) and a command within that protocol.
// Messages are CBOR (RFC 8949) maps with integer keys and travel
// length-prefixed over the transport.
//
// # Message Types
//
//   - Request: agent to platform
//   - Response: platform to agent, carrying an SCMI status code
//
// Payloads are command specific structs defined in this package. After a
// CBOR round trip a payload arrives as a generic map; DecodePayload converts
// it back into the typed struct.
package wire
