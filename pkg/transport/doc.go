// Package transport carries clock protocol messages over TCP.
//
// Each message is one CBOR document preceded by a 4-byte big-endian length:
//
//	┌────────────────────────────────┐
//	│      CBOR Messages             │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// The Server accepts agent connections, assigns each a UUID connection ID
// and hands every frame to the OnMessage callback. Frames and connection
// state changes are recorded through an optional log.Logger.
package transport
