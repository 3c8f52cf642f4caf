// Package scmi exposes clocks of a clk.Tree to agents through the clock
// management protocol.
//
// An Adaptor binds tree nodes to (channel, id) pairs and implements the
// per-clock operations: name, rate get/set, enable state and rate
// enumeration. A Server answers wire.Request messages for the base and
// clock protocols on top of an Adaptor, and a Client issues those requests
// over a connection.
//
// Engine errors are converted to protocol status codes by StatusOf.
package scmi
