// Package connection keeps an agent attached to a clock daemon.
//
// A Session dials the daemon, runs the protocol client for one channel and,
// when the connection drops, redials with exponential backoff until it is
// closed. Requests issued while reconnecting fail with ErrNotConnected; the
// daemon keeps every clock reference the agent took, so nothing has to be
// replayed after a reconnect.
//
// # Backoff
//
// The daemon normally runs on the same host, so delays start short:
//
//	250ms, 500ms, 1s, 2s, 4s, 8s, 10s, 10s, ...
//
// Each delay is extended by up to 25% of random jitter. A successful dial
// resets the sequence.
package connection
