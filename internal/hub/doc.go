// Package hub implements real-time fan-out to live observer
// connections: dashboard channels (unkeyed) and per-device channels
// (keyed by device id).
//
// The hub owns only send handles. The underlying connections belong to
// the transport layer; a handle whose Send fails is dropped from every
// subscription set and never retried. Observers reconnect and receive
// a fresh full-state catch-up.
//
// Sinks must enqueue rather than block: Send is called in hot paths
// and a full buffer is reported as an error, which drops the sink.
package hub
