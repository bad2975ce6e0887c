// Package client implements the stream client's connection manager.
//
// The Client owns the single logical connection and drives its state
// machine: Disconnected → Connecting → Connected → {Reconnecting | Error}.
// Abnormal transport loss triggers exponential-backoff reconnection up to a
// configured bound; exhausting the bound is the one terminal condition and
// requires an explicit Connect call to recover.
//
// On reaching Connected the client starts the heartbeat monitor, flushes the
// outbound queue in FIFO order, and re-runs the authentication handshake
// when one is configured. All inbound traffic flows through the dispatch
// package; the client only intercepts heartbeat responses to sample
// round-trip latency.
package client
