// Package transport abstracts the raw socket under the stream client.
//
// The connection manager owns exactly one Transport at a time and is the only
// component holding a reference to it. Everything above the transport works
// in terms of the Transport interface, so the manager's state machine is
// testable without a network; the production implementation is a
// gorilla/websocket connection.
package transport
