// Package event defines the wire envelope exchanged over the stream.
//
// Every message, inbound or outbound, is an Envelope: a typed, timestamped,
// uniquely-identified unit with an opaque JSON payload and optional routing
// metadata. Envelopes are immutable once constructed.
//
// Conventions:
//   - IDs: uuid.UUID strings, generator-assigned when the sender omits one
//   - Timestamps: RFC 3339, assigned at construction time
//   - Payloads: raw JSON, interpreted only by subscribers
package event
