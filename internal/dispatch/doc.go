// Package dispatch implements the inbound fan-out path.
//
// The Dispatcher owns the subscription table (an explicit map, not an
// emitter base) and demultiplexes inbound envelopes by event kind.
// Dispatch order within a kind is descending subscription priority, stable
// by registration order for equal priorities. Handler panics are isolated
// per subscription and never interrupt delivery to the rest.
//
// Every dispatched envelope is first recorded in the ReplayBuffer, a bounded
// per-kind history that lets late subscribers replay recent envelopes.
// In-band control kinds registered via Intercept bypass both the buffer and
// the subscription table.
package dispatch
