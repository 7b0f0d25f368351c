// Package link owns the framed stream between the bridge and the engine.
//
// Ownership boundary:
// - semantics.update / channel.message / channel.response wire helpers
// - serial frame read loop with name-addressed channel handlers
// - one response per inbound channel message, correlated by message id
// - dial with retry/backoff and optional TLS
package link
