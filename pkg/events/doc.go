// Package events carries permission and tenant change notifications into the
// authorization engine.
//
// The engine does not track dependencies implicitly: an external update
// (roles edited, tenant switched) is pushed as a typed event, and the bound
// evaluator reacts by invalidating the affected cache prefix and recomputing
// the principal's effective permission set.
//
// Notifier dispatches all events from a single goroutine, which serializes
// invalidation with respect to itself and gives callers the single-writer
// ordering the cache contract asks for. Handlers are panic-isolated: a
// misbehaving subscriber cannot take down dispatch.
//
// Bridge optionally fans events out across process boundaries over a Redis
// pub/sub channel, so that several instances of an application can invalidate
// together. Evaluation paths never touch Redis; only change propagation does.
package events
