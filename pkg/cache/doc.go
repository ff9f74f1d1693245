// Package cache implements the bounded permission-result cache used by the
// RBAC evaluator.
//
// It is an LRU + TTL associative store mapping a fully qualified check key to
// a boolean decision. Entries expire lazily on read and are additionally
// reclaimed by a background sweep running on a fixed interval. At capacity the
// least-recently-accessed entry is evicted before insertion.
//
// Keys are expected to be prefixed with the principal id (and optionally the
// tenant id), which makes InvalidatePrefix the natural form of "drop all
// entries for principal X" and "drop all entries for principal X in tenant Y".
//
// All operations are safe under concurrent access; a single mutual-exclusion
// domain protects each cache instance. The sweep acquires it only for the
// duration of one scan, never for the whole interval.
package cache
