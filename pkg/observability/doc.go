// Package observability provides structured logging and Prometheus metrics
// for the Gatehouse authorization engine.
//
// The Logger is a thin wrapper over log/slog producing JSON output with
// chained fields (WithField, WithError). Library packages accept a *Logger
// and default to a no-op instance, so embedding applications stay in control
// of their log output.
//
// Metrics registers counters and histograms for permission checks, cache
// behavior, navigation filtering and change events on a caller-supplied
// Prometheus registry.
package observability
