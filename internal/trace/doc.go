// Package trace is the event log of tensorc.
//
// Dispatch tables report their rebuilds here, the CLI reports command
// boundaries, and the bench runner reports each run. Nothing in the
// dispatch path depends on tracing being enabled; with the Nop tracer a span
// costs one interface call.
//
// # Tracers
//
//   - Nop: disabled tracing
//   - StreamTracer: buffered write to a file or stderr
//   - RingTracer: last N events kept in memory, written out on Close
//   - MultiTracer: fan-out to several tracers
//
// # Levels and scopes
//
// LevelDriver emits ScopeDriver events only, LevelTable adds ScopeMethod and
// ScopeTable, LevelDebug adds per-cell ScopeCell events.
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeDriver, "bench")
//	defer span.End("")
package trace
