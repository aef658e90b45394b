// Package trace is elnino's logging layer: structured span and point events
// describing what a load is doing.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	elnino load --trace=- --trace-level=detail ntdll.json
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: Zero-overhead no-op tracer when disabled
//   - StreamTracer: Immediate write to output (file/stderr)
//   - RingTracer: Circular buffer, dumped when a load fails
//   - MultiTracer: Combines multiple tracers
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Only the ring dump on failure
//   - LevelPhase: Driver and scheduler phase boundaries
//   - LevelDetail: Fixpoint passes
//   - LevelDebug: Every aggregate and enum attempt
//
// # Context Propagation
//
// The tracer, the parent span and the scheduler gauge travel with the
// context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span, ctx := trace.Start(ctx, trace.ScopeDriver, "load")
//	defer span.End("")
//
// Heartbeats read the Gauge the scheduler keeps current, so a stalled pass
// shows up as heartbeat:stalled events.
package trace
