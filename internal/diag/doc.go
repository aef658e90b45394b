// Package diag defines the diagnostic model shared by the record loader, the
// resolver and the type sinks.
//
// Goals:
//   - Give every finding a stable Code whose ID() is safe to grep for in logs
//     and CI output (RES1001, LOAD2002, ...).
//   - Keep emission separate from storage: producers talk to a Reporter, the
//     driver decides whether diagnostics land in a Bag, get deduplicated or
//     are dropped.
//
// Diagnostics carry a Subject instead of a source span. The subject is the
// name of the type record the finding is about, so formatters can group
// findings per type.
//
// Producers that need notes use the builder:
//
//	diag.ReportError(r, diag.ResUnresolvedAfterFixpoint, "Outer", "still waiting on dependencies").
//		WithNote("Inner", "member type never became complete").
//		Emit()
//
// When no additional metadata is needed, call Reporter.Report directly.
package diag
