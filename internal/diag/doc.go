// Package diag defines the diagnostic model used by dispatch audits.
//
// An audit walks a built dispatch table and reports findings about its
// cells: ambiguous combinations, combinations no implementation covers,
// implementations that never win. Producers talk to a Reporter; the CLI
// collects into a Bag, sorts, dedups and renders.
//
// Diagnostic carries a Severity, a Code with a stable ID (R1xxx for
// registry findings, D2xxx for resolution findings), a short message, the
// cell it points at (Where) and optional notes naming the implementations
// involved.
//
// Package diag performs no formatting or IO.
package diag
