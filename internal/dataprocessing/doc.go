// Package dataprocessing implements the enrichment stages of the factlake
// pipeline: market integration and valuation.
//
// Both stages follow the same contract: they take a facts record, return a
// deep, independently owned copy with one layer attached under the current
// period, and never mutate their input. They are fail-soft by design — any
// malformed, missing or non-positive operand degrades the single affected
// derived field to null, and the stage as a whole never returns an error.
// Enrichment is best-effort; partial results are valuable.
//
// Layer ordering is one-directional: facts -> market -> valuation. The
// valuation engine reads the market block but neither stage ever writes into
// the metrics layer or the prior period.
package dataprocessing
