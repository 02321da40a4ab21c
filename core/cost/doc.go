// Package cost computes the dollar cost of LLM requests from token usage and
// the per-model pricing in the aicore catalog. It is a pure accounting layer:
// feed it the [ai.Usage] snapshots emitted by a stream and it returns the
// price of what was consumed.
package cost
