// Package pipeline implements the multi-agent extraction pipeline and its
// routing agent.
//
// A run walks a strict stage order — scroll discovery, link validation,
// text extraction, data validation, routing optimization — where each
// stage consumes the previous stage's output. The order reflects the real
// data dependency: links cannot be validated before they are discovered.
// Failure semantics are asymmetric on purpose: the first three stages gate
// data availability and fail the run; the last two only refine quality
// scoring, so their failures degrade to scores computed from whatever
// partial data exists.
//
// The Router is the single-node analogue of the region selector: one agent
// instance exists per type, so routing is an admission check against the
// agent's load cap rather than a ranking. Per-agent metrics keep a rolling
// processing-time average (exponential moving average, alpha 0.3).
package pipeline
