// Package orchestrator coordinates distributed event extraction across the
// region fleet.
//
// The orchestrator owns the region registry for its lifetime and layers
// three policies over it:
//
//   - Retry with re-selection: Attempt runs select -> execute -> classify
//     in a loop, so each retry can land on a different region. Failure
//     class picks the backoff window (rate limit 10-30s, generic 5-15s,
//     no region selectable 30-60s).
//   - Global backpressure: ExtractDistributed runs URLs under a weighted
//     semaphore (default 15) independent of per-region load caps. One
//     URL's terminal failure never aborts its siblings.
//   - Cost planning: CostStrategy recommends a region or partial plan for
//     a budget, deterministically given identical region statistics.
//
// Orchestrators are constructed per process via New; nothing in this
// package is a singleton, so tests build throwaway instances with mock
// region fleets.
package orchestrator
