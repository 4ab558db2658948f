// Package region implements the extraction region registry, health
// monitoring, and multi-factor region selection.
//
// A Region is one geographically distinct extraction service endpoint with
// its own cost tier, concurrency cap, and health state machine
// (available / rate_limited / error / maintenance). The Registry owns all
// region state for one orchestrator instance and serializes every read and
// mutation behind a mutex, which is what upholds the two core invariants:
//
//   - 0 <= currentLoad <= maxConcurrent at all times (Acquire/Release)
//   - rate_limited -> available only after the cooldown window elapses,
//     applied lazily on every Available() call
//
// The Monitor fans out concurrent /health probes with per-region failure
// isolation. The Selector ranks available regions with a weighted score
// over success rate, load headroom, success recency, cost tier, platform
// geo affinity, and rate-limit avoidance; ties break by registration order.
package region
