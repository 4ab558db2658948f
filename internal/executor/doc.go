// Package executor performs single extraction attempts against region
// services and classifies their outcomes.
//
// Two closed backends exist: the standard path (POST /extract) and the
// premium steel-browser automation path (POST /extract/steel with bearer
// auth and anti-detection options). Outcome classification drives the
// region state machine: 429 starts a rate-limit cooldown, any other failure
// marks the region errored, and success records cost and recency. The
// region's load slot is held for exactly the duration of the call.
package executor
