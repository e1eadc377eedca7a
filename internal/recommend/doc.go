// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

// Package recommend implements the ensemble-and-diversity recommendation
// layer: it arbitrates between two independent scoring providers and
// reshapes their merged opinion into one diversified list.
//
// # Pipeline
//
// A request flows through: cache lookup, user-history check, adaptive
// weight computation, concurrent provider fetches, percentile score
// normalization, selective ensemble combination, diversity reranking,
// and caching of the final list. Users absent from the interaction
// matrix take the cold-start path instead, which blends provider
// cold-start lists with trend-ranked catalog projects.
//
// # Degradation
//
// Nothing in this layer is fatal to the serving process. A provider that
// errors, times out, or returns an empty list is treated as unavailable
// and its weight moves to the other provider; if both are unavailable
// the cold-start path serves trend-based results; the worst case is an
// empty list, which is a valid outcome distinct from an error.
//
// # Concurrency
//
// The engine is safe for concurrent requests. The two provider fetches
// within a request run concurrently; everything else in a request is
// synchronous. The result cache is lock-protected, and identical
// concurrent cache misses are collapsed into a single computation.
package recommend
